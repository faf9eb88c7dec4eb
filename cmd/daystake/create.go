package main

import (
	"context"
	"flag"
	"fmt"
	"time"
)

func create(args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	configPath := fs.String("config", "daystake.yaml", "config file")
	from := fs.String("from", "", "caller identity (challenge owner)")
	beneficiary := fs.String("beneficiary", "", "identity receiving unearned principal")
	amount := fs.String("amount", "", "principal to lock (decimal)")
	start := fs.String("start", "", "start time, RFC3339 (default: shortly after now)")
	duration := fs.Uint("days", 0, "challenge duration in days")
	fs.Parse(args)

	if *from == "" {
		return fmt.Errorf("-from is required")
	}
	principal, err := parseAmount(*amount)
	if err != nil {
		return err
	}

	// A small grace keeps the default ahead of the engine's own clock
	// read, which rejects start times in the past.
	startTime := time.Now().Add(5 * time.Second)
	if *start != "" {
		startTime, err = time.Parse(time.RFC3339, *start)
		if err != nil {
			return fmt.Errorf("invalid start time %q: %w", *start, err)
		}
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	id, err := a.engine.CreateChallenge(context.Background(),
		addr(*from), addr(*beneficiary), principal, startTime, uint32(*duration))
	if err != nil {
		return err
	}

	fmt.Printf("Created challenge %d: %s locked for %d days starting %s\n",
		id, principal.Dec(), *duration, startTime.Format(time.RFC3339))
	return nil
}
