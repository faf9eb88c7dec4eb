package main

import (
	"context"
	"flag"
	"fmt"
)

func attest(args []string) error {
	fs := flag.NewFlagSet("attest", flag.ExitOnError)
	configPath := fs.String("config", "daystake.yaml", "config file")
	from := fs.String("from", "", "caller identity (must be the attester)")
	id := fs.Uint64("id", 0, "challenge id")
	day := fs.Uint("day", 0, "day index to unlock (0-based)")
	fs.Parse(args)

	if *from == "" {
		return fmt.Errorf("-from is required")
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.engine.AttestCompletion(context.Background(), addr(*from), *id, uint32(*day)); err != nil {
		return err
	}

	c, err := a.engine.GetChallenge(context.Background(), *id)
	if err != nil {
		return err
	}
	fmt.Printf("Unlocked day %d of challenge %d; released balance is now %s\n",
		*day, *id, c.Released.Dec())
	return nil
}
