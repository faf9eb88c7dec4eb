package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/daystake/go-daystake/audit"
)

func events(args []string) error {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	configPath := fs.String("config", "daystake.yaml", "config file")
	id := fs.Uint64("id", 0, "challenge id (0 = all)")
	fs.Parse(args)

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	all, err := audit.ReadJSONL(a.cfg.AuditPath)
	if err != nil {
		return err
	}

	count := 0
	for _, e := range all {
		if *id != 0 && e.ChallengeID != *id {
			continue
		}
		count++
		switch e.Type {
		case audit.TypeAttested:
			fmt.Printf("%s  challenge %d  %-9s day %d  %s\n",
				e.Timestamp.Format(time.RFC3339), e.ChallengeID, e.Type, e.Day, e.Amount.Dec())
		default:
			fmt.Printf("%s  challenge %d  %-9s %s\n",
				e.Timestamp.Format(time.RFC3339), e.ChallengeID, e.Type, e.Amount.Dec())
		}
	}
	if count == 0 {
		fmt.Println("No events")
	}
	return nil
}
