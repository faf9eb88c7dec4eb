package main

import (
	"context"
	"flag"
	"fmt"
)

func claim(args []string) error {
	fs := flag.NewFlagSet("claim", flag.ExitOnError)
	configPath := fs.String("config", "daystake.yaml", "config file")
	from := fs.String("from", "", "caller identity (must be the owner)")
	id := fs.Uint64("id", 0, "challenge id")
	fs.Parse(args)

	if *from == "" {
		return fmt.Errorf("-from is required")
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	amount, err := a.engine.ClaimUnlocked(context.Background(), addr(*from), *id)
	if err != nil {
		return err
	}

	fmt.Printf("Claimed %s from challenge %d\n", amount.Dec(), *id)
	return nil
}
