package main

import (
	"context"
	"flag"
	"fmt"
)

func finalize(args []string) error {
	fs := flag.NewFlagSet("finalize", flag.ExitOnError)
	configPath := fs.String("config", "daystake.yaml", "config file")
	from := fs.String("from", "", "caller identity (any party)")
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

	swept, err := a.engine.Finalize(context.Background(), addr(*from), *id)
	if err != nil {
		return err
	}

	fmt.Printf("Finalized challenge %d; swept %s to the beneficiary\n", *id, swept.Dec())
	return nil
}
