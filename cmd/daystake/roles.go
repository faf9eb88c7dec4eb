package main

import (
	"flag"
	"fmt"
)

func setAttester(args []string) error {
	fs := flag.NewFlagSet("set-attester", flag.ExitOnError)
	configPath := fs.String("config", "daystake.yaml", "config file")
	from := fs.String("from", "", "caller identity (must be the admin)")
	newAttester := fs.String("attester", "", "new attester identity")
	fs.Parse(args)

	if *from == "" {
		return fmt.Errorf("-from is required")
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.engine.SetAttester(addr(*from), addr(*newAttester)); err != nil {
		return err
	}

	// Persist the rotation so future invocations see the new attester.
	a.cfg.Attester = *newAttester
	if err := a.cfg.Save(a.configPath); err != nil {
		return err
	}

	fmt.Printf("Attester is now %s\n", *newAttester)
	return nil
}
