package main

import (
	"flag"
	"fmt"
)

func balances(args []string) error {
	fs := flag.NewFlagSet("balances", flag.ExitOnError)
	configPath := fs.String("config", "daystake.yaml", "config file")
	who := fs.String("of", "", "address to show (default: custody only)")
	fs.Parse(args)

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Printf("custody: %s\n", a.vault.Custody().Dec())
	if *who != "" {
		fmt.Printf("%s: %s\n", *who, a.vault.Balance(addr(*who)).Dec())
	}
	return nil
}

func credit(args []string) error {
	fs := flag.NewFlagSet("credit", flag.ExitOnError)
	configPath := fs.String("config", "daystake.yaml", "config file")
	to := fs.String("to", "", "address to fund")
	amount := fs.String("amount", "", "amount to add (decimal)")
	fs.Parse(args)

	if *to == "" {
		return fmt.Errorf("-to is required")
	}
	v, err := parseAmount(*amount)
	if err != nil {
		return err
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	a.vault.Credit(addr(*to), v)
	fmt.Printf("%s now holds %s\n", *to, a.vault.Balance(addr(*to)).Dec())
	return nil
}
