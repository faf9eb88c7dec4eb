package main

import (
	"context"
	"flag"
	"fmt"
	"time"
)

func show(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	configPath := fs.String("config", "daystake.yaml", "config file")
	id := fs.Uint64("id", 0, "challenge id (0 = list all)")
	fs.Parse(args)

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	if *id == 0 {
		challenges, err := a.store.List(ctx)
		if err != nil {
			return err
		}
		if len(challenges) == 0 {
			fmt.Println("No challenges")
			return nil
		}
		for _, c := range challenges {
			state := "active"
			if c.Finalized {
				state = "finalized"
			}
			fmt.Printf("%4d  %-12s %8s/%s days  principal=%s  released=%s  %s\n",
				c.ID, c.Owner, fmt.Sprint(c.Unlocked.Count()),
				fmt.Sprint(c.DurationDays), c.Principal.Dec(),
				c.Released.Dec(), state)
		}
		return nil
	}

	c, err := a.engine.GetChallenge(ctx, *id)
	if err != nil {
		return err
	}

	fmt.Printf("Challenge %d\n", c.ID)
	fmt.Printf("  Owner:        %s\n", c.Owner)
	fmt.Printf("  Beneficiary:  %s\n", c.Beneficiary)
	fmt.Printf("  Principal:    %s\n", c.Principal.Dec())
	fmt.Printf("  Daily slice:  %s\n", c.DailySlice.Dec())
	fmt.Printf("  Duration:     %d days from %s\n", c.DurationDays, c.StartTime.Format(time.RFC3339))
	fmt.Printf("  Unlocked:     %d days (%s)\n", c.Unlocked.Count(), c.UnlockedTotal().Dec())
	fmt.Printf("  Released:     %s\n", c.Released.Dec())
	fmt.Printf("  Claimed:      %s\n", c.Claimed.Dec())
	fmt.Printf("  Penalized:    %s\n", c.Penalized.Dec())
	fmt.Printf("  Finalized:    %v\n", c.Finalized)
	fmt.Printf("  Conserved:    %v\n", c.Conserved())
	return nil
}

func days(args []string) error {
	fs := flag.NewFlagSet("days", flag.ExitOnError)
	configPath := fs.String("config", "daystake.yaml", "config file")
	id := fs.Uint64("id", 0, "challenge id")
	fs.Parse(args)

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	c, err := a.engine.GetChallenge(context.Background(), *id)
	if err != nil {
		return err
	}

	now := time.Now()
	for day := uint32(0); day < c.DurationDays; day++ {
		status := "locked"
		switch {
		case c.IsDayUnlocked(day):
			status = "unlocked"
		case now.Before(c.DayStart(day)):
			status = "not started"
		}
		fmt.Printf("  day %2d  starts %s  %s\n",
			day, c.DayStart(day).Format(time.RFC3339), status)
	}
	return nil
}
