package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/lease-engine/api"
	"github.com/warp/lease-engine/calendar"
	"github.com/warp/lease-engine/lease"
)

type classifyArgs struct {
	start, end string
	asOf       string
	timeZone   string
	window     int
}

func newClassifyCmd(root *rootOptions) *cobra.Command {
	var args classifyArgs

	cmd := &cobra.Command{
		Use:     "classify",
		Short:   "Classify a lease as upcoming, active, expiring or expired",
		Example: `  lease-engine classify --start 2024-01-01 --end 2024-09-12 --as-of 2024-06-15`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("window") {
				args.window = cfg.Engine.RenewalWindowDays
			}
			if !cmd.Flags().Changed("tz") {
				args.timeZone = cfg.Engine.DefaultTimeZone
			}
			res, err := classify(args, time.Now())
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&args.start, "start", "", "Lease start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&args.end, "end", "", "Lease end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&args.asOf, "as-of", "", "RFC3339 instant or YYYY-MM-DD (default now)")
	cmd.Flags().StringVar(&args.timeZone, "tz", "UTC", "IANA zone that decides today's date")
	cmd.Flags().IntVarP(&args.window, "window", "w", lease.DefaultRenewalWindowDays, "Renewal window in days")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func classify(args classifyArgs, now time.Time) (api.LeaseEvaluationDTO, error) {
	start, err := calendar.ParseDay(args.start)
	if err != nil {
		return api.LeaseEvaluationDTO{}, fmt.Errorf("--start: %w", err)
	}
	end, err := calendar.ParseDay(args.end)
	if err != nil {
		return api.LeaseEvaluationDTO{}, fmt.Errorf("--end: %w", err)
	}
	if args.timeZone == "" {
		args.timeZone = "UTC"
	}
	if !calendar.ValidZone(args.timeZone) {
		return api.LeaseEvaluationDTO{}, fmt.Errorf("unknown time zone %q", args.timeZone)
	}
	if args.window < 0 {
		return api.LeaseEvaluationDTO{}, errors.New("--window must not be negative")
	}
	if args.asOf != "" {
		if now, err = calendar.ParseInstant(args.asOf); err != nil {
			return api.LeaseEvaluationDTO{}, fmt.Errorf("--as-of: %w", err)
		}
	}

	today := calendar.CalendarDateIn(now, args.timeZone)
	status := lease.ClassifyLease(start, end, today, args.window)
	return api.LeaseEvaluationDTO{
		Today:         today.String(),
		Status:        status,
		Badge:         lease.BadgeVariantFor(status),
		DaysRemaining: lease.DaysRemaining(end, today),
	}, nil
}
