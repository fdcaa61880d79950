package main

import (
	"fmt"
	"time"

	"github.com/dvloznov/decision-ease/internal/domain"
	"github.com/dvloznov/decision-ease/internal/notice"
	"github.com/spf13/cobra"
)

func forecastCmd(a *app) *cobra.Command {
	var today string

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "List upcoming charges and balance warnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if today != "" {
				d, err := domain.ParseDate(today)
				if err != nil {
					return fmt.Errorf("invalid --today: %w", err)
				}
				now = d
			}

			st, err := a.service.State(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load state: %w", err)
			}

			w := cmd.OutOrStdout()
			writeLine(w, titleStyle.Render("Upcoming charges as of "+now.Format(domain.DateLayout)))

			charges := notice.UpcomingCharges(st.Subscriptions, now)
			if len(charges) == 0 {
				writeLine(w, subtleStyle.Render("No subscriptions."))
			} else {
				tw := newTable(w)
				fmt.Fprintln(tw, "DATE\tNAME\tAMOUNT\tSTATUS")
				for _, c := range charges {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
						c.NextChargeDate.Format(domain.DateLayout), c.Subscription.Name, yen(c.Subscription.Amount), c.Subscription.Status)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}

			if warning, ok := notice.BalanceWarning(st.Subscriptions, st.Balance, now); ok {
				writeLine(w, warningStyle.Render(warning))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&today, "today", "", "evaluate as of this date (YYYY-MM-DD)")
	return cmd
}
