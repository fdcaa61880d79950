package main

import (
	"fmt"
	"strings"

	"github.com/dvloznov/decision-ease/internal/domain"
	"github.com/dvloznov/decision-ease/internal/notice"
	"github.com/spf13/cobra"
)

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show balance, plan and credit status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.service.State(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load state: %w", err)
			}

			w := cmd.OutOrStdout()
			status := notice.CreditStatus(st.Transactions, st.Subscriptions, st.Balance)

			plan := "free"
			if st.PremiumActive {
				plan = "premium"
			}

			writeLine(w, titleStyle.Render("Decision Ease"))
			tw := newTable(w)
			fmt.Fprintf(tw, "Balance\t%s\n", yen(st.Balance))
			fmt.Fprintf(tw, "Plan\t%s\n", plan)
			fmt.Fprintf(tw, "Notices\t%s\n", st.NoticeLevel)
			fmt.Fprintf(tw, "Subscriptions\t%d\n", len(st.Subscriptions))
			fmt.Fprintf(tw, "Credit status\t%s (%s)\n", labelStyle(status.Label).Render(string(status.Label)), status.Reason)
			if err := tw.Flush(); err != nil {
				return err
			}

			var enabled []string
			for _, i := range domain.AllIntegrations() {
				if st.Integrations.Enabled(i) {
					enabled = append(enabled, string(i))
				}
			}
			if len(enabled) == 0 {
				writeLine(w, subtleStyle.Render("No integrations enabled."))
			} else {
				writeLine(w, "Integrations: "+strings.Join(enabled, ", "))
			}
			return nil
		},
	}
}
