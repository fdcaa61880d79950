package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dvloznov/decision-ease/internal/detector"
	"github.com/dvloznov/decision-ease/internal/domain"
	"github.com/spf13/cobra"
)

func detectCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect recurring subscriptions",
		Long: `Detect groups expense transactions by merchant and reports every merchant
charged at a roughly monthly interval.

With --file the transactions are read from a JSON array and nothing is saved.
Without it, detection reruns over the stored transactions and the result is
saved; subscriptions added by hand are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var subs []domain.Subscription
			if file != "" {
				txs, err := readTransactions(file)
				if err != nil {
					return err
				}
				subs = detector.Detect(detector.Classify(txs))
			} else {
				var err error
				subs, err = a.service.Redetect(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to detect subscriptions: %w", err)
				}
			}
			return printSubscriptions(cmd.OutOrStdout(), subs)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with a transaction array")
	return cmd
}

func readTransactions(path string) ([]domain.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	var txs []domain.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return txs, nil
}

func printSubscriptions(w io.Writer, subs []domain.Subscription) error {
	writeLine(w, titleStyle.Render(fmt.Sprintf("Subscriptions (%d)", len(subs))))
	if len(subs) == 0 {
		writeLine(w, subtleStyle.Render("No recurring charges found."))
		return nil
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tAMOUNT\tDAY\tCATEGORY\tSTATUS")
	for _, s := range subs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", s.ID, s.Name, yen(s.Amount), s.RenewalDay, s.Category, s.Status)
	}
	return tw.Flush()
}
