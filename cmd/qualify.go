package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var qualifyCompanyID string

var qualifyCmd = &cobra.Command{
	Use:   "qualify [domains...]",
	Short: "Qualify prospect domains against a company's ICP",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		result, err := a.prospects.QualifyDomains(ctx, qualifyCompanyID, strings.Join(args, ","))
		if err != nil {
			return eris.Wrap(err, "qualify domains")
		}

		zap.L().Info("qualification complete",
			zap.Int("total", result.Summary.Total),
			zap.Int("qualified", result.Summary.Qualified),
			zap.Int("rejected", result.Summary.Rejected),
			zap.Int("pending", result.Summary.Pending),
			zap.Float64("average_score", result.Summary.AverageScore),
		)

		// Print result JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	qualifyCmd.Flags().StringVar(&qualifyCompanyID, "company", "", "company ID (required)")
	_ = qualifyCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(qualifyCmd)
}
