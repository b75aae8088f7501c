package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	enrichDomain string
	enrichOwner  string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Scrape a company domain, build its profile and generate its ICP",
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

		owner, err := a.store.GetUserByEmail(ctx, enrichOwner)
		if err != nil {
			return eris.Wrap(err, "lookup owner")
		}
		if owner == nil {
			return eris.Errorf("no user with email %s, sign up first", enrichOwner)
		}

		company, err := a.companies.Create(ctx, owner.ID, enrichDomain)
		if err != nil {
			return eris.Wrap(err, "create company")
		}

		zap.L().Info("enrichment complete",
			zap.String("company_id", company.ID),
			zap.String("domain", company.Domain),
		)

		// Print result JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(company)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichDomain, "domain", "", "company domain (required)")
	enrichCmd.Flags().StringVar(&enrichOwner, "owner", "", "owner account email (required)")
	_ = enrichCmd.MarkFlagRequired("domain")
	_ = enrichCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(enrichCmd)
}
