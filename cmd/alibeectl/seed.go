package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/demo"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/repository"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/repository/postgres"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/database"
)

var seedCmd = &cobra.Command{
	Use:   "seed [keyword]",
	Short: "Save demo products into the saved list",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().Int("pages", 1, "Demo pages to save")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	pages, _ := cmd.Flags().GetInt("pages")
	if pages < 1 {
		return fmt.Errorf("pages must be a positive integer")
	}
	keyword := ""
	if len(args) == 1 {
		keyword = args[0]
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	inserted, updated, err := seedSaved(ctx, postgres.NewSavedRepository(pool), demo.NewPolicy(cfg.Demo()), keyword, pages)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products (%d new, %d updated)\n", inserted+updated, inserted, updated)
	return nil
}

func seedSaved(ctx context.Context, repo repository.SavedRepository, policy *demo.Policy, keyword string, pages int) (inserted, updated int, err error) {
	for page := 1; page <= pages; page++ {
		products := policy.Products(domain.SearchRequest{Keywords: keyword, Page: page, PageSize: domain.DefaultPageSize})
		for i := range products {
			isNew, err := repo.Upsert(ctx, domain.SavedFromProduct(&products[i]))
			if err != nil {
				return inserted, updated, fmt.Errorf("save %s: %w", products[i].ProductID, err)
			}
			if isNew {
				inserted++
			} else {
				updated++
			}
		}
	}
	return inserted, updated, nil
}
