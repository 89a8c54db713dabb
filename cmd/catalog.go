package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soprim/pricebot/internal/catalog"
	"github.com/soprim/pricebot/internal/textnorm"
)

var catalogThreshold float64

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the internal price-list catalog",
}

var catalogRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force a feed reload and print the entry count",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "catalog")
		if err != nil {
			return err
		}
		defer env.Close()

		if env.Catalog == nil {
			return eris.New("catalog feed is not configured (PRICEBOT_CATALOG_FEED_URL)")
		}
		if err := env.Catalog.Refresh(ctx); err != nil {
			return err
		}

		entries, err := env.Catalog.Entries(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("catalog loaded: %d entries\n", len(entries))
		return nil
	},
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Score a query against the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "catalog")
		if err != nil {
			return err
		}
		defer env.Close()

		if env.Catalog == nil {
			return eris.New("catalog feed is not configured (PRICEBOT_CATALOG_FEED_URL)")
		}

		query := textnorm.NewQuery(strings.Join(args, " "))
		match, err := env.Catalog.Search(ctx, query, catalogThreshold)
		if err != nil {
			return err
		}
		if match == nil {
			fmt.Println("sin coincidencias")
			return nil
		}

		zap.L().Info("catalog match",
			zap.String("description", match.Entry.Description),
			zap.Float64("score", match.Score),
		)
		out, err := json.MarshalIndent(catalog.Format(match.Entry), "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal offer")
		}
		fmt.Println(string(out))
		return nil
	},
}

var catalogStockCmd = &cobra.Command{
	Use:   "stock",
	Short: "List catalog entries with positive stock",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "catalog")
		if err != nil {
			return err
		}
		defer env.Close()

		if env.Catalog == nil {
			return eris.New("catalog feed is not configured (PRICEBOT_CATALOG_FEED_URL)")
		}

		entries, err := env.Catalog.EntriesWithStock(ctx)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%-12s %-50s %8s %6s\n", e.Code, e.Description, e.PriceRaw, e.StockRaw)
		}
		fmt.Printf("%d entries in stock\n", len(entries))
		return nil
	},
}

func init() {
	catalogSearchCmd.Flags().Float64Var(&catalogThreshold, "threshold", 0.5, "minimum similarity score")
	catalogCmd.AddCommand(catalogRefreshCmd, catalogSearchCmd, catalogStockCmd)
	rootCmd.AddCommand(catalogCmd)
}
