package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soprim/pricebot/internal/textnorm"
)

var resolveQuote bool

var resolveCmd = &cobra.Command{
	Use:   "resolve [query]",
	Short: "Resolve one product query and print the offer bundle",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "resolve")
		if err != nil {
			return err
		}
		defer env.Close()
		defer env.Runner.Reap(ctx)

		query := textnorm.NewQuery(strings.Join(args, " "))
		zap.L().Info("resolving query",
			zap.String("raw", query.Raw),
			zap.String("normalized", query.Normalized),
		)

		bundle := env.Resolver.Resolve(ctx, query)

		out, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal bundle")
		}
		fmt.Println(string(out))

		if resolveQuote && !bundle.Empty() {
			offer := bundle.BestPrice
			if offer == nil {
				offer = bundle.Immediate
			}
			fmt.Printf("precio de venta: %s (Origen: %s)\n",
				env.Pricer.Quote(offer.Source, offer.PriceNumeric), offer.Source.Code())
		}

		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveQuote, "quote", false, "print the margin-applied sell price after the bundle")
	rootCmd.AddCommand(resolveCmd)
}
