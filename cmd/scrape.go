package main

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jpeetla/executive-web-scraper/internal/export"
	"github.com/jpeetla/executive-web-scraper/internal/model"
)

var (
	scrapeOut    string
	scrapeTarget string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <domain-or-company>",
	Short: "Find the executives of a single company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, scrapeTarget)
		if err != nil {
			return err
		}
		defer env.Close()

		lead := model.Lead{Domain: args[0]}
		result, err := newLeadRunner(env).run(ctx, lead)
		if err != nil {
			return err
		}

		if scrapeOut != "" {
			if err := export.WriteFile(scrapeOut, export.Rows(lead, result.Executives)); err != nil {
				return eris.Wrap(err, "scrape: export")
			}
			zap.L().Info("exported executives", zap.String("path", scrapeOut), zap.Int("rows", len(result.Executives)))
		}

		return writeResult(os.Stdout, result)
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeOut, "out", "", "also write executives to a .csv, .xlsx or .json file")
	scrapeCmd.Flags().StringVar(&scrapeTarget, "target", "", "target to resolve (default from config)")
	rootCmd.AddCommand(scrapeCmd)
}

// writeResult prints a run result as indented JSON. Executives always
// encode as an array.
func writeResult(w io.Writer, result model.RunResult) error {
	if result.Executives == nil {
		result.Executives = []model.Executive{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(result), "encode result")
}
