package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jpeetla/executive-web-scraper/internal/export"
	"github.com/jpeetla/executive-web-scraper/pkg/notion"
)

var importDB string

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Queue a lead list (.csv or .xlsx) in the Notion lead database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Notion.Token == "" {
			return eris.New("import: notion.token is required")
		}
		db := importDB
		if db == "" {
			db = cfg.Notion.LeadDB
		}
		if db == "" {
			return eris.New("import: --db or notion.lead_db is required")
		}

		leads, err := export.ReadLeadsFile(args[0])
		if err != nil {
			return eris.Wrap(err, "import: read leads")
		}

		client := notion.NewClient(cfg.Notion.Token)
		created, err := notion.ImportLeads(ctx, client, db, leads)
		if err != nil {
			return eris.Wrap(err, "import: queue leads")
		}

		zap.L().Info("leads queued", zap.Int("created", created), zap.String("db", db))
		fmt.Printf("Queued %d leads\n", created)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importDB, "db", "", "Notion lead database ID (default notion.lead_db)")
	rootCmd.AddCommand(importCmd)
}
