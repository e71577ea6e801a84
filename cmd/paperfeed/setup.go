// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperfeed/internal/notion"
	"github.com/pdiddy/paperfeed/internal/secrets"
)

var setupNotionCmd = &cobra.Command{
	Use:   "setup-notion-db PAGE_ID",
	Short: "Create the Notion paper database under a page",
	Long: `setup-notion-db creates a "Paper Tracker" database with the property
schema paperfeed publishes into, under the given Notion page. The page must
be shared with the integration that owns the token.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := secrets.Resolve(
			viper.GetString("notion.token"), loadedSecrets, "notion-token", "NOTION_TOKEN")
		if token == "" {
			return fmt.Errorf("notion token required; set NOTION_TOKEN in .env or .secrets/notion-token")
		}

		client := &http.Client{Timeout: 30 * time.Second}
		dbID, err := notion.CreateDatabase(cmd.Context(), client, token, args[0])
		if err != nil {
			return fmt.Errorf("creating database: %w", err)
		}

		fmt.Printf("Database created.\nAdd this to your .env:\n  NOTION_DATABASE_ID=%s\n", dbID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupNotionCmd)
}
