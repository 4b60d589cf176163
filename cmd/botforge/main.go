package main

import (
	"fmt"
	"os"

	"github.com/botforge-ai/botforge/internal/cli"
	"github.com/botforge-ai/botforge/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "botforge",
		Short: "Botforge CLI - Knowledge management for website chatbots",
		Long: `Botforge CLI provides commands to manage chatbots and their knowledge bases.

Environment variables:
  BOTFORGE_API_KEY   API key for authentication (required)
  BOTFORGE_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.KBCmd())
	rootCmd.AddCommand(client.ChatbotCmd())
	rootCmd.AddCommand(client.ChatCmd())
	rootCmd.AddCommand(client.PromptCmd())
	rootCmd.AddCommand(client.AuthCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
