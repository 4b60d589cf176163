package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// GetCmd creates the kb get command.
func GetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get <source_id>",
		Short:   "Get a knowledge source by ID",
		Long:    "Retrieves a knowledge source by its ID and displays the full content including URL and FAQ children.",
		Aliases: []string{"view"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runGet(args[0], outputJSON)
		},
	}

	return cmd
}

func runGet(sourceID string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/knowledge-bases/%s", sourceID))
	if err != nil {
		return fmt.Errorf("failed to get knowledge source: %w", err)
	}

	var source Source
	if err := json.Unmarshal(resp.Data, &source); err != nil {
		return fmt.Errorf("failed to parse knowledge source: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(source, "", "  ")
		fmt.Println(string(output))
	} else {
		printSource(&source)
	}

	return nil
}
