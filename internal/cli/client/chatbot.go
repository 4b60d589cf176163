package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Chatbot represents a chatbot from the API.
type Chatbot struct {
	ID           string `json:"id"`
	TenantID     string `json:"tenant_id"`
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
	Model        string `json:"model,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// ChatbotCmd creates the chatbot parent command.
func ChatbotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chatbot",
		Short: "Manage chatbots",
		Long:  "Create, list, and inspect chatbots for the authenticated tenant.",
	}

	cmd.AddCommand(ChatbotCreateCmd())
	cmd.AddCommand(ChatbotListCmd())
	cmd.AddCommand(ChatbotGetCmd())

	return cmd
}

// ChatbotCreateCmd creates the chatbot create command.
func ChatbotCreateCmd() *cobra.Command {
	var instructions string
	var model string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new chatbot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runChatbotCreate(args[0], instructions, model, outputJSON)
		},
	}

	cmd.Flags().StringVar(&instructions, "instructions", "You are a helpful assistant for this website.", "System instructions")
	cmd.Flags().StringVar(&model, "model", "", "Chat model override")

	return cmd
}

func runChatbotCreate(name, instructions, model string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	body := map[string]string{
		"name":         name,
		"instructions": instructions,
	}
	if model != "" {
		body["model"] = model
	}

	resp, err := api.Post("/chatbots", body)
	if err != nil {
		return fmt.Errorf("failed to create chatbot: %w", err)
	}

	var bot Chatbot
	if err := json.Unmarshal(resp.Data, &bot); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(bot, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Created chatbot: %s (%s)\n", bot.Name, bot.ID)
	}

	return nil
}

// ChatbotListCmd creates the chatbot list command.
func ChatbotListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List chatbots",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runChatbotList(outputJSON)
		},
	}

	return cmd
}

func runChatbotList(outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get("/chatbots")
	if err != nil {
		return fmt.Errorf("failed to list chatbots: %w", err)
	}

	var bots []Chatbot
	if err := json.Unmarshal(resp.Data, &bots); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(bots, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(bots) == 0 {
		fmt.Println("No chatbots found")
		return nil
	}

	fmt.Println("Chatbots:")
	for _, bot := range bots {
		fmt.Printf("  %s: %s (created: %s)\n", bot.ID, bot.Name, bot.CreatedAt)
	}

	return nil
}

// ChatbotGetCmd creates the chatbot get command.
func ChatbotGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <chatbot_id>",
		Short: "Get a chatbot by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runChatbotGet(args[0], outputJSON)
		},
	}

	return cmd
}

func runChatbotGet(chatbotID string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/chatbots/%s", chatbotID))
	if err != nil {
		return fmt.Errorf("failed to get chatbot: %w", err)
	}

	var bot Chatbot
	if err := json.Unmarshal(resp.Data, &bot); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(bot, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("ID: %s\n", bot.ID)
		fmt.Printf("Name: %s\n", bot.Name)
		if bot.Model != "" {
			fmt.Printf("Model: %s\n", bot.Model)
		}
		fmt.Printf("Created: %s\n", bot.CreatedAt)
		fmt.Println()
		fmt.Println("--- Instructions ---")
		fmt.Println(bot.Instructions)
	}

	return nil
}
