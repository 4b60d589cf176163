package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type promptResponse struct {
	Knowledge string `json:"knowledge"`
}

// ChatCmd creates the chat command.
func ChatCmd() *cobra.Command {
	var (
		chatbotID string
		message   string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a chatbot",
		Long: `Send a message to a chatbot, or start an interactive session.

Examples:
  # One-shot message
  botforge chat -m "What are your shipping times?"

  # Interactive session (exit with Ctrl-D or 'exit')
  botforge chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runChat(chatbotID, message, outputJSON)
		},
	}

	cmd.Flags().StringVar(&chatbotID, "chatbot", "", "Override chatbot ID from config")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Message to send (interactive session if omitted)")

	return cmd
}

func runChat(chatbotID, message string, outputJSON bool) error {
	if chatbotID == "" {
		config, err := LoadConfig()
		if err != nil {
			return err
		}
		chatbotID = config.ChatbotID
	}

	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	if message != "" {
		reply, err := sendChat(api, chatbotID, []chatMessage{{Role: "user", Content: message}})
		if err != nil {
			return err
		}
		if outputJSON {
			output, _ := json.MarshalIndent(map[string]string{"reply": reply}, "", "  ")
			fmt.Println(string(output))
		} else {
			fmt.Println(reply)
		}
		return nil
	}

	// Interactive session: the full history is resent each turn so the
	// model keeps context.
	var history []chatMessage
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Chat session started (exit with Ctrl-D or 'exit')")

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		history = append(history, chatMessage{Role: "user", Content: line})
		reply, err := sendChat(api, chatbotID, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			history = history[:len(history)-1]
			continue
		}

		history = append(history, chatMessage{Role: "assistant", Content: reply})
		fmt.Println(reply)
	}
}

func sendChat(api *APIClient, chatbotID string, messages []chatMessage) (string, error) {
	resp, err := api.Post(fmt.Sprintf("/chatbots/%s/chat", chatbotID), map[string]interface{}{
		"messages": messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}

	var out chatResponse
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return "", fmt.Errorf("failed to parse chat response: %w", err)
	}

	return out.Reply, nil
}

// PromptCmd creates the prompt command.
func PromptCmd() *cobra.Command {
	var chatbotID string

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Show the aggregated knowledge block",
		Long:  "Displays the knowledge text that gets spliced into the chatbot's system prompt.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runPrompt(chatbotID, outputJSON)
		},
	}

	cmd.Flags().StringVar(&chatbotID, "chatbot", "", "Override chatbot ID from config")

	return cmd
}

func runPrompt(chatbotID string, outputJSON bool) error {
	if chatbotID == "" {
		config, err := LoadConfig()
		if err != nil {
			return err
		}
		chatbotID = config.ChatbotID
	}

	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/chatbots/%s/prompt", chatbotID))
	if err != nil {
		return fmt.Errorf("failed to get prompt: %w", err)
	}

	var out promptResponse
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(output))
	} else if out.Knowledge == "" {
		fmt.Println("(no active knowledge sources)")
	} else {
		fmt.Println(out.Knowledge)
	}

	return nil
}
