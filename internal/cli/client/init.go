package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	botforgeDir = ".botforge"
	configFile  = "config.yaml"
	envFile     = ".env"
)

// Config is the per-workspace file under .botforge/ binding the directory
// to one chatbot
type Config struct {
	ChatbotID   string `yaml:"chatbot_id"`
	ChatbotName string `yaml:"chatbot_name,omitempty"`
}

func InitCmd() *cobra.Command {
	var chatbotName string
	var instructions string
	var apiKey string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a botforge workspace",
		Long:  "Creates the .botforge/ directory, config.yaml, and .env with API key, and registers a chatbot.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runInit(chatbotName, instructions, apiKey, apiURL, outputJSON)
		},
	}

	cmd.Flags().StringVar(&chatbotName, "chatbot", "", "Chatbot name (auto-generated from directory name if not provided)")
	cmd.Flags().StringVar(&instructions, "instructions", "You are a helpful assistant for this website.", "System instructions for the chatbot")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "API base URL (default: http://localhost:8080)")

	return cmd
}

func runInit(chatbotName, instructions, apiKey, apiURL string, outputJSON bool) error {
	if _, err := os.Stat(botforgeDir); err == nil {
		return fmt.Errorf(".botforge directory already exists")
	}

	apiKey, apiURL, err := resolveInitCredentials(apiKey, apiURL)
	if err != nil {
		return err
	}

	if chatbotName == "" {
		cwd, _ := os.Getwd()
		chatbotName = filepath.Base(cwd)
	}

	envData := fmt.Sprintf("BOTFORGE_API_KEY=%s\nBOTFORGE_API_URL=%s\n", apiKey, apiURL)
	if err := os.WriteFile(envFile, []byte(envData), 0600); err != nil {
		return fmt.Errorf("failed to create .env: %w", err)
	}

	chatbot, err := registerChatbot(apiKey, apiURL, chatbotName, instructions)
	if err != nil {
		os.Remove(envFile)
		return err
	}

	configPath, err := writeWorkspaceConfig(Config{ChatbotID: chatbot.ID, ChatbotName: chatbot.Name})
	if err != nil {
		return err
	}

	if outputJSON {
		result := map[string]interface{}{
			"success":      true,
			"chatbot_id":   chatbot.ID,
			"chatbot_name": chatbot.Name,
			"config":       configPath,
			"env":          envFile,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Initialized botforge workspace for chatbot '%s'\n", chatbot.Name)
		fmt.Printf("Chatbot ID: %s\n", chatbot.ID)
		fmt.Printf("Config saved to %s\n", configPath)
	}

	return nil
}

// resolveInitCredentials fills missing credentials from the environment,
// falling back to an interactive prompt for the key.
func resolveInitCredentials(apiKey, apiURL string) (string, string, error) {
	_ = godotenv.Load()

	if apiKey == "" {
		apiKey = os.Getenv(envAPIKey)
	}
	if apiKey == "" {
		fmt.Print("Enter API key: ")
		input, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("failed to read API key: %w", err)
		}
		apiKey = strings.TrimSpace(input)
		if apiKey == "" {
			return "", "", fmt.Errorf("API key is required")
		}
	}

	if apiURL == "" {
		apiURL = os.Getenv(envAPIURL)
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return apiKey, apiURL, nil
}

type registeredChatbot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func registerChatbot(apiKey, apiURL, name, instructions string) (*registeredChatbot, error) {
	api, err := NewAPIClientWithConfig(apiKey, apiURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	resp, err := api.Post("/chatbots", map[string]string{
		"name":         name,
		"instructions": instructions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chatbot: %w", err)
	}

	var chatbot registeredChatbot
	if err := json.Unmarshal(resp.Data, &chatbot); err != nil {
		return nil, fmt.Errorf("failed to parse chatbot response: %w", err)
	}
	return &chatbot, nil
}

func writeWorkspaceConfig(cfg Config) (string, error) {
	if err := os.MkdirAll(botforgeDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create .botforge directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	configPath := filepath.Join(botforgeDir, configFile)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to create config.yaml: %w", err)
	}
	return configPath, nil
}

// LoadConfig reads the workspace config from .botforge/config.yaml.
func LoadConfig() (*Config, error) {
	configPath := filepath.Join(botforgeDir, configFile)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("not a botforge workspace (run 'botforge init' first)")
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if config.ChatbotID == "" {
		return nil, fmt.Errorf("invalid config: chatbot_id not found")
	}

	return &config, nil
}
