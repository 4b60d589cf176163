package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GlobalConfig is the credential file written by `botforge auth login`,
// stored as config.json under the user config directory.
type GlobalConfig struct {
	APIKey string `json:"api_key"`
	APIURL string `json:"api_url"`
}

// userConfigDir is a test seam over os.UserConfigDir.
var userConfigDir = os.UserConfigDir

// GetConfigDir returns the botforge directory under the platform config root.
func GetConfigDir() (string, error) {
	root, err := userConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(root, "botforge"), nil
}

// GetConfigPath returns the full path of the credential file.
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadGlobalConfig reads the credential file. A missing file is not an
// error; it returns a nil config.
func LoadGlobalConfig() (*GlobalConfig, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config GlobalConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

// SaveGlobalConfig writes the credential file with owner-only permissions.
func SaveGlobalConfig(config *GlobalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	dir, err := GetConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DeleteGlobalConfig removes the credential file. Deleting a file that is
// already gone succeeds.
func DeleteGlobalConfig() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// IsValidAPIKey reports whether key has the bfk_ prefix followed by 64 hex
// characters.
func IsValidAPIKey(key string) bool {
	hexPart, ok := strings.CutPrefix(key, "bfk_")
	if !ok || len(hexPart) != 64 {
		return false
	}
	for _, c := range hexPart {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// CredentialSource identifies where the active credentials came from.
type CredentialSource string

const (
	SourceFlag         CredentialSource = "flag"
	SourceEnvFile      CredentialSource = "env_file"
	SourceGlobalConfig CredentialSource = "global_config"
	SourceNone         CredentialSource = "none"
)

// Credentials is a resolved API key and URL pair plus its origin.
type Credentials struct {
	Source CredentialSource
	APIKey string
	APIURL string
}

// ResolveCredentials applies the precedence chain: explicit flags beat
// environment variables, which beat the credential file.
func ResolveCredentials(flagAPIKey, flagAPIURL string) Credentials {
	if flagAPIKey != "" && flagAPIURL != "" {
		return Credentials{Source: SourceFlag, APIKey: flagAPIKey, APIURL: flagAPIURL}
	}

	if key, url := os.Getenv(envAPIKey), os.Getenv(envAPIURL); key != "" && url != "" {
		return Credentials{Source: SourceEnvFile, APIKey: key, APIURL: url}
	}

	if config, err := LoadGlobalConfig(); err == nil && config != nil && config.APIKey != "" && config.APIURL != "" {
		return Credentials{Source: SourceGlobalConfig, APIKey: config.APIKey, APIURL: config.APIURL}
	}

	return Credentials{Source: SourceNone}
}
