package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result
// to path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to docqa! Let's configure your document store.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)
	preset := GetPreset(provider)

	// 2. Chat model.
	modelPrompt := promptui.Prompt{
		Label:   "Chat model",
		Default: preset.Model,
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Base URL, for OpenAI-compatible gateways.
	baseURLPrompt := promptui.Prompt{
		Label:   "API base URL (leave blank for the provider default)",
		Default: "",
	}
	baseURL, err := baseURLPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}

	// 4. Documents directory.
	dirPrompt := promptui.Prompt{
		Label:   "Directory for document indices",
		Default: "documents",
	}
	dir, err := dirPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("documents dir: %w", err)
	}

	// 5. Fallback encodings.
	encPrompt := promptui.Prompt{
		Label:   "Fallback encodings (comma-separated)",
		Default: strings.Join(DefaultFallbackEncodings, ","),
	}
	encStr, err := encPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("fallback encodings: %w", err)
	}

	// 6. Duplicate policy.
	dupPrompt := promptui.Select{
		Label: "Reject uploads whose name",
		Items: []string{
			"substring - contains an existing name",
			"exact     - equals an existing name",
		},
	}
	dupIdx, _, err := dupPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("duplicate policy: %w", err)
	}
	dupPolicies := []DuplicatePolicy{DuplicateSubstring, DuplicateExact}

	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = model
	cfg.BaseURL = strings.TrimSpace(baseURL)
	cfg.EmbeddingProvider = provider
	cfg.EmbeddingModel = preset.EmbeddingModel
	cfg.Store.Dir = dir
	cfg.Store.FallbackEncodings = splitAndTrim(encStr)
	cfg.Store.Duplicates = dupPolicies[dupIdx]

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check for API key.
	envVar := APIKeyEnvVar(provider)
	if envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment (or a .env file) before uploading documents.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and drops empty entries.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
