package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rekindle/rekindle/internal/adapter"
	"github.com/rekindle/rekindle/internal/config"
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive AI provider configuration",
		Long:  "Choose the AI provider used for conversation starters and store its credentials.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return fmt.Errorf("locate config: %w", err)
			}
			cfg, err := loadConfig()
			if err != nil {
				cfg = config.Default()
			}

			if err := runSetup(cmd.InOrStdin(), cmd.OutOrStdout(), &cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(path, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", path)
			return nil
		},
	}
}

// runSetup asks for a provider and its settings and updates cfg.
func runSetup(in io.Reader, out io.Writer, cfg *config.Config) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "Which AI provider should write your conversation starters?")
	fmt.Fprintln(out, "  [1] OpenAI")
	fmt.Fprintln(out, "  [2] Azure OpenAI")
	fmt.Fprintln(out, "  [3] Claude (Anthropic)")
	fmt.Fprintln(out, "  [4] Ollama (local)")
	fmt.Fprint(out, "> ")

	switch readLineBuf(reader) {
	case "1":
		cfg.AI.Provider = adapter.ProviderOpenAI
		fmt.Fprint(out, "OpenAI API key (or press Enter to set OPENAI_API_KEY later): ")
		if key := readLineBuf(reader); key != "" {
			cfg.Keys.OpenAI = key
		}
	case "2":
		cfg.AI.Provider = adapter.ProviderAzure
		fmt.Fprint(out, "Azure endpoint (https://<resource>.openai.azure.com): ")
		cfg.Azure.Endpoint = readLineBuf(reader)
		fmt.Fprint(out, "Deployment name: ")
		cfg.Azure.Deployment = readLineBuf(reader)
		fmt.Fprint(out, "API key (or press Enter to set AZURE_OPENAI_KEY later): ")
		if key := readLineBuf(reader); key != "" {
			cfg.Keys.Azure = key
		}
	case "3":
		cfg.AI.Provider = adapter.ProviderClaude
		fmt.Fprint(out, "Anthropic API key (or press Enter to set ANTHROPIC_API_KEY later): ")
		if key := readLineBuf(reader); key != "" {
			cfg.Keys.Anthropic = key
		}
	case "4":
		cfg.AI.Provider = adapter.ProviderOllama
		fmt.Fprintf(out, "Ollama host (press Enter for %s): ", cfg.Ollama.Host)
		if host := readLineBuf(reader); host != "" {
			cfg.Ollama.Host = host
		}
	default:
		fmt.Fprintln(out, "Unrecognized choice; keeping", cfg.AI.Provider)
		return nil
	}

	fmt.Fprint(out, "Model (press Enter for the provider default): ")
	if model := readLineBuf(reader); model != "" {
		cfg.AI.Model = model
	}
	return nil
}

// readLineBuf reads a trimmed line from a bufio.Reader.
func readLineBuf(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}
