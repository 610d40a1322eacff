package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/credence/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Version is the credence release reported by the version command
const Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "credence",
	Short: "Credence - claim credibility analysis from independent signals",
	Long: `Credence estimates how credible a claim is by combining independent signals:

- source credibility of the publishing domain
- sensational or manipulative tone of the text
- whether attached media is used in its original context
- whether attached media shows signs of manipulation

The signals are fused by weighted average into a score and a verdict.
Credence is a heuristic aid, not a fact-check.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Commands stop when ctx is cancelled.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of credence.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "credence %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.credence/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := setDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading defaults: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".credence"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// CREDENCE_HTTP_TIMEOUT overrides http.timeout
	viper.SetEnvPrefix("CREDENCE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range optionalKeys {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", cfgFile, err)
	}
}

// optionalKeys are omitted from the marshaled defaults when empty
var optionalKeys = []string{
	"source.threat.api_key",
	"source.threat.base_url",
	"source.threat.blocklist_file",
	"context.describer.model",
	"context.describer.api_key",
	"context.describer.base_url",
	"context.describer.captions_file",
	"authenticity.list_file",
	"http.http_proxy",
	"http.https_proxy",
	"http.no_proxy",
}

// setDefaults registers every key of cfg with v so that environment
// variables can override keys the config file does not mention
func setDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	for key, value := range flatten("", tree) {
		v.SetDefault(key, value)
	}
	return nil
}

func flatten(prefix string, tree map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok && len(sub) > 0 {
			for sk, sv := range flatten(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = v
	}
	return out
}

// loadConfig resolves the effective configuration from defaults, the config
// file and CREDENCE_* variables, then applies provider key variables
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyProviderEnv(cfg, os.Getenv)
	if cfg.Output.Verbose && cfg.Log.Level == model.DefaultConfig().Log.Level {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// applyProviderEnv fills credentials left empty by the configuration from
// the conventional provider variables
func applyProviderEnv(cfg *model.Config, getenv func(string) string) {
	d := &cfg.Context.Describer
	switch strings.ToLower(d.Provider) {
	case "openai":
		if d.APIKey == "" {
			d.APIKey = getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if d.APIKey == "" {
			d.APIKey = getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if d.BaseURL == "" {
			d.BaseURL = getenv("OLLAMA_BASE_URL")
		}
	}

	t := &cfg.Source.Threat
	if strings.EqualFold(t.Provider, "safebrowsing") && t.APIKey == "" {
		t.APIKey = getenv("SAFE_BROWSING_API_KEY")
	}
}
