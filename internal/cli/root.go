package cli

import (
	"github.com/soyeahso/llmbridge/internal/config"
	"github.com/soyeahso/llmbridge/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	cfg   config.Config
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "llmbridge",
		Short: "llmbridge: one interface to hosted language models",
		Long: "llmbridge sends conversations to Bedrock, Anthropic, Mistral or Ollama models " +
			"with tool calling, automatic model fallback and token cost tracking.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			cfg, err = config.Load(paths.Config)
			if err != nil {
				return err
			}
			level := logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			log = logging.NewStyled(nil, level, cfg.Logging.ConsoleStyle)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.llmbridge/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newModelsCmd())
	cmd.AddCommand(newCostCmd())
	cmd.AddCommand(newUsageCmd())
	cmd.AddCommand(newConversationsCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
