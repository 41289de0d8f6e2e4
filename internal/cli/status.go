package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/soyeahso/llmbridge/internal/config"
	"github.com/soyeahso/llmbridge/internal/provider"
	"github.com/soyeahso/llmbridge/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show llmbridge status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "llmbridge %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(w, "Config:    %s", paths.Config)
			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Fprint(w, " (not found, using defaults)")
			}
			fmt.Fprintln(w)
			db := paths.DB
			if cfg.Usage.Ledger != "" {
				db = cfg.Usage.Ledger
			}
			fmt.Fprintf(w, "Database:  %s\n\n", db)

			fmt.Fprintf(w, "Provider:  %s\n", cfg.Provider)
			fmt.Fprintf(w, "Model:     %s\n", cfg.ModelFor(cfg.Provider))
			if cat, err := cfg.BuildCatalog(); err == nil {
				fmt.Fprintf(w, "Fallback:  %s\n", strings.Join(cat.Sequence(cfg.Provider), " -> "))
			}
			if _, err := provider.Transport(cfg.Provider, cfg); err != nil {
				fmt.Fprintf(w, "Auth:      %v\n", err)
			} else {
				fmt.Fprintln(w, "Auth:      ok")
			}

			usage := "off"
			if cfg.Usage.TrackingEnabled() {
				usage = "sqlite ledger"
				if cfg.Usage.Redis != nil {
					usage = "redis " + cfg.Usage.Redis.Addr
				}
			}
			fmt.Fprintf(w, "Usage:     %s (estimator %s)\n", usage, cfg.Usage.Estimator)
			fmt.Fprintf(w, "Window:    chatSize=%d maxToolRounds=%d maxAttempts=%d\n",
				cfg.Conversation.ChatSize, cfg.Conversation.MaxToolRounds, cfg.Retry.MaxAttempts)

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(w, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(w, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}
