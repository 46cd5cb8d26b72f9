// Package cli is the intellicrawl command tree.
//
// Every subcommand loads configuration on its own, so `version` works on a
// machine with no config at all. Output meant for scripts goes to the
// command's stdout; logs go to stderr.
package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/intellicrawl/internal/config"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
	envFile    string
}

// load reads configuration and builds the logger for one command run.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(config.Options{ConfigFile: o.configFile, EnvFile: o.envFile})
	if err != nil {
		return nil, nil, err
	}
	return cfg, cfg.Log.NewLogger(cmd.ErrOrStderr()), nil
}

// NewRootCmd builds the full command tree. Tests drive it with SetArgs.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "intellicrawl",
		Short: "Find, enrich and keep track of GitHub developer candidates",
		Long: `IntelliCrawl searches public GitHub profiles through Tavily, extracts
candidate records from the results, and stores the ones you keep. An AI
assistant drafts outreach emails, profile analyses and similar-candidate
search strategies.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: search /etc/intellicrawl, $HOME/.intellicrawl, .)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file to load (default .env)")

	root.AddCommand(
		newServeCmd(opts),
		newSearchCmd(opts),
		newReconcileCmd(opts),
		newTokenCmd(opts),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree with ctx, which cancels on shutdown signals.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
