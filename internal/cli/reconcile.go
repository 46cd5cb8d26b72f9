package cli

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/sakif/intellicrawl/internal/reconcile"
	"github.com/sakif/intellicrawl/internal/server"
)

type reconcileReport struct {
	reconcile.Result
	Remaining int `json:"remaining"`
}

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Replay fallback-only writes into the primary store once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := server.NewApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			if !app.Store.HasPrimary() {
				return errors.New("no primary store available, set store.databaseURL or DATABASE_URL")
			}

			res, err := app.Reconciler.Run(ctx)
			if err != nil {
				return err
			}
			remaining, err := app.Fallback.CountPending(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reconcileReport{Result: res, Remaining: remaining})
		},
	}
}
