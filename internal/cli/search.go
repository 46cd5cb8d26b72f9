package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/intellicrawl/internal/model"
	"github.com/sakif/intellicrawl/internal/server"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		q            model.SearchQuery
		minFollowers int
		maxResults   int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search GitHub profiles and print the candidates as JSON",
		Example: `  intellicrawl search "backend engineer" --location Berlin --language Go
  intellicrawl search "ml researcher" --max-results 20 --enrich --save`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}

			q.Query = strings.Join(args, " ")
			if cmd.Flags().Changed("min-followers") {
				q.MinFollowers = &minFollowers
			}
			if cmd.Flags().Changed("max-results") {
				q.MaxResults = &maxResults
			}

			ctx := cmd.Context()
			app, err := server.NewApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Search.Search(ctx, q)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	f := cmd.Flags()
	f.StringVar(&q.Location, "location", "", "restrict to a location")
	f.StringSliceVar(&q.Languages, "language", nil, "required language (repeatable)")
	f.IntVar(&minFollowers, "min-followers", 0, "minimum follower count")
	f.IntVar(&maxResults, "max-results", 0, "results to request (default 10, max 20)")
	f.BoolVar(&q.Enrich, "enrich", false, "fill profiles from the GitHub API")
	f.BoolVar(&q.Save, "save", false, "save every candidate found")
	return cmd
}
