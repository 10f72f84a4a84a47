package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/policyrag/internal/app"
	"github.com/kailas-cloud/policyrag/internal/domain/text"
	"github.com/kailas-cloud/policyrag/internal/usecase/retrieval"
)

// previewRunes is how much passage text the table shows.
const previewRunes = 60

func newSearchCmd(opts *options) *cobra.Command {
	var req retrieval.SearchRequest

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Show ranked, deduplicated evidence for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Query = strings.Join(args, " ")
			return withApp(cmd.Context(), opts, func(a *app.App) error {
				res, err := a.Pipeline.Search(cmd.Context(), req)
				if err != nil {
					return fmt.Errorf("search: %w", err)
				}
				if opts.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), res)
				}
				printSearch(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&req.TopK, "top-k", 0, "Results to return (default from config)")
	cmd.Flags().IntVar(&req.CandidateK, "candidate-k", 0, "Candidates per retrieval path (default from config)")
	cmd.Flags().StringVar(&req.Scope, "scope", "", "Restrict retrieval to one insurer")

	return cmd
}

func printSearch(w io.Writer, res retrieval.SearchResult) {
	fmt.Fprintf(w, "%d results (%d candidates)", len(res.Results), res.TotalCandidates)
	if res.Degraded {
		fmt.Fprint(w, ", lexical only")
	}
	if res.Company != "" {
		fmt.Fprintf(w, ", company %s", res.Company)
	}
	fmt.Fprintln(w)
	for i, c := range res.Results {
		preview, cut := text.Truncate(c.Text, previewRunes)
		if cut {
			preview += "…"
		}
		fmt.Fprintf(w, "%2d. %.3f %-16s %s p.%d\n    %s\n",
			i+1, c.Confidence, c.Origin, c.Source.Document, c.Source.Page, preview)
	}
}
