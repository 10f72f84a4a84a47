package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/policyrag/internal/app"
	"github.com/kailas-cloud/policyrag/internal/domain/answer"
)

func newAskCmd(opts *options) *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question with cited policy passages",
		Example: `  policyragctl ask "음주운전 사고부담금은 얼마인가요?"
  policyragctl ask --scope DB손해보험 "자기부담금"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			return withApp(cmd.Context(), opts, func(a *app.App) error {
				ans, err := a.Pipeline.Answer(cmd.Context(), question, scope)
				if err != nil {
					return fmt.Errorf("answer: %w", err)
				}
				if opts.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), ans)
				}
				printAnswer(cmd.OutOrStdout(), ans)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "Restrict retrieval to one insurer")

	return cmd
}

func printAnswer(w io.Writer, a answer.Answer) {
	fmt.Fprintln(w, a.Text)
	if len(a.References) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "근거:")
		for i, r := range a.References {
			fmt.Fprintf(w, "  [%d] %s p.%d (%.2f)\n", i+1, r.Source, r.Page, r.Score)
		}
	}
	if a.Cached {
		fmt.Fprintln(w, "(cached)")
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
