package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"edu-quiz-service/internal/app"
	"github.com/spf13/cobra"
)

// NewResultsCmd prints recorded results in insertion order.
func NewResultsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "results",
		Short: "List recorded quiz results",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			return printResults(cmd.Context(), cmd.OutOrStdout(), rt.content)
		},
	}
}

func printResults(ctx context.Context, out io.Writer, content *app.Content) error {
	results, err := content.Results(ctx)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "no results recorded yet")
		return nil
	}

	names, err := scopeNames(ctx, content)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tPLAYER\tSUBJECT\tLEVEL\tTOPIC\tSCORE")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d / %d\n",
			r.Date.Local().Format(time.DateTime),
			orDash(r.PlayerName),
			names.label(r.SubjectID),
			names.label(r.LevelID),
			names.label(r.TopicID),
			r.Score, r.Total,
		)
	}
	return w.Flush()
}

// idNames resolves ids to display names; deleted entries show their id.
type idNames map[string]string

func (n idNames) label(id string) string {
	if name, ok := n[id]; ok {
		return name
	}
	return orDash(id)
}

func scopeNames(ctx context.Context, content *app.Content) (idNames, error) {
	names := idNames{}
	subjects, err := content.Subjects(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range subjects {
		names[s.ID] = s.Name
	}
	levels, err := content.Levels(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range levels {
		names[l.ID] = l.Name
	}
	topics, err := content.Topics(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range topics {
		names[t.ID] = t.Name
	}
	return names, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
