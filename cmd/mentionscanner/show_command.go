package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"MentionsScanner/internal/app"
	"MentionsScanner/internal/domain"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <video-id>",
		Short: "Display the parsed result of an episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, nil, func(application *app.Application) error {
				result, err := application.Pipeline().Result(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON || !isTerminal(cmd.OutOrStdout()) {
					return writeJSON(cmd, result)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderResult(result))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON even on a terminal")
	return cmd
}

func renderResult(result domain.EpisodeResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Episode %s\n\n", result.EpisodeID)

	if len(result.Products) == 0 {
		sb.WriteString("No product mentions\n")
	} else {
		rows := make([][]string, 0, len(result.Products))
		for _, p := range result.Products {
			rows = append(rows, []string{formatTimestamp(p.T), p.Name, strings.Join(p.Tags, ", "), p.Context})
		}
		sb.WriteString(renderTable(
			[]column{timeColumn, labelColumn("Name"), labelColumn("Tags"), excerptColumn("Context")},
			rows,
		))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if len(result.Media) == 0 {
		sb.WriteString("No media cues")
	} else {
		rows := make([][]string, 0, len(result.Media))
		for _, m := range result.Media {
			rows = append(rows, []string{formatTimestamp(m.T), string(m.Type), m.Cue})
		}
		sb.WriteString(renderTable(
			[]column{timeColumn, labelColumn("Type"), excerptColumn("Cue")},
			rows,
		))
	}

	return sb.String()
}

// formatTimestamp renders seconds as h:mm:ss, or m:ss under an hour.
func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
