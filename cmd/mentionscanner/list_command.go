package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"MentionsScanner/internal/app"
	"MentionsScanner/internal/domain"
	"MentionsScanner/internal/mentions"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every parsed episode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, nil, func(application *app.Application) error {
				results, err := application.Pipeline().Results(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON || !isTerminal(cmd.OutOrStdout()) {
					return writeJSON(cmd, results)
				}
				if len(results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No parsed episodes")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderList(results))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON even on a terminal")
	return cmd
}

func renderList(results []domain.EpisodeResult) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.EpisodeID,
			strconv.Itoa(len(r.Products)),
			strconv.Itoa(countTag(r.Products, mentions.TagNicotine)),
			strconv.Itoa(len(r.Media)),
		})
	}
	return renderTable(
		[]column{labelColumn("Episode"), countColumn("Products"), countColumn("Nicotine"), countColumn("Media")},
		rows,
	)
}

func countTag(products []domain.ProductMention, tag string) int {
	n := 0
	for _, p := range products {
		for _, t := range p.Tags {
			if t == tag {
				n++
				break
			}
		}
	}
	return n
}
