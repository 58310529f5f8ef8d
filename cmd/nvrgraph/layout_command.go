package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"nvrgraph/internal/failures"
	"nvrgraph/internal/pipeline"
)

func newLayoutCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "layout <channels>",
		Short:       "Show where each channel lands on the composited canvas",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil {
				return failures.Wrap(failures.ErrValidation, "layout", "parse channels",
					fmt.Sprintf("%q is not a channel count", args[0]), nil)
			}
			placements, err := pipeline.Plan(n)
			if err != nil {
				return err
			}
			width, height := pipeline.Canvas(n)

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, struct {
					Channels int                  `json:"channels"`
					Side     int                  `json:"grid_side"`
					Canvas   canvasJSON           `json:"canvas"`
					Layout   []pipeline.Placement `json:"layout"`
				}{
					Channels: n,
					Side:     pipeline.GridSide(n),
					Canvas:   canvasJSON{Width: width, Height: height},
					Layout:   placements,
				})
			}

			rows := make([][]string, 0, len(placements))
			for _, p := range placements {
				rows = append(rows, []string{
					strconv.Itoa(p.Channel),
					strconv.Itoa(p.X),
					strconv.Itoa(p.Y),
				})
			}
			title := fmt.Sprintf("%dx%d grid", pipeline.GridSide(n), pipeline.GridSide(n))
			fmt.Fprintln(out, renderTable(title, []string{"Channel", "X", "Y"}, rows,
				[]columnAlignment{alignRight, alignRight, alignRight}))
			fmt.Fprintf(out, "Canvas: %dx%d (tile %dx%d)\n", width, height, pipeline.TileWidth, pipeline.TileHeight)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the layout as JSON")
	return cmd
}
