package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"compensation-engine/internal/config"
	"compensation-engine/internal/paramtable"
)

func tablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Inspect parameter tables",
	}
	cmd.AddCommand(tablesListCmd(), tablesCheckCmd())
	return cmd
}

func tablesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the parameter table rows of the configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := cfg.Sources()
			if err != nil {
				return err
			}
			store, err := loadTables(cmd.Context(), sources)
			if err != nil {
				return err
			}

			snap := store.Snapshot()
			if _, err := fmt.Fprint(cmd.OutOrStdout(), snapshotTable(snap)); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d rows, revision %s\n", snap.Len(), snap.Revision())
			return err
		},
	}
}

func tablesCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file...]",
		Short: "Validate table files, or the configured sources when none are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			var sources []paramtable.Source
			if len(args) == 0 {
				var err error
				if sources, err = cfg.Sources(); err != nil {
					return err
				}
			}
			for _, f := range args {
				src, err := config.FileSource(f)
				if err != nil {
					return err
				}
				sources = append(sources, src)
			}

			store, err := loadTables(cmd.Context(), sources)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok: %d rows from %d sources, revision %s\n",
				store.Snapshot().Len(), len(sources), store.Snapshot().Revision())
			return err
		},
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	sepStyle    = lipgloss.NewStyle().Faint(true)
)

var tableHeaders = []string{"KEY", "DISPOSABLE", "CONSUMPTION", "AVERAGE WAGE", "VERSION", "SOURCE"}

// snapshotTable renders one line per table row with columns sized to the
// widest cell.
func snapshotTable(snap *paramtable.Snapshot) string {
	var rows [][]string
	for _, k := range snap.Keys() {
		row, _ := snap.Lookup(k)
		rows = append(rows, []string{
			k.String(),
			row.DisposableIncome.String(),
			row.ConsumptionExpenditure.String(),
			row.AverageWage.String(),
			row.Version,
			row.Source,
		})
	}

	widths := make([]int, len(tableHeaders))
	for i, h := range tableHeaders {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	total := len(widths) - 1
	for i := range widths {
		// room for the horizontal padding
		widths[i] += 2
		total += widths[i]
	}

	var sb strings.Builder
	writeLine := func(style lipgloss.Style, cells []string) {
		for i, cell := range cells {
			sb.WriteString(style.Width(widths[i]).Render(cell))
			if i < len(cells)-1 {
				sb.WriteString(sepStyle.Render("|"))
			}
		}
		sb.WriteString("\n")
	}

	writeLine(headerStyle, tableHeaders)
	sb.WriteString(sepStyle.Render(strings.Repeat("-", total)) + "\n")
	for _, row := range rows {
		writeLine(cellStyle, row)
	}
	return sb.String()
}

func loadTables(ctx context.Context, sources []paramtable.Source) (*paramtable.Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	store := paramtable.NewStore(logger)
	if err := store.Load(ctx, sources...); err != nil {
		return nil, err
	}
	return store, nil
}
