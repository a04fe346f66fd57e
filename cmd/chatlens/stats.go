package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Zuo-Peng/chatlens/internal/analytics"
	"github.com/Zuo-Peng/chatlens/internal/config"
	"github.com/Zuo-Peng/chatlens/internal/index"
	"github.com/Zuo-Peng/chatlens/internal/parse"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	statsTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statsHeader = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	statsCell   = lipgloss.NewStyle().Padding(0, 1)
)

func statsCmd() *cobra.Command {
	var user string
	var top int

	cmd := &cobra.Command{
		Use:   "stats <importKey | export.txt>",
		Short: "Show message counts, activity by weekday and hour, and top senders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadStatsRecords(args[0])
			if err != nil {
				return err
			}

			sum := analytics.Summarize(analytics.Filter(records, user))
			printStats(sum, top)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Only count messages of this sender (Overall = everyone)")
	cmd.Flags().IntVar(&top, "top", 10, "Rows to show in the sender and timeline tables")

	return cmd
}

// loadStatsRecords reads an export file directly when arg names one, and
// otherwise treats arg as an import key in the index.
func loadStatsRecords(arg string) ([]parse.Record, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		result, err := parse.ParseFile(arg)
		if err != nil {
			return nil, err
		}
		return result.Records, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := index.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	imp, err := db.GetImport(arg)
	if err != nil {
		return nil, err
	}
	if imp == nil {
		return nil, fmt.Errorf("import not found: %s", arg)
	}
	return db.Records(arg)
}

func printStats(sum analytics.Summary, top int) {
	totals := newTable("Metric", "Value").Rows(
		[]string{"Messages", strconv.Itoa(sum.Messages)},
		[]string{"Words", strconv.Itoa(sum.Words)},
		[]string{"Media", strconv.Itoa(sum.Media)},
		[]string{"Links", strconv.Itoa(sum.Links)},
		[]string{"Notifications", strconv.Itoa(sum.Notifications)},
	)
	fmt.Println(statsTitle.Render("Totals"))
	fmt.Println(totals)

	sections := []struct {
		title  string
		counts []analytics.Count
		limit  int
	}{
		{"Senders", sum.Users, top},
		{"Weekdays", sum.DayNames, 0},
		{"Hours", sum.Periods, 0},
		{"Months", sum.Monthly, top},
	}
	for _, sec := range sections {
		if len(sec.counts) == 0 {
			continue
		}
		fmt.Println()
		fmt.Println(statsTitle.Render(sec.title))
		fmt.Println(countTable(sec.counts, sec.limit))
	}
}

func countTable(counts []analytics.Count, limit int) *table.Table {
	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	t := newTable("", "Count")
	for _, c := range counts {
		t.Row(c.Key, strconv.Itoa(c.Count))
	}
	return t
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return statsHeader
			}
			return statsCell
		})
}
