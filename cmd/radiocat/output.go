package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/justestif/go-radio-catalog/internal/library"
	"github.com/justestif/go-radio-catalog/internal/reference"
	"github.com/justestif/go-radio-catalog/internal/resolver"
)

func statusColor(s resolver.Status) func(a ...interface{}) string {
	switch s {
	case resolver.StatusLocal:
		return color.New(color.FgGreen).SprintFunc()
	case resolver.StatusReference:
		return color.New(color.FgCyan).SprintFunc()
	default:
		return color.New(color.FgRed).SprintFunc()
	}
}

func printMatches(w io.Writer, matches []resolver.Match) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Track", "Status", "Score", "Target"})
	table.SetAutoWrapText(false)

	for _, m := range matches {
		target := m.Path
		if target == "" && m.ReferenceID != "" {
			target = reference.NetSearchScheme + m.ReferenceID
		}
		score := strconv.FormatFloat(m.Score, 'f', 1, 64)
		if m.Rescued {
			score += "*"
		}
		table.Append([]string{
			m.Row.Display(),
			statusColor(m.Status())(string(m.Status())),
			score,
			target,
		})
	}
	table.Render()
	printSummary(w, matches)
}

func printSummary(w io.Writer, matches []resolver.Match) {
	s := resolver.Summarize(matches)
	fmt.Fprintf(w, "%d tracks: %s local, %s reference, %s missing (%d rescued by duration)\n",
		s.Total,
		color.GreenString("%d", s.Local),
		color.CyanString("%d", s.Reference),
		color.RedString("%d", s.Missing),
		s.Rescued)
}

func printScanStats(w io.Writer, stats library.ScanStats, total int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Seen", "Reused", "Parsed", "Unkeyed", "Failed", "Removed", "Searchable"})
	table.Append([]string{
		strconv.Itoa(stats.Seen),
		strconv.Itoa(stats.Reused),
		strconv.Itoa(stats.Parsed),
		strconv.Itoa(stats.Unkeyed),
		strconv.Itoa(stats.Failed),
		strconv.Itoa(stats.Removed),
		strconv.Itoa(stats.Searchable),
	})
	table.Render()
	fmt.Fprintf(w, "%d files indexed\n", total)
}
