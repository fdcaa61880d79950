package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/dvloznov/decision-ease/internal/notice"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// labelStyle colours a credit-status label by severity.
func labelStyle(l notice.Label) lipgloss.Style {
	switch l {
	case notice.LabelAttention:
		return errorStyle
	case notice.LabelReviewNeeded:
		return warningStyle
	default:
		return titleStyle
	}
}

func yen(amount int64) string {
	return "¥" + humanize.Comma(amount)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeLine(w io.Writer, a ...interface{}) {
	_, _ = fmt.Fprintln(w, a...)
}
