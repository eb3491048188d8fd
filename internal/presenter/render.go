package presenter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"IncomeLens/internal/sorting"
)

const EmptyResultNotice = "No records match the current filters."

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	loadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa"))
)

// FormatMoney renders whole currency units with thousands separators, e.g. $383,285,000,000.
func FormatMoney(v int64) string {
	s := humanize.Comma(v)
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// FormatEPS renders earnings per share with two fractional digits.
func FormatEPS(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// Render writes a terminal view of snap to w.
func Render(w io.Writer, snap Snapshot) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Income statements") + "\n\n")

	renderPanels(&b, snap)
	if snap.ShowClearFilters {
		b.WriteString(mutedStyle.Render("[clear] remove all filters") + "\n")
	}
	b.WriteString("\n")

	switch {
	case snap.ShowLoading:
		b.WriteString(loadingStyle.Render("Loading...") + "\n")
	case snap.ShowError:
		b.WriteString(errorStyle.Render("Error: "+snap.Message) + "\n")
		b.WriteString(mutedStyle.Render("[retry] try loading again") + "\n")
	case snap.ShowTable:
		if err := renderTable(&b, snap); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderPanels(b *strings.Builder, snap Snapshot) {
	for _, p := range AllPanels {
		min, max := p.fields()
		if !snap.Panels[p] {
			fmt.Fprintf(b, "[+] %s\n", p.title())
			continue
		}
		fmt.Fprintf(b, "[-] %s\n", p.title())
		fmt.Fprintf(b, "    min: %s\n", boundText(snap.Filters[min]))
		fmt.Fprintf(b, "    max: %s\n", boundText(snap.Filters[max]))
	}
}

func boundText(v string) string {
	if v == "" {
		return mutedStyle.Render("(any)")
	}
	return v
}

func renderTable(b *strings.Builder, snap Snapshot) error {
	if snap.ShowEmpty {
		b.WriteString(mutedStyle.Render(EmptyResultNotice) + "\n")
		return nil
	}

	tw := tabwriter.NewWriter(b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
		header(snap, "Date", sorting.KeyDate),
		header(snap, "Revenue", sorting.KeyRevenue),
		header(snap, "Net income", sorting.KeyNetIncome),
		"Gross profit", "EPS", "Operating income")
	for _, r := range snap.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Date,
			FormatMoney(r.Revenue),
			FormatMoney(r.NetIncome),
			FormatMoney(r.GrossProfit),
			FormatEPS(r.EPS),
			FormatMoney(r.OperatingIncome))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(b, "\n%d of %d records\n", len(snap.Rows), snap.Total)
	return nil
}

func header(snap Snapshot, title string, key sorting.Key) string {
	if ind := snap.sort.Indicator(key); ind != "" {
		return title + " " + ind
	}
	return title
}
