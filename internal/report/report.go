// Package report renders a read-only terminal dashboard of the day's
// scores and the training-load trend. It has no interactivity; it
// formats what the scoring core computed.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"veloready/internal/analysis"
	"veloready/internal/store"
)

// Colors
var (
	primaryColor = lipgloss.Color("#7C3AED") // Purple
	greenColor   = lipgloss.Color("#10B981")
	amberColor   = lipgloss.Color("#F59E0B")
	redColor     = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Bold(true)

	noDataStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)

// Render formats the day's record plus the load trend as a dashboard.
func Render(date string, rec *store.ScoreRecord, trend []store.TrainingLoadPoint) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("veloready " + date))
	b.WriteString("\n")

	var recovery, sleep, strain *store.FamilyScore
	if rec != nil {
		recovery, sleep, strain = rec.Recovery, rec.Sleep, rec.Strain
	}
	scores := lipgloss.JoinHorizontal(lipgloss.Top,
		scoreCard("Recovery", recovery),
		scoreCard("Sleep", sleep),
		scoreCard("Strain", strain),
	)
	b.WriteString(scores)
	b.WriteString("\n\n")

	b.WriteString(loadSection(trend))
	return b.String()
}

// scoreCard renders one family's score and band. A nil family or nil
// score renders the explicit insufficient-data state, never a number.
func scoreCard(name string, f *store.FamilyScore) string {
	var body string
	if f == nil || f.Score == nil {
		body = noDataStyle.Render("insufficient data")
	} else {
		body = fmt.Sprintf("%s %s",
			valueStyle.Foreground(bandColor(f.Band)).Render(fmt.Sprintf("%.0f", *f.Score)),
			labelStyle.Render(f.Band))
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render(name), body))
}

func bandColor(band string) lipgloss.Color {
	switch band {
	case analysis.BandRecoveryGreen, analysis.BandRecoveryPeak,
		analysis.BandSleepGood, analysis.BandSleepExcellent,
		analysis.BandStrainLight:
		return greenColor
	case analysis.BandRecoveryAmber, analysis.BandSleepFair,
		analysis.BandStrainModerate, analysis.BandStrainHard:
		return amberColor
	case analysis.BandRecoveryRed, analysis.BandSleepPoor,
		analysis.BandStrainVeryHard:
		return redColor
	default:
		return mutedColor
	}
}

// loadSection plots the CTL/ATL trend and summarizes today's form.
func loadSection(trend []store.TrainingLoadPoint) string {
	if len(trend) == 0 {
		return noDataStyle.Render("no training load history")
	}

	ctl := make([]float64, len(trend))
	atl := make([]float64, len(trend))
	for i, p := range trend {
		ctl[i] = p.CTL
		atl[i] = p.ATL
	}

	graph := asciigraph.PlotMany([][]float64{ctl, atl},
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Precision(1),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
		asciigraph.SeriesLegends("fitness (CTL)", "fatigue (ATL)"),
	)

	latest := trend[len(trend)-1]
	summary := fmt.Sprintf("CTL %.1f  ATL %.1f  TSB %+.1f  %s",
		latest.CTL, latest.ATL, latest.TSB(), analysis.FormDescription(latest.TSB()))

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Training Load"),
		graph,
		"",
		valueStyle.Render(summary),
	)
}
