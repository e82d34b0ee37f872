package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/dvloznov/nett/internal/domain"
)

var (
	chargeColor = lipgloss.Color("#f38ba8")
	incomeColor = lipgloss.Color("#a6e3a1")
	mutedColor  = lipgloss.Color("#7f849c")
)

// palette holds the styles for one output stream. Colors are dropped when the
// stream is not a color terminal.
type palette struct {
	charge lipgloss.Style
	income lipgloss.Style
	muted  lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	return palette{
		charge: r.NewStyle().Foreground(chargeColor),
		income: r.NewStyle().Foreground(incomeColor),
		muted:  r.NewStyle().Foreground(mutedColor),
	}
}

// amount renders a formatted amount in its tone's color. Income keeps a "+"
// so the tone survives on monochrome output.
func (p palette) amount(formatted string, tone domain.Tone) string {
	switch tone {
	case domain.ToneCharge:
		return p.charge.Render(formatted)
	case domain.ToneIncome:
		return p.income.Render("+" + formatted)
	default:
		return formatted
	}
}
