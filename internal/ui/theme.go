package ui

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/jnav/internal/jsonv"
)

// Theme defines the colors used across the UI.
type Theme struct {
	KeyColor      color.Color // object keys and container openers
	StringColor   color.Color
	NumberColor   color.Color
	LiteralColor  color.Color // true, false, null
	SummaryColor  color.Color // truncated array rows
	SelectedFG    color.Color
	SelectedBG    color.Color
	PromptColor   color.Color
	CursorFG      color.Color
	CursorBG      color.Color
	StatusColor   color.Color
	StatusError   color.Color
	StatusWarning color.Color
	StatusSuccess color.Color
	FooterFG      color.Color
	HelpKey       color.Color
	HelpValue     color.Color
}

// DefaultTheme is the fixed palette.
func DefaultTheme() Theme {
	return Theme{
		KeyColor:      lipgloss.Color("81"),
		StringColor:   lipgloss.Color("114"),
		NumberColor:   lipgloss.Color("215"),
		LiteralColor:  lipgloss.Color("176"),
		SummaryColor:  lipgloss.Color("244"),
		SelectedFG:    lipgloss.Color("250"),
		SelectedBG:    lipgloss.Color("24"),
		PromptColor:   lipgloss.Color("81"),
		CursorFG:      lipgloss.Color("236"),
		CursorBG:      lipgloss.Color("250"),
		StatusColor:   lipgloss.Color("244"),
		StatusError:   lipgloss.Color("203"),
		StatusWarning: lipgloss.Color("221"),
		StatusSuccess: lipgloss.Color("114"),
		FooterFG:      lipgloss.Color("244"),
		HelpKey:       lipgloss.Color("81"),
		HelpValue:     lipgloss.Color("245"),
	}
}

// styles holds the lipgloss styles derived from a Theme. With noColor every
// style is plain except the cursor and selection, which use reverse video.
type styles struct {
	key, str, num, literal, summary lipgloss.Style
	selected, selectedDim           lipgloss.Style
	prompt, cursor                  lipgloss.Style
	suggestion, suggestionActive    lipgloss.Style
	footer                          lipgloss.Style
	hint                            map[hintLevel]lipgloss.Style
	heading, helpKey, helpValue     lipgloss.Style
}

func newStyles(th Theme, noColor bool) styles {
	plain := lipgloss.NewStyle()
	if noColor {
		return styles{
			key: plain, str: plain, num: plain, literal: plain, summary: plain,
			selected:         plain.Reverse(true),
			selectedDim:      plain.Underline(true),
			prompt:           plain,
			cursor:           plain.Reverse(true),
			suggestion:       plain,
			suggestionActive: plain.Reverse(true),
			footer:           plain,
			hint: map[hintLevel]lipgloss.Style{
				hintInfo: plain, hintSuccess: plain, hintWarning: plain, hintError: plain,
			},
			heading:   plain,
			helpKey:   plain,
			helpValue: plain,
		}
	}
	return styles{
		key:              plain.Foreground(th.KeyColor),
		str:              plain.Foreground(th.StringColor),
		num:              plain.Foreground(th.NumberColor),
		literal:          plain.Foreground(th.LiteralColor),
		summary:          plain.Foreground(th.SummaryColor).Italic(true),
		selected:         plain.Foreground(th.SelectedFG).Background(th.SelectedBG),
		selectedDim:      plain.Underline(true),
		prompt:           plain.Foreground(th.PromptColor).Bold(true),
		cursor:           plain.Foreground(th.CursorFG).Background(th.CursorBG),
		suggestion:       plain.Foreground(th.HelpValue),
		suggestionActive: plain.Foreground(th.SelectedFG).Background(th.SelectedBG),
		footer:           plain.Foreground(th.FooterFG),
		hint: map[hintLevel]lipgloss.Style{
			hintInfo:    plain.Foreground(th.StatusColor).Bold(true),
			hintSuccess: plain.Foreground(th.StatusSuccess).Bold(true),
			hintWarning: plain.Foreground(th.StatusWarning).Bold(true),
			hintError:   plain.Foreground(th.StatusError).Bold(true),
		},
		heading:   plain.Foreground(th.KeyColor).Bold(true),
		helpKey:   plain.Foreground(th.HelpKey),
		helpValue: plain.Foreground(th.HelpValue),
	}
}

// valueStyle picks the style for a row by the kind of value it shows.
func (s styles) valueStyle(k jsonv.Kind) lipgloss.Style {
	switch k {
	case jsonv.KindString:
		return s.str
	case jsonv.KindNumber:
		return s.num
	case jsonv.KindBool, jsonv.KindNull:
		return s.literal
	default:
		return s.key
	}
}
