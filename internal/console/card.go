package console

import (
	"strings"
	"unicode/utf8"

	"github.com/clicafe/clicafe/internal/shell"
)

const cardWidth = 48

// Card draws a product popup as a box of at most width columns.
func Card(p *shell.Popup, width int) []string {
	inner := width - 4
	border := "+" + strings.Repeat("-", width-2) + "+"

	out := []string{border}
	title := p.Title
	price := p.Price.String()
	gap := inner - utf8.RuneCountInString(title) - utf8.RuneCountInString(price)
	if gap < 1 {
		out = append(out, row(title, inner), row(price, inner))
	} else {
		out = append(out, row(title+strings.Repeat(" ", gap)+price, inner))
	}
	if p.Description != "" {
		out = append(out, row("", inner))
		for _, l := range wrap(p.Description, inner) {
			out = append(out, row(l, inner))
		}
	}
	if p.ImageURL != "" {
		out = append(out, row("", inner))
		for _, l := range wrap("Image: "+p.ImageURL, inner) {
			out = append(out, row(l, inner))
		}
	}
	return append(out, border)
}

func row(text string, inner int) string {
	pad := inner - utf8.RuneCountInString(text)
	if pad < 0 {
		pad = 0
	}
	return "| " + text + strings.Repeat(" ", pad) + " |"
}

// wrap breaks text into lines of at most width runes. Words longer than
// width are cut.
func wrap(text string, width int) []string {
	var (
		out  []string
		line string
	)
	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > width {
			if line != "" {
				out = append(out, line)
				line = ""
			}
			r := []rune(word)
			out = append(out, string(r[:width]))
			word = string(r[width:])
		}
		switch {
		case line == "":
			line = word
		case utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) <= width:
			line += " " + word
		default:
			out = append(out, line)
			line = word
		}
	}
	if line != "" {
		out = append(out, line)
	}
	return out
}
