// Package badge renders flat "label | value" status badges as SVG.
package badge

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"
)

const (
	ColorUp   = "green"
	ColorDown = "red"

	// rough glyph width at font-size 11 plus horizontal padding
	charWidth = 7
	padding   = 10
)

// Status renders the badge for a monitor. up is false when no outcome exists.
func Status(label string, up bool) []byte {
	if up {
		return Render(label, "up", ColorUp)
	}
	return Render(label, "down", ColorDown)
}

// Render is a pure function of its inputs. Text is XML-escaped.
func Render(label, value, color string) []byte {
	lw := textWidth(label)
	vw := textWidth(value)
	total := lw + vw

	l := html.EscapeString(label)
	v := html.EscapeString(value)
	c := html.EscapeString(color)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="20">`, total)
	b.WriteString(`<linearGradient id="b" x2="0" y2="100%">`)
	b.WriteString(`<stop offset="0" stop-color="#bbb" stop-opacity=".1"/>`)
	b.WriteString(`<stop offset="1" stop-opacity=".1"/>`)
	b.WriteString(`</linearGradient>`)
	b.WriteString(`<mask id="a">`)
	fmt.Fprintf(&b, `<rect width="%d" height="20" rx="3" fill="#fff"/>`, total)
	b.WriteString(`</mask>`)
	b.WriteString(`<g mask="url(#a)">`)
	fmt.Fprintf(&b, `<path fill="#555" d="M0 0h%dv20H0z"/>`, lw)
	fmt.Fprintf(&b, `<path fill="%s" d="M%d 0h%dv20H%dz"/>`, c, lw, vw, lw)
	fmt.Fprintf(&b, `<path fill="url(#b)" d="M0 0h%dv20H0z"/>`, total)
	b.WriteString(`</g>`)
	b.WriteString(`<g fill="#fff" text-anchor="middle" font-family="DejaVu Sans,Verdana,Geneva,sans-serif" font-size="11">`)
	lx, vx := half(lw), half(2*lw+vw)
	fmt.Fprintf(&b, `<text x="%s" y="15" fill="#010101" fill-opacity=".3">%s</text>`, lx, l)
	fmt.Fprintf(&b, `<text x="%s" y="14">%s</text>`, lx, l)
	fmt.Fprintf(&b, `<text x="%s" y="15" fill="#010101" fill-opacity=".3">%s</text>`, vx, v)
	fmt.Fprintf(&b, `<text x="%s" y="14">%s</text>`, vx, v)
	b.WriteString(`</g>`)
	b.WriteString(`</svg>`)
	return []byte(b.String())
}

func textWidth(s string) int {
	return utf8.RuneCountInString(s)*charWidth + padding
}

// half formats n/2 without a trailing ".0" for even n.
func half(n int) string {
	if n%2 == 0 {
		return fmt.Sprintf("%d", n/2)
	}
	return fmt.Sprintf("%d.5", n/2)
}
