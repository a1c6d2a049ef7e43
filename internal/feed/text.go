package feed

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// textOf returns the visible text of an HTML fragment with whitespace
// collapsed. Script, style and the table of contents are skipped.
func textOf(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			tok := z.Token()
			if skipped(tok) {
				skip++
			}
		case html.EndTagToken:
			tok := z.Token()
			if skip > 0 && (tok.DataAtom == atom.Script || tok.DataAtom == atom.Style || tok.DataAtom == atom.Nav) {
				skip--
			}
			if blockLevel(tok.DataAtom) {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func skipped(tok html.Token) bool {
	switch tok.DataAtom {
	case atom.Script, atom.Style, atom.Nav:
		return true
	}
	return false
}

func blockLevel(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Pre, atom.Blockquote, atom.Br, atom.Td, atom.Th:
		return true
	}
	return false
}
