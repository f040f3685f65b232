package e2etest

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Texts returns the whitespace-trimmed text of every element in sel.
func Texts(sel *goquery.Selection) []string {
	texts := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, strings.Join(strings.Fields(s.Text()), " "))
	})
	return texts
}
