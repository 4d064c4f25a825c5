package htmlutil

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CellText renders the visible text of a table cell (or any selection):
// text nodes joined by single spaces, non-printable characters removed,
// surrounding whitespace trimmed. Matches what a browser shows for the
// portal's nested-markup cells.
func CellText(sel *goquery.Selection) string {
	var parts []string
	for _, n := range sel.Nodes {
		collectTextParts(n, &parts)
	}
	joined := strings.Join(parts, " ")
	joined = removeNonPrintable(joined)
	return strings.Join(strings.Fields(joined), " ")
}

func collectTextParts(node *html.Node, parts *[]string) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		trimmed := strings.TrimSpace(node.Data)
		if trimmed != "" {
			*parts = append(*parts, trimmed)
		}
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectTextParts(child, parts)
	}
}
