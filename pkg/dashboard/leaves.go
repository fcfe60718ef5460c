package dashboard

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vrm-observer/pkg/models"
)

// LeafNodes parses html and returns the text of every element under <body> that has no
// element children, in document order. Whitespace runs are collapsed and empty texts skipped.
// Script, style and template contents are not rendered text and are ignored.
func LeafNodes(html string) ([]models.LeafNode, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse dashboard html: %w", err)
	}
	return leafNodesFromDocument(doc), nil
}

func leafNodesFromDocument(doc *goquery.Document) []models.LeafNode {
	var nodes []models.LeafNode
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		switch goquery.NodeName(s) {
		case "script", "style", "template", "noscript":
			return
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text != "" {
			nodes = append(nodes, models.LeafNode{Text: text})
		}
	})
	return nodes
}
