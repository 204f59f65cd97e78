package publisher

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockedElements = "script, iframe, object, embed, frame, frameset, base"

// SanitizeHTML strips active content from a model-written page: script-like
// elements, inline event handlers and javascript: URLs. Styling is kept.
func SanitizeHTML(src string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("parse landing html: %w", err)
	}

	doc.Find(blockedElements).Remove()
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		var unsafe []string
		for _, attr := range node.Attr {
			key := strings.ToLower(attr.Key)
			value := strings.ToLower(strings.TrimSpace(attr.Val))
			switch {
			case strings.HasPrefix(key, "on"):
				unsafe = append(unsafe, attr.Key)
			case (key == "href" || key == "src" || key == "action" || key == "formaction") && strings.HasPrefix(value, "javascript:"):
				unsafe = append(unsafe, attr.Key)
			}
		}
		for _, key := range unsafe {
			s.RemoveAttr(key)
		}
	})

	out, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return "", fmt.Errorf("render landing html: %w", err)
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(out)), "<!doctype") {
		out = "<!DOCTYPE html>\n" + out
	}
	return out, nil
}
