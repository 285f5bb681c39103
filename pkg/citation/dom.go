package citation

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type anchor struct {
	href string
	text string
}

// domLinks returns every anchor with an href in document order.
func domLinks(raw []byte) []anchor {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil
	}

	var links []anchor
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		links = append(links, anchor{href: href, text: strings.TrimSpace(s.Text())})
	})

	return links
}
