package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/metalcon/newswidget/internal/domain"
)

// ExtractPreview reads link preview state from the markup of a composer's
// preview panel, as filled in by the scraper running in the page. It
// returns nil when the panel carries no description, since nothing would
// be attached to the message.
//
// Title, description and URL are read as text, so inline markup in them is
// flattened.
func ExtractPreview(panel string) (*domain.LinkPreview, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(panel))
	if err != nil {
		return nil, fmt.Errorf("parse preview panel: %w", err)
	}

	p := &domain.LinkPreview{
		Title:       text(doc.Find(".title")),
		Description: text(doc.Find(".description")),
		URL:         text(doc.Find(".url")),
	}
	if !p.HasDescription() {
		return nil, nil
	}

	if video, err := doc.Find(".video").First().Html(); err == nil {
		p.Video = strings.TrimSpace(video)
	}
	if src, ok := doc.Find(".image .active").First().Attr("src"); ok {
		p.Image = strings.TrimSpace(src)
	}
	return p, nil
}

func text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.First().Text())
}
