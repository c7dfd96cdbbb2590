package harvester

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/linkbio/harvester/models"
)

// FetchMeta fetches a single URL and extracts Open-Graph/meta-tag
// fields for preview display. Failures here are expected and non-fatal
// to callers: metadata is an enrichment, not a required field.
func (h *Harvester) FetchMeta(ctx context.Context, rawURL string) (*models.LinkMeta, error) {
	rawURL = strings.TrimSpace(rawURL)
	if _, err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	document, err := h.fetch(ctx, rawURL, h.config.MetaTimeout)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return nil, err
	}

	meta := extractMeta(doc)
	meta.URL = rawURL
	return meta, nil
}

// extractMeta walks the document collecting og/twitter/product meta
// tags plus the document title, then combines them in priority order.
func extractMeta(doc *html.Node) *models.LinkMeta {
	var (
		ogTitle, docTitle          string
		ogDescription, metaDesc    string
		ogImage, twitterImage      string
		priceAmount, priceCurrency string
	)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if docTitle == "" && n.FirstChild != nil {
					docTitle = n.FirstChild.Data
				}
			case "meta":
				var property, name, content string
				for _, attr := range n.Attr {
					switch attr.Key {
					case "property":
						property = strings.ToLower(attr.Val)
					case "name":
						name = strings.ToLower(attr.Val)
					case "content":
						content = attr.Val
					}
				}
				if content == "" {
					break
				}
				switch {
				case property == "og:title" && ogTitle == "":
					ogTitle = content
				case property == "og:description" && ogDescription == "":
					ogDescription = content
				case name == "description" && metaDesc == "":
					metaDesc = content
				case property == "og:image" && ogImage == "":
					ogImage = content
				case name == "twitter:image" && twitterImage == "":
					twitterImage = content
				case (property == "product:price:amount" || property == "og:price:amount") && priceAmount == "":
					priceAmount = content
				case (property == "product:price:currency" || property == "og:price:currency") && priceCurrency == "":
					priceCurrency = content
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	meta := &models.LinkMeta{}

	if ogTitle != "" {
		meta.Title = strings.TrimSpace(ogTitle)
	} else {
		meta.Title = strings.TrimSpace(docTitle)
	}

	if ogDescription != "" {
		meta.Description = strings.TrimSpace(ogDescription)
	} else {
		meta.Description = strings.TrimSpace(metaDesc)
	}

	if ogImage != "" {
		meta.ImageURL = ogImage
	} else {
		meta.ImageURL = twitterImage
	}

	if priceAmount != "" {
		currency := priceCurrency
		if currency == "" {
			currency = "USD"
		}
		meta.Price = priceAmount + " " + currency
	}

	return meta
}
