package harvester

import (
	"encoding/json"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// jsonURLPattern matches "url":"<literal>" occurrences where the quoted
// string literal starts with an http(s) prefix. The literal body may
// contain JSON escapes (escaped slashes, unicode escapes), so the
// pattern consumes escape pairs instead of stopping at the first
// backslash. Profile builders embed their page state as JSON fragments
// that are not standalone-parseable, which is why this scans the raw
// document text rather than parsing it.
var jsonURLPattern = regexp.MustCompile(`"url"\s*:\s*"(https?:(?:[^"\\]|\\.)*)"`)

// CandidateLinks extracts the set of raw candidate href strings from an
// HTML document: every anchor href, unioned with every http(s)://
// string found in embedded "url":"..." JSON fragments. Duplicates are
// collapsed by value; no further validation happens here.
func CandidateLinks(document string) []string {
	seen := make(map[string]bool)
	var candidates []string
	add := func(raw string) {
		if raw == "" || seen[raw] {
			return
		}
		seen[raw] = true
		candidates = append(candidates, raw)
	}

	// Pass 1: anchor hrefs. A parse failure only loses this pass; the
	// raw-text pass below still runs.
	if doc, err := html.Parse(strings.NewReader(document)); err == nil {
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.ElementNode && n.Data == "a" {
				for _, attr := range n.Attr {
					if attr.Key == "href" && attr.Val != "" {
						add(attr.Val)
						break
					}
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(doc)
	}

	// Pass 2: embedded JSON fragments. The pattern only anchors on the
	// scheme, so the full http(s):// prefix is checked on the decoded
	// form, where escaped slashes have been restored.
	for _, match := range jsonURLPattern.FindAllStringSubmatch(document, -1) {
		decoded := decodeJSONStringLiteral(match[1])
		if strings.HasPrefix(decoded, "http://") || strings.HasPrefix(decoded, "https://") {
			add(decoded)
		}
	}

	return candidates
}

// decodeJSONStringLiteral decodes the body of a JSON string literal
// (e.g. turning a unicode-escaped slash back into a slash). When the
// body is not decodable as a standalone literal, backslashes are
// stripped instead of dropping the candidate.
func decodeJSONStringLiteral(body string) string {
	var decoded string
	if err := json.Unmarshal([]byte(`"`+body+`"`), &decoded); err == nil {
		return decoded
	}
	return strings.ReplaceAll(body, `\`, "")
}
