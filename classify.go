package harvester

import (
	"net/url"
	"strings"

	"github.com/linkbio/harvester/models"
	"github.com/linkbio/harvester/rules"
)

const defaultShopTitle = "Check this out"

// Classify filters raw candidate links against the profile's own URL
// and the rule tables, then assigns each survivor to exactly one
// category. Candidates that fail any step are dropped silently; a bad
// candidate never aborts the batch.
//
// profile is the parsed profile URL; rawProfileURL is the caller's
// original (trimmed) profile URL string, used for the string-prefix
// self-link check. The hostname check and the prefix check are
// deliberately independent rules: they disagree for path-cased or
// trailing-slash variants and neither subsumes the other.
func Classify(rs *rules.Ruleset, candidates []string, profile *url.URL, rawProfileURL string) models.ClassifiedLinks {
	profileHost := NormalizeHost(profile.Hostname())

	seen := make(map[string]bool)
	var outbound []*url.URL
	for _, candidate := range candidates {
		u, ok := resolveCandidate(candidate, profile)
		if !ok {
			continue
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			continue
		}
		host := NormalizeHost(u.Hostname())
		if host == "" {
			continue
		}
		if rules.MatchesDomain(host, profileHost) {
			continue
		}
		if rs.Blocked(host) {
			continue
		}
		resolved := u.String()
		if strings.HasPrefix(resolved, rawProfileURL) {
			continue
		}
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		outbound = append(outbound, u)
	}

	links := models.ClassifiedLinks{
		Social:        []models.SocialEntry{},
		Community:     []models.CommunityEntry{},
		AffiliateShop: []models.ShopEntry{},
	}
	for _, u := range outbound {
		host := NormalizeHost(u.Hostname())
		link := u.String()
		if platform, ok := rs.SocialPlatform(host); ok {
			links.Social = append(links.Social, models.SocialEntry{Platform: platform, URL: link})
			continue
		}
		if platform, ok := rs.CommunityPlatform(host); ok {
			links.Community = append(links.Community, models.CommunityEntry{Platform: platform, URL: link})
			continue
		}
		links.AffiliateShop = append(links.AffiliateShop, models.ShopEntry{
			URL:    link,
			Domain: host,
			Title:  titleFromPath(u),
		})
	}

	return links
}
