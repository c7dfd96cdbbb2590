// Package rules holds the static domain tables driving link filtering
// and classification. A Ruleset is immutable once built and is injected
// into the pipeline so tests can run against synthetic tables.
package rules

import "strings"

// PlatformRule maps a bare domain to a platform name. Rules are kept in
// an ordered list and matched first-wins, so the order below is part of
// the contract.
type PlatformRule struct {
	Domain   string
	Platform string
}

// Ruleset bundles the allow-list of supported profile hosts, the
// block-list of affiliate redirectors, and the two ordered
// domain-to-platform tables.
type Ruleset struct {
	allowedProfileDomains []string
	blockedDomains        []string
	social                []PlatformRule
	community             []PlatformRule
}

// New builds a Ruleset from copies of the given tables.
func New(allowed, blocked []string, social, community []PlatformRule) *Ruleset {
	return &Ruleset{
		allowedProfileDomains: append([]string(nil), allowed...),
		blockedDomains:        append([]string(nil), blocked...),
		social:                append([]PlatformRule(nil), social...),
		community:             append([]PlatformRule(nil), community...),
	}
}

// Default returns the production Ruleset.
func Default() *Ruleset {
	return New(
		[]string{
			"linktr.ee",
			"link.bio",
			"beacons.ai",
			"bio.site",
			"carrd.co",
			"taplink.cc",
		},
		[]string{
			"thanks.is",
			"kqzyfj.com",
			"armra.com",
			"omniluxled.com",
			"sjv.io",
			"linksynergy.com",
			"pxf.io",
			"equipfoods.com",
			"clearstem.com",
			"wk5q.net",
			"thezeroproof.com",
			"jlab.com",
		},
		[]PlatformRule{
			{"instagram.com", "instagram"},
			{"facebook.com", "facebook"},
			{"twitter.com", "x"},
			{"x.com", "x"},
			{"linkedin.com", "linkedin"},
			{"tiktok.com", "tiktok"},
			{"youtube.com", "youtube"},
			{"pinterest.com", "pinterest"},
			{"snapchat.com", "snapchat"},
			{"threads.net", "threads"},
			{"medium.com", "medium"},
			{"twitch.tv", "twitch"},
			{"reddit.com", "reddit"},
		},
		[]PlatformRule{
			{"whatsapp.com", "whatsapp"},
			{"t.me", "telegram"},
			{"telegram.org", "telegram"},
			{"discord.com", "discord"},
			{"discord.gg", "discord"},
			{"slack.com", "slack"},
			{"skype.com", "skype"},
			{"zoom.us", "zoom"},
		},
	)
}

// MatchesDomain reports whether host equals domain or is a subdomain of
// it. Both sides are expected to be lowercase with any leading "www."
// already stripped.
func MatchesDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// ProfileDomainAllowed reports whether host is a supported
// profile-hosting domain (or a subdomain of one).
func (r *Ruleset) ProfileDomainAllowed(host string) bool {
	for _, d := range r.allowedProfileDomains {
		if MatchesDomain(host, d) {
			return true
		}
	}
	return false
}

// Blocked reports whether host matches a block-list entry.
func (r *Ruleset) Blocked(host string) bool {
	for _, d := range r.blockedDomains {
		if MatchesDomain(host, d) {
			return true
		}
	}
	return false
}

// SocialPlatform returns the platform for a social host, matching the
// ordered table first-wins.
func (r *Ruleset) SocialPlatform(host string) (string, bool) {
	return matchPlatform(r.social, host)
}

// CommunityPlatform returns the platform for a community host.
func (r *Ruleset) CommunityPlatform(host string) (string, bool) {
	return matchPlatform(r.community, host)
}

// AllowedProfileDomains returns a copy of the allow-list, for error
// messages.
func (r *Ruleset) AllowedProfileDomains() []string {
	return append([]string(nil), r.allowedProfileDomains...)
}

func matchPlatform(table []PlatformRule, host string) (string, bool) {
	for _, rule := range table {
		if MatchesDomain(host, rule.Domain) {
			return rule.Platform, true
		}
	}
	return "", false
}
