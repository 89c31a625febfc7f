package feed

import (
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"FeedCurator/internal/domain"
)

// Platform substrings checked against the feed URL. URL matches are the most
// specific signal, so they short-circuit the rest of the chain.
var (
	videoDomains      = []string{"youtube.com", "youtu.be", "vimeo.com"}
	forumDomains      = []string{"reddit.com", "lemmy.", "discourse.", "forum."}
	newsletterDomains = []string{"substack.com", "buttondown.", "beehiiv.com", "ghost.io"}

	academicDomains = []string{
		"doi.org", "arxiv.org", "nature.com", "pubmed.ncbi", "sciencedirect.com",
		"springer.com", "wiley.com", "thelancet.com", "nejm.org", "bmj.com",
	}
)

var doiPattern = regexp.MustCompile(`\b10\.\d{4,9}/\S+`)

// richBodyThreshold is the minimum per-entry body length that counts as full
// post content rather than a teaser.
const richBodyThreshold = 500

// Classify infers the source type from a priority-ordered rule chain. Rules
// are ordered most-specific-first: podcast and academic markers can co-occur
// with generic blog content, so they must win over the body-length rule.
func Classify(feedURL string, parsed *gofeed.Feed) domain.SourceType {
	loweredURL := strings.ToLower(feedURL)

	for _, d := range videoDomains {
		if strings.Contains(loweredURL, d) {
			return domain.SourceVideoChannel
		}
	}
	for _, d := range forumDomains {
		if strings.Contains(loweredURL, d) {
			return domain.SourceForumCommunity
		}
	}
	for _, d := range newsletterDomains {
		if strings.Contains(loweredURL, d) {
			return domain.SourceNewsletter
		}
	}

	if hasPodcastMarker(parsed) {
		return domain.SourcePodcast
	}
	if hasAcademicMarker(loweredURL, parsed) {
		return domain.SourceAcademicJournal
	}
	if hasRichBodies(parsed) {
		return domain.SourceGenericBlog
	}
	return domain.SourceUnknown
}

// hasPodcastMarker checks for an audio enclosure or podcast namespace on any
// entry.
func hasPodcastMarker(parsed *gofeed.Feed) bool {
	if parsed.ITunesExt != nil {
		return true
	}
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		if item.ITunesExt != nil {
			return true
		}
		for _, enc := range item.Enclosures {
			if enc != nil && strings.HasPrefix(strings.ToLower(enc.Type), "audio/") {
				return true
			}
		}
	}
	return false
}

// hasAcademicMarker checks for persistent-identifier links or known academic
// publisher domains.
func hasAcademicMarker(loweredURL string, parsed *gofeed.Feed) bool {
	for _, d := range academicDomains {
		if strings.Contains(loweredURL, d) {
			return true
		}
	}
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		if extractDOI(item) != "" {
			return true
		}
	}
	return false
}

func hasRichBodies(parsed *gofeed.Feed) bool {
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		if len(item.Content) >= richBodyThreshold {
			return true
		}
	}
	return false
}

// extractDOI pulls a DOI-style persistent identifier from an entry's link or
// GUID, if one is present.
func extractDOI(item *gofeed.Item) string {
	for _, candidate := range []string{item.Link, item.GUID} {
		lowered := strings.ToLower(candidate)
		if idx := strings.Index(lowered, "doi.org/"); idx >= 0 {
			return strings.TrimSpace(candidate[idx+len("doi.org/"):])
		}
		if match := doiPattern.FindString(candidate); match != "" {
			return strings.TrimRight(match, ".,;")
		}
	}
	return ""
}
