package discovery

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"FeedCurator/internal/domain"
)

// KnownMapping is a curated name→canonical-URL override.
type KnownMapping struct {
	Name string
	URL  string
}

// defaultKnownMappings covers sources whose published feed URLs are known to
// have moved or to differ from what their sites advertise.
var defaultKnownMappings = []KnownMapping{
	{Name: "The Lancet", URL: "https://www.thelancet.com/rssfeed/lancet_current.xml"},
	{Name: "Nature Medicine", URL: "https://www.nature.com/nm.rss"},
	{Name: "NEJM", URL: "https://www.nejm.org/action/showFeed?jc=nejm&type=etoc&feed=rss"},
	{Name: "BMJ", URL: "https://www.bmj.com/rss"},
	{Name: "JAMA", URL: "https://jamanetwork.com/rss/site_3/67.xml"},
	{Name: "Annals of Internal Medicine", URL: "https://www.acpjournals.org/action/showFeed?type=etoc&feed=rss&jc=aim"},
}

// KnownMappingStrategy matches the entry name against a curated table by
// case-insensitive substring containment in either direction.
type KnownMappingStrategy struct {
	mappings []KnownMapping
}

// NewKnownMappingStrategy uses the curated default table when mappings is nil.
func NewKnownMappingStrategy(mappings []KnownMapping) *KnownMappingStrategy {
	if mappings == nil {
		mappings = defaultKnownMappings
	}
	return &KnownMappingStrategy{mappings: mappings}
}

func (s *KnownMappingStrategy) Name() string { return "known-mapping" }

// Propose keeps every substring match as its own candidate. Matches are
// ordered by longest mapped name first, then lexicographically, so the result
// is deterministic regardless of table order; exact matches get the top of
// the confidence band.
func (s *KnownMappingStrategy) Propose(_ context.Context, entry *domain.CatalogEntry) []Candidate {
	entryName := strings.ToLower(strings.TrimSpace(entry.Name))
	if entryName == "" {
		return nil
	}

	var matched []KnownMapping
	for _, m := range s.mappings {
		mappedName := strings.ToLower(m.Name)
		if strings.Contains(entryName, mappedName) || strings.Contains(mappedName, entryName) {
			matched = append(matched, m)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if len(matched[i].Name) != len(matched[j].Name) {
			return len(matched[i].Name) > len(matched[j].Name)
		}
		return matched[i].Name < matched[j].Name
	})

	candidates := make([]Candidate, 0, len(matched))
	for _, m := range matched {
		confidence := 0.9
		if strings.EqualFold(strings.TrimSpace(entry.Name), m.Name) {
			confidence = 0.95
		}
		candidates = append(candidates, Candidate{
			URL:        m.URL,
			Name:       m.Name,
			Confidence: confidence,
			Method:     s.Name(),
		})
	}
	return candidates
}

var (
	youtubeChannelPattern = regexp.MustCompile(`(?i)channel/(UC[\w-]{10,})`)
	subredditPattern      = regexp.MustCompile(`(?i)reddit\.com/r/([\w]+)`)
)

// PatternStrategy rebuilds a feed URL from a stable platform identifier
// extracted from the entry's existing URL.
type PatternStrategy struct{}

func (PatternStrategy) Name() string { return "pattern-reconstruction" }

func (p PatternStrategy) Propose(_ context.Context, entry *domain.CatalogEntry) []Candidate {
	switch entry.SourceType {
	case domain.SourceVideoChannel:
		if m := youtubeChannelPattern.FindStringSubmatch(entry.URL); m != nil {
			return []Candidate{{
				URL:        "https://www.youtube.com/feeds/videos.xml?channel_id=" + m[1],
				Name:       entry.Name,
				Confidence: 0.7,
				Method:     p.Name(),
			}}
		}
	case domain.SourceForumCommunity:
		if m := subredditPattern.FindStringSubmatch(entry.URL); m != nil {
			return []Candidate{{
				URL:        "https://www.reddit.com/r/" + m[1] + "/.rss",
				Name:       entry.Name,
				Confidence: 0.65,
				Method:     p.Name(),
			}}
		}
	}
	return nil
}

// ProtocolUpgradeStrategy proposes the encrypted equivalent of an http URL.
type ProtocolUpgradeStrategy struct{}

func (ProtocolUpgradeStrategy) Name() string { return "protocol-upgrade" }

func (s ProtocolUpgradeStrategy) Propose(_ context.Context, entry *domain.CatalogEntry) []Candidate {
	if !strings.HasPrefix(strings.ToLower(entry.URL), "http://") {
		return nil
	}
	return []Candidate{{
		URL:        "https://" + entry.URL[len("http://"):],
		Name:       entry.Name,
		Confidence: 0.8,
		Method:     s.Name(),
	}}
}

// conventionalFeedPaths are appended to a site's base origin as blind guesses.
var conventionalFeedPaths = []string{"/feed", "/rss", "/feed.xml", "/rss.xml", "/atom.xml", "/index.xml"}

// PathGuessStrategy is the broad-net fallback for blogs and generic sites:
// conventional feed paths on the base origin, a www toggle, and any feed
// links advertised in the homepage HTML head.
type PathGuessStrategy struct {
	client *http.Client
}

// NewPathGuessStrategy wires an HTTP client for homepage autodiscovery.
func NewPathGuessStrategy(client *http.Client) *PathGuessStrategy {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &PathGuessStrategy{client: client}
}

func (s *PathGuessStrategy) Name() string { return "path-guess" }

func (s *PathGuessStrategy) Propose(ctx context.Context, entry *domain.CatalogEntry) []Candidate {
	parsed, err := url.Parse(entry.URL)
	if err != nil || parsed.Host == "" {
		return nil
	}

	scheme := parsed.Scheme
	if scheme == "" {
		scheme = "https"
	}

	hosts := []string{parsed.Host}
	if strings.HasPrefix(parsed.Host, "www.") {
		hosts = append(hosts, strings.TrimPrefix(parsed.Host, "www."))
	} else {
		hosts = append(hosts, "www."+parsed.Host)
	}

	seen := map[string]struct{}{}
	var candidates []Candidate
	add := func(u string, confidence float64) {
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		candidates = append(candidates, Candidate{
			URL:        u,
			Name:       entry.Name,
			Confidence: confidence,
			Method:     s.Name(),
		})
	}

	// Advertised feed links outrank blind path guesses within this band.
	for _, link := range s.discoverLinks(ctx, scheme+"://"+parsed.Host) {
		add(link, 0.5)
	}
	for _, host := range hosts {
		for _, path := range conventionalFeedPaths {
			add(scheme+"://"+host+path, 0.4)
		}
	}
	return candidates
}

// discoverLinks scans the homepage head for rel=alternate feed links.
func (s *PathGuessStrategy) discoverLinks(ctx context.Context, origin string) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", "FeedCurator/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil
	}

	base, err := url.Parse(origin)
	if err != nil {
		return nil
	}

	var links []string
	doc.Find(`link[rel="alternate"]`).Each(func(_ int, sel *goquery.Selection) {
		linkType, _ := sel.Attr("type")
		if !strings.Contains(linkType, "rss") && !strings.Contains(linkType, "atom") {
			return
		}
		href, ok := sel.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		links = append(links, resolved.String())
	})
	return links
}
