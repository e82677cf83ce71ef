package usecase

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
)

// evidenceBuilder assigns per-source sequential IDs and deduplicates by
// natural key: (filename, member) for store evidence, the link for web
// evidence. State spans one agent run.
type evidenceBuilder struct {
	counters map[string]int
	seen     map[string]map[string]struct{}
}

func newEvidenceBuilder() *evidenceBuilder {
	return &evidenceBuilder{
		counters: make(map[string]int),
		seen:     make(map[string]map[string]struct{}),
	}
}

// Reset forgets one source's IDs and dedup keys. Used when the agent
// re-issues the structured document search and its prior results are
// replaced rather than extended.
func (b *evidenceBuilder) Reset(source string) {
	b.counters[source] = 0
	delete(b.seen, source)
}

func (b *evidenceBuilder) nextID(source string) string {
	b.counters[source]++
	return fmt.Sprintf("%s-%d", source, b.counters[source])
}

func (b *evidenceBuilder) accept(source, key string) bool {
	if key == "" {
		return false
	}
	keys, ok := b.seen[source]
	if !ok {
		keys = make(map[string]struct{})
		b.seen[source] = keys
	}
	if _, dup := keys[key]; dup {
		return false
	}
	keys[key] = struct{}{}
	return true
}

// AddSearchHits converts store hits into evidence, skipping duplicates of
// already-accumulated documents.
func (b *evidenceBuilder) AddSearchHits(hits []domain.SearchHit) []domain.Evidence {
	out := make([]domain.Evidence, 0, len(hits))
	for _, hit := range hits {
		key := hit.Filename + "\x00" + hit.Member
		if !b.accept(domain.EvidenceSourceLovdata, key) {
			continue
		}
		out = append(out, domain.Evidence{
			ID:      b.nextID(domain.EvidenceSourceLovdata),
			Source:  domain.EvidenceSourceLovdata,
			Title:   hit.Title,
			Snippet: hit.Snippet,
			Date:    hit.Date,
			Link:    hit.URL,
			Metadata: domain.EvidenceMetadata{
				Filename: hit.Filename,
				Member:   hit.Member,
				LawType:  hit.LawType,
			},
		})
	}
	return out
}

// AddOrganicResults converts web-search hits into evidence. Linkless hits
// carry no citable value and are dropped, as are links that do not point
// directly at an individual document.
func (b *evidenceBuilder) AddOrganicResults(results []domain.OrganicResult) []domain.Evidence {
	return b.addWebResults(domain.EvidenceSourceSerper, results)
}

// AddFallbackResults is AddOrganicResults under the fallback source prefix,
// used when the web search runs outside the agent loop.
func (b *evidenceBuilder) AddFallbackResults(results []domain.OrganicResult) []domain.Evidence {
	return b.addWebResults(domain.EvidenceSourceFallback, results)
}

func (b *evidenceBuilder) addWebResults(prefix string, results []domain.OrganicResult) []domain.Evidence {
	out := make([]domain.Evidence, 0, len(results))
	for _, result := range results {
		link := strings.TrimSpace(result.Link)
		if !isDirectDocumentLink(link) {
			continue
		}
		if !b.accept(prefix, link) {
			continue
		}
		host := linkHost(link)
		source := prefix
		if host != "" {
			source = prefix + ":" + host
		}
		out = append(out, domain.Evidence{
			ID:      b.nextID(prefix),
			Source:  source,
			Title:   result.Title,
			Snippet: result.Snippet,
			Date:    result.Date,
			Link:    link,
			Metadata: domain.EvidenceMetadata{
				Domain: host,
			},
		})
	}
	return out
}

// listingSegments name search and index pages that aggregate documents
// rather than being one.
var listingSegments = map[string]struct{}{
	"sok":      {},
	"search":   {},
	"register": {},
	"registre": {},
	"oversikt": {},
	"liste":    {},
	"index":    {},
}

// isDirectDocumentLink is a pure predicate over URL shape: it accepts only
// links that point at an individual document, rejecting listing pages and
// anything carrying query parameters.
func isDirectDocumentLink(link string) bool {
	if link == "" {
		return false
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	if parsed.Host == "" || parsed.RawQuery != "" || parsed.Fragment != "" {
		return false
	}

	segments := make([]string, 0, 4)
	for _, segment := range strings.Split(parsed.Path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	if len(segments) < 2 {
		return false
	}
	if strings.HasSuffix(parsed.Path, "/") {
		return false
	}
	last := strings.ToLower(segments[len(segments)-1])
	if _, listing := listingSegments[last]; listing {
		return false
	}
	return true
}

func linkHost(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}
