package domain

// Evidence source prefixes. IDs are assigned per source, 1-based, in
// arrival order (lovdata-1, serper-1, ...) and are only stable within one
// agent run.
const (
	EvidenceSourceLovdata  = "lovdata"
	EvidenceSourceSerper   = "serper"
	EvidenceSourceFallback = "fallback"
)

type EvidenceMetadata struct {
	Filename string `json:"filename,omitempty"`
	Member   string `json:"member,omitempty"`
	LawType  string `json:"law_type,omitempty"`
	Domain   string `json:"domain,omitempty"`
}

// Evidence is the citable unit the agent and citation system operate on.
// It lives for one request and is never persisted.
type Evidence struct {
	ID       string           `json:"id"`
	Source   string           `json:"source"`
	Title    string           `json:"title,omitempty"`
	Snippet  string           `json:"snippet,omitempty"`
	Date     string           `json:"date,omitempty"`
	Link     string           `json:"link,omitempty"`
	Content  string           `json:"content,omitempty"`
	Metadata EvidenceMetadata `json:"metadata"`
}

// NaturalKey identifies the underlying document across retrievals:
// (filename, member) for store evidence, the link for web evidence.
func (e Evidence) NaturalKey() string {
	if e.Metadata.Filename != "" || e.Metadata.Member != "" {
		return e.Metadata.Filename + "\x00" + e.Metadata.Member
	}
	return e.Link
}

// Citation references an Evidence item. Label is always recomputed by the
// normalizer from the final paginated evidence order; the model's own
// numbering is never trusted.
type Citation struct {
	EvidenceID string `json:"evidence_id"`
	Label      string `json:"label"`
	Quote      string `json:"quote,omitempty"`
}
