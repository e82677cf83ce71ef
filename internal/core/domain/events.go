package domain

import "time"

// AssistantRequest is the validated inbound question. RequestID is set by
// the transport layer for event correlation and never comes from clients.
type AssistantRequest struct {
	Question  string `json:"question"`
	Page      int    `json:"page,omitempty"`
	PageSize  int    `json:"page_size,omitempty"`
	Locale    string `json:"locale,omitempty"`
	RequestID string `json:"-"`
}

// AnsweredEvent is published after every completed run, degraded or not.
type AnsweredEvent struct {
	RequestID      string    `json:"request_id"`
	Question       string    `json:"question"`
	EvidenceCount  int       `json:"evidence_count"`
	CitationCount  int       `json:"citation_count"`
	Iterations     int       `json:"iterations"`
	FallbackReason string    `json:"fallback_reason,omitempty"`
	DurationMS     int64     `json:"duration_ms"`
	AnsweredAt     time.Time `json:"answered_at"`
}
