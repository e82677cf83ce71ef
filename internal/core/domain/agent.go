package domain

import "time"

// Tool names exposed to the agent. The surface is exactly these two.
const (
	ToolSearchLegalDocuments = "search_legal_documents"
	ToolSearchLegalPractice  = "search_legal_practice"
)

type AgentLimits struct {
	MaxIterations  int
	Timeout        time.Duration
	ModelTimeout   time.Duration
	ToolTimeout    time.Duration
	EvidenceWindow int
}

// ToolCall is one retrieval request issued by the model. Arguments arrive
// as raw JSON and are validated at the dispatch boundary.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

type StructuredSearchArgs struct {
	Query    string `json:"query"`
	Year     int    `json:"year,omitempty"`
	LawType  string `json:"law_type,omitempty"`
	Ministry string `json:"ministry,omitempty"`
}

type PracticeSearchArgs struct {
	Query string `json:"query"`
}

// AgentFunctionResult records the outcome of one tool invocation for the
// model: the tool, a compact result payload, and an evaluative hint about
// hit count and refinement strategy.
type AgentFunctionResult struct {
	CallID   string `json:"call_id"`
	Tool     string `json:"tool"`
	Output   string `json:"output"`
	Guidance string `json:"guidance"`
}

// ModelTurn is what one model call produced: either a terminal answer with
// citations, or a set of tool calls to execute.
type ModelTurn struct {
	Answer    string
	Citations []Citation
	ToolCalls []ToolCall
}

type AgentRunResult struct {
	Answer         string     `json:"answer"`
	Evidence       []Evidence `json:"evidence"`
	Citations      []Citation `json:"citations"`
	Pagination     Pagination `json:"pagination"`
	Iterations     int        `json:"iterations"`
	FallbackReason string     `json:"fallback_reason,omitempty"`
	Provider       string     `json:"provider,omitempty"`
}
