package models

// Segment is a unit of text extracted from an uploaded document.
type Segment struct {
	Text   string
	Page   int    // 1-based page number for paged formats, 0 otherwise
	Source string // original filename
}

// Chunk is a bounded slice of document text used as a retrieval unit.
// Ordinal is the chunk's insertion position within its source document.
type Chunk struct {
	Ordinal int
	Text    string
}

// AnswerRecord pairs an evaluation question with its answer. The field
// names are part of the response payload contract.
type AnswerRecord struct {
	Question string `json:"Question"`
	Answer   string `json:"Answer"`
}

// Funding decision statuses.
const (
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
	StatusReview   = "REVIEW"
)

// DecisionResult is the classified funding decision. Justification holds
// the model's full response text, marker line included.
type DecisionResult struct {
	Status        string
	Justification string
}

// Report is the analysis section of the response payload.
type Report struct {
	Analysis []AnswerRecord `json:"analysis"`
	Decision string         `json:"decision"`
}

// AnalyzeResponse is the full payload returned for a successful analysis.
type AnalyzeResponse struct {
	Status string `json:"status"`
	Report Report `json:"report"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
