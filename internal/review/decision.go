package review

import (
	"context"
	"strings"

	"fund-review-rag/internal/apperrors"
	"fund-review-rag/internal/models"
)

// Marker substrings checked in fixed order; the first match determines the
// status. Keeping the order fixed means a duplicated marker later in the
// justification body cannot override an earlier match.
var decisionMarkers = []struct {
	marker string
	status string
}{
	{"DECISION: APPROVED", models.StatusApproved},
	{"DECISION: REJECTED", models.StatusRejected},
	{"DECISION: REVIEW", models.StatusReview},
}

// Decide classifies the funding request from the full set of answers. The
// completion runs at the decision temperature (0.2 by default), so repeated
// calls may vary in justification wording. The model's response is kept
// verbatim as the justification, marker line included.
func (p *Pipeline) Decide(ctx context.Context, answers []models.AnswerRecord) (models.DecisionResult, error) {
	text, err := p.complete(ctx, buildDecisionPrompt(answers), p.opts.DecisionTemperature)
	if err != nil {
		return models.DecisionResult{}, &apperrors.CompletionError{QuestionIndex: -1, Err: err}
	}

	return models.DecisionResult{
		Status:        ParseDecision(text),
		Justification: text,
	}, nil
}

// ParseDecision extracts the status from the model's free-text response.
// REVIEW is the fallback when no marker is present.
func ParseDecision(text string) string {
	for _, m := range decisionMarkers {
		if strings.Contains(text, m.marker) {
			return m.status
		}
	}
	return models.StatusReview
}
