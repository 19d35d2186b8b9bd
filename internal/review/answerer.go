package review

import (
	"context"
	"strings"

	"fund-review-rag/internal/apperrors"
	"fund-review-rag/internal/models"
)

// Answer answers one question strictly from the chunks retrieved for it:
// the question is embedded with the same embedder as the index, the topK
// nearest chunks become the prompt context, and the completion runs at the
// answer temperature (0 by default, so identical inputs give identical
// answers).
func (p *Pipeline) Answer(ctx context.Context, index VectorIndex, question string) (models.AnswerRecord, error) {
	embedding, err := p.embedder.GetEmbedding(ctx, question)
	if err != nil {
		return models.AnswerRecord{}, err
	}

	chunks, err := index.Search(embedding, p.opts.TopK)
	if err != nil {
		return models.AnswerRecord{}, err
	}

	answer, err := p.complete(ctx, buildAnswerPrompt(chunks, question), p.opts.AnswerTemperature)
	if err != nil {
		return models.AnswerRecord{}, err
	}

	return models.AnswerRecord{
		Question: question,
		Answer:   strings.TrimSpace(answer),
	}, nil
}

// Analyze answers each question in order. The output order exactly matches
// the input order. A failure on any question aborts the whole call with a
// CompletionError carrying that question's index; no partial result is
// returned.
func (p *Pipeline) Analyze(ctx context.Context, index VectorIndex, questions []string) ([]models.AnswerRecord, error) {
	records := make([]models.AnswerRecord, 0, len(questions))
	for i, question := range questions {
		record, err := p.Answer(ctx, index, question)
		if err != nil {
			return nil, &apperrors.CompletionError{QuestionIndex: i, Err: err}
		}
		records = append(records, record)
	}
	return records, nil
}
