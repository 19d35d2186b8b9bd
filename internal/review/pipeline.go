// Package review implements the document-to-decision analysis pipeline.
package review

import (
	"context"
	"strings"
	"time"

	"fund-review-rag/internal/apperrors"
	"fund-review-rag/internal/loader"
	"fund-review-rag/internal/models"
	"fund-review-rag/internal/splitter"
	"fund-review-rag/internal/storage"
)

// Embedder maps text to a fixed-dimension vector. The mapping must be
// deterministic: same text, same vector.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// CompletionClient generates text from a prompt at the given temperature.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

// VectorIndex supports nearest-neighbour retrieval over chunk embeddings.
// Indexes are request-scoped and must be closed by their creator.
type VectorIndex interface {
	Add(chunk models.Chunk, embedding []float32) error
	Search(embedding []float32, topK int) ([]models.Chunk, error)
	Len() int
	Close() error
}

// Options are the pipeline tunables, injected from configuration.
type Options struct {
	ChunkSize           int
	ChunkOverlap        int
	TopK                int
	AnswerTemperature   float64
	DecisionTemperature float64
	CompletionTimeout   time.Duration
}

// Pipeline sequences loader, indexer, answerer and decision maker. Any
// stage failure aborts the whole run; there are no retries and no partial
// reports.
type Pipeline struct {
	embedder Embedder
	llm      CompletionClient
	newIndex func() (VectorIndex, error)
	opts     Options
}

func NewPipeline(embedder Embedder, llm CompletionClient, opts Options) *Pipeline {
	return &Pipeline{
		embedder: embedder,
		llm:      llm,
		newIndex: func() (VectorIndex, error) { return storage.NewMemoryVectorIndex() },
		opts:     opts,
	}
}

// Process runs the full analysis for one uploaded document: extract text,
// build a request-scoped index, answer the standard questions plus any
// caller questions in order, then classify the funding request.
func (p *Pipeline) Process(ctx context.Context, data []byte, filename string, customQuestions []string) (models.AnalyzeResponse, error) {
	segments, err := loader.Load(data, filename)
	if err != nil {
		return models.AnalyzeResponse{}, err
	}

	index, err := p.BuildIndex(ctx, segments)
	if err != nil {
		return models.AnalyzeResponse{}, err
	}
	defer func() { _ = index.Close() }()

	questions := make([]string, 0, len(StandardQuestions)+len(customQuestions))
	questions = append(questions, StandardQuestions...)
	questions = append(questions, customQuestions...)

	answers, err := p.Analyze(ctx, index, questions)
	if err != nil {
		return models.AnalyzeResponse{}, err
	}

	decision, err := p.Decide(ctx, answers)
	if err != nil {
		return models.AnalyzeResponse{}, err
	}

	return models.AnalyzeResponse{
		Status: decision.Status,
		Report: models.Report{
			Analysis: answers,
			Decision: decision.Justification,
		},
	}, nil
}

// BuildIndex splits the extracted segments into overlapping chunks, embeds
// each chunk, and loads the pairs into a fresh in-memory index. The caller
// owns the returned index and must close it.
func (p *Pipeline) BuildIndex(ctx context.Context, segments []models.Segment) (VectorIndex, error) {
	var parts []string
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) != "" {
			parts = append(parts, seg.Text)
		}
	}

	chunks := splitter.Split(strings.Join(parts, "\n\n"), p.opts.ChunkSize, p.opts.ChunkOverlap)
	if len(chunks) == 0 {
		return nil, apperrors.ErrEmptyDocument
	}

	index, err := p.newIndex()
	if err != nil {
		return nil, err
	}

	for i, text := range chunks {
		embedding, err := p.embedder.GetEmbedding(ctx, text)
		if err != nil {
			_ = index.Close()
			return nil, err
		}
		if err := index.Add(models.Chunk{Ordinal: i, Text: text}, embedding); err != nil {
			_ = index.Close()
			return nil, err
		}
	}

	return index, nil
}

// complete runs one completion call under the configured bound.
func (p *Pipeline) complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	if p.opts.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.CompletionTimeout)
		defer cancel()
	}
	text, err := p.llm.Complete(ctx, prompt, temperature)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", apperrors.ErrCompletionTimeout
		}
		return "", err
	}
	return text, nil
}
