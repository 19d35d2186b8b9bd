package review

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"testing"

	"fund-review-rag/internal/apperrors"
	"fund-review-rag/internal/models"

	"github.com/stretchr/testify/require"
)

// fakeEmbedder derives a small deterministic vector from the text hash.
type fakeEmbedder struct {
	calls      int
	shouldFail bool
}

func (f *fakeEmbedder) GetEmbedding(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.shouldFail {
		return nil, errors.New("fake embedding error")
	}
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = float32(sum[i]) / 255
	}
	return vec, nil
}

// fakeLLM records every call and answers via a configurable function.
type fakeLLM struct {
	prompts      []string
	temperatures []float64
	respond      func(prompt string, temperature float64) (string, error)
}

func (f *fakeLLM) Complete(_ context.Context, prompt string, temperature float64) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.temperatures = append(f.temperatures, temperature)
	if f.respond != nil {
		return f.respond(prompt, temperature)
	}
	return "fake answer", nil
}

// fakeIndex is a brute-force cosine index, enough to drive the pipeline
// without cgo.
type fakeIndex struct {
	chunks  []models.Chunk
	vectors [][]float32
	closed  bool
}

func (f *fakeIndex) Add(chunk models.Chunk, embedding []float32) error {
	f.chunks = append(f.chunks, chunk)
	f.vectors = append(f.vectors, embedding)
	return nil
}

func (f *fakeIndex) Search(embedding []float32, topK int) ([]models.Chunk, error) {
	type scored struct {
		chunk models.Chunk
		score float64
	}
	scores := make([]scored, len(f.chunks))
	for i := range f.chunks {
		scores[i] = scored{chunk: f.chunks[i], score: cosine(embedding, f.vectors[i])}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if topK > len(scores) {
		topK = len(scores)
	}
	out := make([]models.Chunk, topK)
	for i := 0; i < topK; i++ {
		out[i] = scores[i].chunk
	}
	return out, nil
}

func (f *fakeIndex) Len() int { return len(f.chunks) }

func (f *fakeIndex) Close() error {
	f.closed = true
	return nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func newTestPipeline(embedder Embedder, client CompletionClient) (*Pipeline, *fakeIndex) {
	ix := &fakeIndex{}
	p := NewPipeline(embedder, client, Options{
		ChunkSize:           1000,
		ChunkOverlap:        200,
		TopK:                4,
		AnswerTemperature:   0,
		DecisionTemperature: 0.2,
	})
	p.newIndex = func() (VectorIndex, error) { return ix, nil }
	return p, ix
}

func TestStandardQuestionsAreFixed(t *testing.T) {
	require.Len(t, StandardQuestions, 11)
	require.Equal(t, "What is the amount of budget installment approved from government?", StandardQuestions[0])
}

func TestBuildIndexChunksAndEmbeds(t *testing.T) {
	embedder := &fakeEmbedder{}
	p, ix := newTestPipeline(embedder, &fakeLLM{})

	segments := []models.Segment{
		{Text: strings.Repeat("budget line ", 200), Page: 1},
		{Text: "Total expenditure reported: $100,000", Page: 2},
	}
	index, err := p.BuildIndex(context.Background(), segments)
	require.NoError(t, err)
	defer func() { _ = index.Close() }()

	require.Greater(t, ix.Len(), 1)
	require.Equal(t, ix.Len(), embedder.calls)
	for i, chunk := range ix.chunks {
		require.Equal(t, i, chunk.Ordinal)
	}
}

func TestBuildIndexEmptySegments(t *testing.T) {
	p, _ := newTestPipeline(&fakeEmbedder{}, &fakeLLM{})

	_, err := p.BuildIndex(context.Background(), nil)
	require.ErrorIs(t, err, apperrors.ErrEmptyDocument)

	_, err = p.BuildIndex(context.Background(), []models.Segment{{Text: "   "}})
	require.ErrorIs(t, err, apperrors.ErrEmptyDocument)
}

func TestAnswerIsDeterministic(t *testing.T) {
	llm := &fakeLLM{respond: func(prompt string, _ float64) (string, error) {
		sum := sha256.Sum256([]byte(prompt))
		return fmt.Sprintf("answer-%x", sum[:4]), nil
	}}
	p, ix := newTestPipeline(&fakeEmbedder{}, llm)
	require.NoError(t, ix.Add(models.Chunk{Ordinal: 0, Text: "Total approved budget: $100,000"}, []float32{0.5, 0.5, 0.5, 0.5}))

	first, err := p.Answer(context.Background(), ix, "What is the approved budget?")
	require.NoError(t, err)
	second, err := p.Answer(context.Background(), ix, "What is the approved budget?")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, []float64{0, 0}, llm.temperatures)
}

func TestAnswerPromptContainsRetrievedContext(t *testing.T) {
	llm := &fakeLLM{}
	p, ix := newTestPipeline(&fakeEmbedder{}, llm)
	require.NoError(t, ix.Add(models.Chunk{Ordinal: 0, Text: "Total approved budget: $100,000"}, []float32{0.5, 0.5, 0.5, 0.5}))

	record, err := p.Answer(context.Background(), ix, "What is the approved budget?")
	require.NoError(t, err)
	require.Equal(t, "What is the approved budget?", record.Question)
	require.Equal(t, "fake answer", record.Answer)

	require.Len(t, llm.prompts, 1)
	require.Contains(t, llm.prompts[0], "Total approved budget: $100,000")
	require.Contains(t, llm.prompts[0], "What is the approved budget?")
	require.Contains(t, llm.prompts[0], NotFoundAnswer)
	require.Contains(t, llm.prompts[0], "government funding reviewer")
}

func TestAnalyzePreservesQuestionOrder(t *testing.T) {
	p, ix := newTestPipeline(&fakeEmbedder{}, &fakeLLM{})
	require.NoError(t, ix.Add(models.Chunk{Ordinal: 0, Text: "some document text"}, []float32{0.5, 0.5, 0.5, 0.5}))

	questions := append(append([]string{}, StandardQuestions...), "Custom question A?", "Custom question B?")
	records, err := p.Analyze(context.Background(), ix, questions)
	require.NoError(t, err)
	require.Len(t, records, len(questions))
	for i, record := range records {
		require.Equal(t, questions[i], record.Question)
	}
}

func TestAnalyzeFailsAtomically(t *testing.T) {
	failAt := 3
	calls := 0
	llm := &fakeLLM{respond: func(string, float64) (string, error) {
		if calls == failAt {
			calls++
			return "", errors.New("quota exhausted")
		}
		calls++
		return "ok", nil
	}}
	p, ix := newTestPipeline(&fakeEmbedder{}, llm)
	require.NoError(t, ix.Add(models.Chunk{Ordinal: 0, Text: "text"}, []float32{0.5, 0.5, 0.5, 0.5}))

	records, err := p.Analyze(context.Background(), ix, StandardQuestions)
	require.Nil(t, records)

	var completion *apperrors.CompletionError
	require.ErrorAs(t, err, &completion)
	require.Equal(t, failAt, completion.QuestionIndex)
}

func TestDecideBuildsPromptAndParsesStatus(t *testing.T) {
	llm := &fakeLLM{respond: func(string, float64) (string, error) {
		return "DECISION: APPROVED\nThe budget matches the expenditure.", nil
	}}
	p, _ := newTestPipeline(&fakeEmbedder{}, llm)

	answers := []models.AnswerRecord{
		{Question: "Q1?", Answer: "A1"},
		{Question: "Q2?", Answer: NotFoundAnswer},
	}
	decision, err := p.Decide(context.Background(), answers)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, decision.Status)
	require.Equal(t, "DECISION: APPROVED\nThe budget matches the expenditure.", decision.Justification)

	require.Len(t, llm.prompts, 1)
	prompt := llm.prompts[0]
	require.Contains(t, prompt, "Question: Q1?\nAnswer: A1")
	require.Contains(t, prompt, "Question: Q2?\nAnswer: "+NotFoundAnswer)
	require.Contains(t, prompt, `"DECISION: [APPROVED/REJECTED/REVIEW]"`)
	require.Equal(t, []float64{0.2}, llm.temperatures)
}

func TestDecideCompletionFailure(t *testing.T) {
	llm := &fakeLLM{respond: func(string, float64) (string, error) {
		return "", errors.New("service down")
	}}
	p, _ := newTestPipeline(&fakeEmbedder{}, llm)

	_, err := p.Decide(context.Background(), []models.AnswerRecord{{Question: "Q?", Answer: "A"}})
	var completion *apperrors.CompletionError
	require.ErrorAs(t, err, &completion)
	require.Equal(t, -1, completion.QuestionIndex)
}

func TestParseDecision(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"approved marker", "DECISION: APPROVED\nLooks good.", models.StatusApproved},
		{"rejected marker", "DECISION: REJECTED\nBudget mismatch.", models.StatusRejected},
		{"review marker", "DECISION: REVIEW\nNeeds conditions.", models.StatusReview},
		{"marker mid-text", "Summary first.\nDECISION: APPROVED later on.", models.StatusApproved},
		{"no marker", "The document seems fine to me.", models.StatusReview},
		{"empty", "", models.StatusReview},
		{"approved wins over later rejected mention", "DECISION: APPROVED\nNot DECISION: REJECTED.", models.StatusApproved},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ParseDecision(tc.text))
		})
	}
}

func TestProcessEndToEnd(t *testing.T) {
	document := "Total approved budget: $100,000\n\nTotal expenditure reported: $100,000\n"
	llm := &fakeLLM{respond: func(prompt string, temperature float64) (string, error) {
		if temperature == 0 {
			if strings.Contains(prompt, "budget") {
				return "The approved budget is $100,000.", nil
			}
			return NotFoundAnswer, nil
		}
		return "DECISION: APPROVED\nBudget and expenditure match.", nil
	}}
	p, ix := newTestPipeline(&fakeEmbedder{}, llm)

	result, err := p.Process(context.Background(), []byte(document), "grant.txt", []string{"Is anything missing?"})
	require.NoError(t, err)

	require.Equal(t, models.StatusApproved, result.Status)
	require.Len(t, result.Report.Analysis, len(StandardQuestions)+1)
	require.Equal(t, "Is anything missing?", result.Report.Analysis[len(StandardQuestions)].Question)
	require.True(t, strings.HasPrefix(result.Report.Decision, "DECISION: APPROVED"))
	require.True(t, ix.closed, "request-scoped index must be closed after processing")
}

func TestProcessUnsupportedFile(t *testing.T) {
	p, _ := newTestPipeline(&fakeEmbedder{}, &fakeLLM{})

	_, err := p.Process(context.Background(), []byte("data"), "doc.xyz", nil)
	var unsupported *apperrors.UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
}

func TestProcessEmptyUpload(t *testing.T) {
	p, _ := newTestPipeline(&fakeEmbedder{}, &fakeLLM{})

	_, err := p.Process(context.Background(), []byte{}, "empty.txt", nil)
	require.ErrorIs(t, err, apperrors.ErrEmptyDocument)
}

func TestBuildIndexEmbeddingFailureClosesIndex(t *testing.T) {
	embedder := &fakeEmbedder{shouldFail: true}
	p, ix := newTestPipeline(embedder, &fakeLLM{})

	_, err := p.BuildIndex(context.Background(), []models.Segment{{Text: "some text"}})
	require.Error(t, err)
	require.True(t, ix.closed)
}
