package review

import (
	"fmt"
	"strings"

	"fund-review-rag/internal/models"
)

// NotFoundAnswer is the answer the model is instructed to give when the
// retrieved context cannot support one.
const NotFoundAnswer = "Information not found in document"

// buildAnswerPrompt assembles the question-answering prompt: reviewer
// persona, the retrieved chunks as context, and the question. The model may
// only use the provided context.
func buildAnswerPrompt(chunks []models.Chunk, question string) string {
	var b strings.Builder

	b.WriteString("You are a government funding reviewer analyzing documents to determine if projects should receive funding.\n")
	b.WriteString("Use the following context to answer the question. If you don't know the answer, say \"")
	b.WriteString(NotFoundAnswer)
	b.WriteString("\" rather than making up information.\n\n")

	b.WriteString("Context:\n")
	for _, chunk := range chunks {
		b.WriteString(chunk.Text)
		b.WriteString("\n---\n")
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")

	return b.String()
}

// buildDecisionPrompt assembles the classification prompt over the full set
// of question/answer pairs. The response must begin with a literal
// "DECISION: <STATUS>" marker line; the parser depends on it.
func buildDecisionPrompt(answers []models.AnswerRecord) string {
	var results strings.Builder
	for _, record := range answers {
		results.WriteString(fmt.Sprintf("Question: %s\nAnswer: %s\n\n", record.Question, record.Answer))
	}

	var b strings.Builder
	b.WriteString("Based on the analysis of the provided government document, please review the following aspects:\n\n")
	b.WriteString(results.String())
	b.WriteString(`Given this information, determine if the funding request should be APPROVED, REJECTED, or REVIEW (approved with conditions).
Provide a detailed justification for your decision, focusing on:
1. approved budget matching with the expenditure
2. Project details are clear and well-defined
3. no signs of fund misuse or discrepancies
4. Identified risks or concerns
5. Expected impact and outcomes

You must make a clear DECISION: either APPROVED or REJECTED.

Only use REVIEW (approved with conditions) status in exceptional cases where:
1. The document shows strong merit but has specific critical issues that must be addressed
2. The issues are clearly fixable with minor to moderate changes
3. The core of the proposal is sound and valuable

The very first line of your response must be "DECISION: [APPROVED/REJECTED/REVIEW]", followed by a concise justification.
For APPROVED decisions: highlight key strengths
For REJECTED decisions: explain the main reasons for rejection
For REVIEW decisions (use sparingly): specify exactly what conditions must be met for approval

Be decisive and authoritative in your assessment.
`)
	return b.String()
}
