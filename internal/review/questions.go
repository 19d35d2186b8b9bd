package review

// StandardQuestions is the fixed due-diligence battery asked of every
// document, in canonical order. Caller-supplied questions are appended
// after these.
var StandardQuestions = []string{
	"What is the amount of budget installment approved from government?",
	"What are the main objectives of the project?",
	"What is the timeline for project implementation?",
	"What specific outcomes or deliverables are expected?",
	"how fund is being utilized for different work, and does this match with the expenditure?",
	"Is there a detailed breakdown of how funds will be utilized?",
	"Does the project align with government priorities and policies?",
	"Is there evidence of proper planning and risk management?",
	"Is the fund released by government matches with the expenditure?",
	"Are there any red flags or concerns in the document?",
	"is there any disperencies in fund utilization?",
}
