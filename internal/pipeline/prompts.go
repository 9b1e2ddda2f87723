package pipeline

import (
	"fmt"
	"strings"
)

// Prompt templates always embed the caller's raw text verbatim between
// explicit delimiters so downstream anonymization and restoration act on
// exactly the substrings the caller supplied.
const (
	textBegin = "---BEGIN TEXT---"
	textEnd   = "---END TEXT---"

	// questionMarker and recordMarker select the question-answering sub-mode
	// of the privacy pipeline when both appear in the input.
	questionMarker = "QUESTION:"
	recordMarker   = "HEALTH_RECORD:"
)

// blockedMessage is the fixed refusal emitted when identifiable text would
// otherwise be sent to a cloud backend directly.
const blockedMessage = "This request was blocked: the input contains identifiable " +
	"information and direct cloud summarization is disabled. Use the privacy " +
	"pipeline, which anonymizes the text before any remote call and restores " +
	"the original values locally."

// auxiliaryContext is the fixed background block included in the
// question-answering prompt.
const auxiliaryContext = "You are assisting with questions about a personal health " +
	"record. Base your answer only on the record provided. If the record does " +
	"not contain the answer, say so."

func summarizePrompt(text string) string {
	return fmt.Sprintf("Summarize the following text concisely.\n\n%s\n%s\n%s",
		textBegin, text, textEnd)
}

func chunkPrompt(chunk string, index, total int) string {
	return fmt.Sprintf("Summarize section %d of %d of a longer document in a few sentences.\n\n%s\n%s\n%s",
		index, total, textBegin, chunk, textEnd)
}

func synthesisPrompt(sections []string) string {
	var sb strings.Builder
	sb.WriteString("Combine the following section summaries into one coherent summary of the whole document.\n")
	for i, section := range sections {
		fmt.Fprintf(&sb, "\nSection %d:\n%s\n%s\n%s\n", i+1, textBegin, section, textEnd)
	}
	return sb.String()
}

func privacySummaryPrompt(text string) string {
	return fmt.Sprintf("Summarize the following text concisely. The text contains "+
		"bracketed placeholder tokens such as [NAME_1]; keep every placeholder "+
		"exactly as written.\n\n%s\n%s\n%s",
		textBegin, text, textEnd)
}

func privacyQuestionPrompt(question, record string) string {
	return fmt.Sprintf("%s\n\nThe record contains bracketed placeholder tokens such "+
		"as [NAME_1]; keep every placeholder exactly as written in your answer.\n\n"+
		"Record:\n%s\n%s\n%s\n\nQuestion: %s",
		auxiliaryContext, textBegin, record, textEnd, question)
}

// parseQuestion splits input carrying QUESTION: / HEALTH_RECORD: markers into
// its question and record parts. Returns ok=false when either marker is
// missing, selecting the plain summarization sub-mode.
func parseQuestion(input string) (question, record string, ok bool) {
	qi := strings.Index(input, questionMarker)
	ri := strings.Index(input, recordMarker)
	if qi < 0 || ri < 0 {
		return "", "", false
	}

	if qi < ri {
		question = input[qi+len(questionMarker) : ri]
		record = input[ri+len(recordMarker):]
	} else {
		record = input[ri+len(recordMarker) : qi]
		question = input[qi+len(questionMarker):]
	}

	return strings.TrimSpace(question), strings.TrimSpace(record), true
}
