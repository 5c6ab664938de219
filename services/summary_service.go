package services

import (
	"context"
	"fmt"
	"strings"

	"pdfrag/models"
)

// FragmentSummarizer turns one raw fragment into a short natural-language
// summary, the unit that gets embedded for retrieval.
type FragmentSummarizer struct {
	llm LanguageModel
}

func NewFragmentSummarizer(llm LanguageModel) *FragmentSummarizer {
	return &FragmentSummarizer{llm: llm}
}

// Summarize issues a single completion for text and table fragments, or a
// vision call for image fragments. Any model failure propagates as a
// SummarizationError carrying the fragment kind.
func (s *FragmentSummarizer) Summarize(ctx context.Context, fragment models.RawFragment) (string, error) {
	var summary string
	var err error

	switch fragment.Kind {
	case models.FragmentImage:
		summary, err = s.llm.GenerateWithImage(ctx, imageSystemPrompt, imageUserPrompt, fragment.Content, fragment.MIMEType)
	default:
		prompt := fmt.Sprintf(summaryPromptTemplate, fragment.Kind, fragment.Content)
		summary, err = s.llm.Generate(ctx, "", prompt)
	}
	if err != nil {
		return "", &SummarizationError{Kind: fragment.Kind, Err: err}
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", &SummarizationError{Kind: fragment.Kind, Err: fmt.Errorf("model returned an empty summary")}
	}
	return summary, nil
}
