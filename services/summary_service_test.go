package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pdfrag/models"
)

func TestSummarizeTextAndTableFragments(t *testing.T) {
	tests := []struct {
		kind    models.FragmentKind
		content string
	}{
		{models.FragmentText, "Aspirin reduces fever."},
		{models.FragmentTable, "drug\tdose\naspirin\t500mg"},
	}

	for _, tt := range tests {
		llm := &fakeLLM{textReply: "a summary"}
		summarizer := NewFragmentSummarizer(llm)

		summary, err := summarizer.Summarize(context.Background(), models.RawFragment{Kind: tt.kind, Content: tt.content})
		if err != nil {
			t.Fatalf("%s: Summarize failed: %v", tt.kind, err)
		}
		if summary != "a summary" {
			t.Errorf("%s: summary = %q", tt.kind, summary)
		}
		if len(llm.prompts) != 1 {
			t.Fatalf("%s: expected one completion call, got %d", tt.kind, len(llm.prompts))
		}
		if !strings.Contains(llm.prompts[0], string(tt.kind)) || !strings.Contains(llm.prompts[0], tt.content) {
			t.Errorf("%s: prompt not parameterized by kind and content:\n%s", tt.kind, llm.prompts[0])
		}
	}
}

func TestSummarizeImageUsesVisionCall(t *testing.T) {
	llm := &fakeLLM{visionReply: "a chart"}
	summarizer := NewFragmentSummarizer(llm)

	summary, err := summarizer.Summarize(context.Background(), models.RawFragment{
		Kind:     models.FragmentImage,
		Content:  "aW1hZ2U=",
		MIMEType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary != "a chart" {
		t.Errorf("summary = %q", summary)
	}
	if len(llm.prompts) != 0 {
		t.Errorf("image fragments must not use the plain completion path")
	}
	if len(llm.visionSystems) != 1 || llm.visionSystems[0] == "" {
		t.Errorf("vision call missing the system instruction")
	}
}

func TestSummarizeFailureCarriesFragmentKind(t *testing.T) {
	llm := &fakeLLM{err: errors.New("rate limited")}
	summarizer := NewFragmentSummarizer(llm)

	_, err := summarizer.Summarize(context.Background(), models.RawFragment{Kind: models.FragmentTable, Content: "x"})
	var summErr *SummarizationError
	if !errors.As(err, &summErr) {
		t.Fatalf("err = %v, want SummarizationError", err)
	}
	if summErr.Kind != models.FragmentTable {
		t.Errorf("kind = %s, want table", summErr.Kind)
	}
}

func TestSummarizeRejectsEmptySummary(t *testing.T) {
	llm := &fakeLLM{textReply: "   "}
	summarizer := NewFragmentSummarizer(llm)

	_, err := summarizer.Summarize(context.Background(), models.RawFragment{Kind: models.FragmentText, Content: "x"})
	if err == nil {
		t.Fatal("expected error for blank summary")
	}
}
