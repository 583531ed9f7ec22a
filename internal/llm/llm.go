package llm

import (
	"context"
	"errors"
)

// Summarizer turns document text into a short natural-language summary.
// Implementations must be safe for concurrent use.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// ErrSummarizationFailed marks failures of the summarization provider.
var ErrSummarizationFailed = errors.New("summarization failed")

// ErrEmptySummary is returned when a provider answers with no content.
var ErrEmptySummary = errors.New("provider returned an empty summary")

// SummarizerFunc adapts a function to Summarizer.
type SummarizerFunc func(ctx context.Context, text string) (string, error)

// Summarize calls f.
func (f SummarizerFunc) Summarize(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}
