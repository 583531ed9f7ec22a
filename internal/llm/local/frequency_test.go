package local

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsummary-backend/internal/llm"
)

func TestSummarizeShortTextReturnedWhole(t *testing.T) {
	s := NewFrequencySummarizer(3)

	got, err := s.Summarize(context.Background(), "hello world\n")
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestSummarizeKeepsDocumentOrder(t *testing.T) {
	s := NewFrequencySummarizer(2)
	text := "Cats sleep a lot. The weather was mild. Cats chase mice and cats purr. Cats are pets."

	got, err := s.Summarize(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, "Cats chase mice and cats purr. Cats are pets.", got)

	again, err := s.Summarize(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestSummarizeWhitespaceOnly(t *testing.T) {
	_, err := NewFrequencySummarizer(0).Summarize(context.Background(), "  \n\t ")
	assert.True(t, errors.Is(err, llm.ErrEmptySummary))
}

func TestSummarizePunctuationOnlyReturnsText(t *testing.T) {
	s := NewFrequencySummarizer(3)
	for _, in := range []string{"...", " ?! \n", "!!!"} {
		got, err := s.Summarize(context.Background(), in)
		require.NoError(t, err, in)
		assert.Equal(t, strings.TrimSpace(in), got)
	}
}

func TestSummarizeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFrequencySummarizer(1).Summarize(ctx, "text.")
	assert.ErrorIs(t, err, context.Canceled)
}
