// Package local provides an offline extractive summarizer used when no
// hosted provider is configured.
package local

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"docsummary-backend/internal/llm"
)

const defaultMaxSentences = 3

var (
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)
	tokenPattern    = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

// FrequencySummarizer picks the sentences whose non-stopword tokens are most
// frequent across the document and returns them in document order.
type FrequencySummarizer struct {
	maxSentences int
	stopwords    map[string]struct{}
}

// NewFrequencySummarizer returns a summarizer keeping at most maxSentences sentences.
func NewFrequencySummarizer(maxSentences int) *FrequencySummarizer {
	if maxSentences <= 0 {
		maxSentences = defaultMaxSentences
	}
	return &FrequencySummarizer{
		maxSentences: maxSentences,
		stopwords:    defaultStopwords(),
	}
}

type scored struct {
	idx   int
	score float64
}

// Summarize implements llm.Summarizer.
func (s *FrequencySummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var sentences []string
	for _, raw := range sentencePattern.FindAllString(text, -1) {
		if sent := strings.Join(strings.Fields(raw), " "); sent != "" {
			sentences = append(sentences, sent)
		}
	}
	if len(sentences) == 0 {
		// Punctuation-only input such as "..." has no sentence body.
		if rest := strings.Join(strings.Fields(text), " "); rest != "" {
			return rest, nil
		}
		return "", llm.ErrEmptySummary
	}
	if len(sentences) <= s.maxSentences {
		return strings.Join(sentences, " "), nil
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range s.tokens(sent) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}

	scores := make([]scored, len(sentences))
	for i, sent := range sentences {
		toks := s.tokens(sent)
		total := 0.0
		for _, tok := range toks {
			total += freq[tok] / maxF
		}
		if len(toks) > 0 {
			total /= math.Sqrt(float64(len(toks)))
		}
		scores[i] = scored{idx: i, score: total}
	}
	// Stable on ties so earlier sentences win.
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	selected := make([]int, s.maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, 0, len(selected))
	for _, idx := range selected {
		out = append(out, sentences[idx])
	}
	return strings.Join(out, " "), nil
}

func (s *FrequencySummarizer) tokens(sentence string) []string {
	all := tokenPattern.FindAllString(strings.ToLower(sentence), -1)
	kept := all[:0]
	for _, tok := range all {
		if _, stop := s.stopwords[tok]; !stop {
			kept = append(kept, tok)
		}
	}
	return kept
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about",
		"between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too",
		"very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

var _ llm.Summarizer = (*FrequencySummarizer)(nil)
