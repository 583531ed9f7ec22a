package openai

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"docsummary-backend/internal/llm"
	"docsummary-backend/internal/shared/telemetry"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

// BuildPrompt creates the chat messages for a summary request.
func BuildPrompt(promptVersion string, text string) []Message {
	prompt, ok := llm.PromptTemplate(promptVersion)
	if !ok {
		telemetry.Warn("llm.prompt.unknown_version", map[string]any{
			"requested": promptVersion,
			"used":      "v1",
		})
	}
	return []Message{
		{Role: "system", Content: prompt.System},
		{Role: "user", Content: prompt.Render(text)},
	}
}

func promptStringFromMessages(messages []Message) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

func hashPromptString(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
