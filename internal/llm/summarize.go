// Day summarization: distills a day of working memories into a summary
// and durable facts for the memory compressor.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/talgya/villagesim/internal/memory"
)

const summarySystemPrompt = `You summarize one day in the life of a village
resident. Respond ONLY with a JSON object:
{"summary": "one or two sentences covering the day",
 "facts": ["up to 5 short durable facts worth remembering long-term"]}`

// DaySummarizer condenses working memories through the LLM client.
// It satisfies the memory store's Summarizer contract.
type DaySummarizer struct {
	Client Client
}

type daySummary struct {
	Summary string   `json:"summary"`
	Facts   []string `json:"facts"`
}

// SummarizeDay asks the model for a day summary and facts. An unusable
// reply returns an error so the compressor can fall back to heuristics.
func (d *DaySummarizer) SummarizeDay(agentName string, memories []memory.Memory) (string, []string, error) {
	if d == nil || d.Client == nil {
		return "", nil, fmt.Errorf("no summarizer client")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s experienced today:\n", agentName)
	for _, m := range memories {
		fmt.Fprintf(&b, "- [%d] %s\n", m.Significance, m.Content)
	}
	b.WriteString("\nSummarize the day and extract durable facts.")

	resp := d.Client.Complete(context.Background(), Request{
		Prompt:      b.String(),
		System:      summarySystemPrompt,
		MaxTokens:   300,
		Temperature: 0.3,
		UseCache:    false,
		CallType:    "memory_compression",
	})

	// Find the JSON object in the reply; the model may add commentary.
	start := strings.Index(resp.Content, "{")
	end := strings.LastIndex(resp.Content, "}")
	if start == -1 || end <= start {
		return "", nil, fmt.Errorf("no JSON object in summary response")
	}
	var parsed daySummary
	if err := json.Unmarshal([]byte(resp.Content[start:end+1]), &parsed); err != nil {
		return "", nil, fmt.Errorf("parse summary: %w", err)
	}
	if parsed.Summary == "" {
		return "", nil, fmt.Errorf("empty summary")
	}
	return parsed.Summary, parsed.Facts, nil
}
