package dedup

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "no fence", input: "[1, 2]", expected: "[1, 2]"},
		{name: "plain fence", input: "```\n[1, 2]\n```", expected: "[1, 2]"},
		{name: "json fence", input: "```json\n[{\"index\": 1}]\n```", expected: "[{\"index\": 1}]"},
		{name: "fence with surrounding whitespace", input: "  ```json\nnone\n```  ", expected: "none"},
		{name: "content starting with bracket on fence line", input: "```[1, 2]\n```", expected: "[1, 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripCodeFence(tt.input))
		})
	}
}

func TestParseIndexList(t *testing.T) {
	logger := discardLogger()

	tests := []struct {
		name          string
		input         string
		numCandidates int
		expected      []int
	}{
		{name: "bracketed list", input: "[1, 3]", numCandidates: 5, expected: []int{0, 2}},
		{name: "bare list", input: "2, 4", numCandidates: 5, expected: []int{1, 3}},
		{name: "drops non numeric tokens", input: "1, two, 3", numCandidates: 5, expected: []int{0, 2}},
		{name: "drops out of range", input: "[2, 99, 0]", numCandidates: 3, expected: []int{1}},
		{name: "dedupes keeping first seen order", input: "[3, 1, 3, 1]", numCandidates: 5, expected: []int{2, 0}},
		{name: "empty input", input: "", numCandidates: 5, expected: nil},
		{name: "only garbage", input: "sorry, cannot help", numCandidates: 5, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := parseIndexList(tt.input, tt.numCandidates, logger)
			indices := make([]int, 0, len(entries))
			for _, e := range entries {
				indices = append(indices, e.index)
			}
			if tt.expected == nil {
				assert.Empty(t, indices)
				return
			}
			assert.Equal(t, tt.expected, indices)
		})
	}
}

func TestParseJudgments(t *testing.T) {
	logger := discardLogger()

	raw := `Here are my judgments:
[
  {"index": 1, "ticket_id": "ABC-1", "relevant": true, "confidence": 0.92, "reasoning": "same login failure"},
  {"index": 2, "ticket_id": "ABC-2", "relevant": false, "confidence": 0.1, "reasoning": "different subsystem"},
  {"index": 3, "ticket_id": "ABC-3", "confidence": 0.7, "reasoning": "overlapping stack trace"},
  {"index": 9, "ticket_id": "ABC-9", "relevant": true, "confidence": 0.5},
  {"index": 1, "ticket_id": "ABC-1", "relevant": true, "confidence": 0.9}
]`

	entries, err := parseJudgments(raw, 3, logger)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)

	assert.Equal(t, 0, entries[0].index)
	assert.InDelta(t, 0.92, entries[0].score, 0.001)
	assert.Equal(t, "same login failure", entries[0].reasoning)

	// missing "relevant" counts as selected
	assert.Equal(t, 2, entries[1].index)
	assert.InDelta(t, 0.7, entries[1].score, 0.001)
}

func TestParseJudgments_NoArray(t *testing.T) {
	_, err := parseJudgments("{\"index\": 1}", 3, discardLogger())
	assert.Error(t, err)
}

func TestParseSelection_NoneIsCaseInsensitive(t *testing.T) {
	for _, raw := range []string{"none", "None", "NONE", "```\nnone\n```"} {
		sel := parseSelection(raw, 5, discardLogger())
		assert.True(t, sel.none, "input %q", raw)
		assert.Empty(t, sel.entries)
	}
}

func TestParseSelection_BadJSONFallsBackToIndexList(t *testing.T) {
	sel := parseSelection("selected {best} candidates: 1, 3", 5, discardLogger())
	assert.False(t, sel.none)
	assert.Len(t, sel.entries, 1)
	assert.Equal(t, 2, sel.entries[0].index)
}

func TestParseSelection_FencedJudgments(t *testing.T) {
	raw := "```json\n[{\"index\": 2, \"ticket_id\": \"XY-2\", \"relevant\": true, \"confidence\": 0.8, \"reasoning\": \"same error\"}]\n```"
	sel := parseSelection(raw, 3, discardLogger())
	assert.False(t, sel.none)
	assert.Len(t, sel.entries, 1)
	assert.Equal(t, 1, sel.entries[0].index)
	assert.Equal(t, "same error", sel.entries[0].reasoning)
}
