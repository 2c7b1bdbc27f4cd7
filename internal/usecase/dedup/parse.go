package dedup

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// selection is the parsed reranker output: an ordered, deduplicated list of
// in-range candidate positions, optionally annotated with the model's
// confidence and reasoning.
type selection struct {
	entries []selectionEntry
	// none is set when the model explicitly answered "none", meaning no
	// candidate is a genuine duplicate.
	none bool
}

type selectionEntry struct {
	// index is 0-based into the candidate list.
	index     int
	score     float32
	reasoning string
}

// judgment is one element of the structured reranker output format.
type judgment struct {
	Index      int     `json:"index"`
	TicketID   string  `json:"ticket_id"`
	Relevant   *bool   `json:"relevant"`
	Confidence float32 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// parseSelection interprets the reranker's raw output. Structured JSON
// judgments are preferred; anything else goes through the relaxed index-list
// parser, which drops unusable tokens with a warning instead of failing.
func parseSelection(raw string, numCandidates int, logger *slog.Logger) selection {
	text := strings.TrimSpace(stripCodeFence(raw))

	if strings.EqualFold(text, "none") {
		return selection{none: true}
	}

	if strings.Contains(text, "{") {
		entries, err := parseJudgments(text, numCandidates, logger)
		if err == nil {
			return selection{entries: entries}
		}
		logger.Warn("judgment_parse_failed",
			slog.String("error", err.Error()),
			slog.String("raw", truncate(text, 200)))
		// fall through to the relaxed index-list parser
	}

	return selection{entries: parseIndexList(text, numCandidates, logger)}
}

// parseJudgments decodes the JSON judgment array format. Entries marked not
// relevant are skipped; indices are converted from the prompt's 1-based
// numbering and validated against the candidate count.
func parseJudgments(text string, numCandidates int, logger *slog.Logger) ([]selectionEntry, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON array found")
	}

	var judgments []judgment
	if err := json.Unmarshal([]byte(text[start:end+1]), &judgments); err != nil {
		return nil, fmt.Errorf("failed to decode judgment array: %w", err)
	}

	entries := make([]selectionEntry, 0, len(judgments))
	seen := make(map[int]bool)
	for _, j := range judgments {
		if j.Relevant != nil && !*j.Relevant {
			continue
		}
		idx := j.Index - 1
		if idx < 0 || idx >= numCandidates {
			logger.Warn("judgment_index_out_of_range",
				slog.Int("index", j.Index),
				slog.Int("candidate_count", numCandidates))
			continue
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		entries = append(entries, selectionEntry{
			index:     idx,
			score:     j.Confidence,
			reasoning: j.Reasoning,
		})
	}
	return entries, nil
}

// parseIndexList handles the relaxed output format: strip brackets, split on
// commas, keep numeric tokens, convert to 0-based, drop out-of-range values,
// deduplicate preserving first-seen order.
func parseIndexList(text string, numCandidates int, logger *slog.Logger) []selectionEntry {
	cleaned := strings.NewReplacer("[", "", "]", "").Replace(text)

	var entries []selectionEntry
	seen := make(map[int]bool)
	for _, token := range strings.Split(cleaned, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		value, err := strconv.Atoi(token)
		if err != nil {
			logger.Warn("non_numeric_rerank_token",
				slog.String("token", truncate(token, 50)))
			continue
		}
		idx := value - 1
		if idx < 0 || idx >= numCandidates {
			logger.Warn("rerank_index_out_of_range",
				slog.Int("index", value),
				slog.Int("candidate_count", numCandidates))
			continue
		}
		if seen[idx] {
			logger.Warn("duplicate_rerank_index", slog.Int("index", value))
			continue
		}
		seen[idx] = true
		entries = append(entries, selectionEntry{index: idx})
	}
	return entries
}

// stripCodeFence removes a ```json ... ``` (or plain ```) wrapper the model
// may put around structured output.
func stripCodeFence(s string) string {
	text := strings.TrimSpace(s)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if newline := strings.Index(text, "\n"); newline != -1 {
		firstLine := strings.TrimSpace(text[:newline])
		// language tag like "json" on the fence line
		if firstLine != "" && !strings.ContainsAny(firstLine, "[]{},") {
			text = text[newline+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
