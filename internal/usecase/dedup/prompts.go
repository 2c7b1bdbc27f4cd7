package dedup

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"ticket-dedup/internal/domain"
)

const candidateContentLimit = 500

// buildRerankPrompt enumerates the candidates 1-based next to the query and
// asks the model for a selection. Both output shapes the parser accepts are
// spelled out so smaller models can pick the simple one.
func buildRerankPrompt(query string, candidates []domain.CandidateTicket, topN int) string {
	var b strings.Builder

	b.WriteString("You are triaging potential duplicate Jira tickets.\n\n")
	b.WriteString("User query:\n")
	b.WriteString(query)
	b.WriteString("\n\nCandidate tickets:\n")

	for i, c := range candidates {
		id := c.TicketID
		if id == "" {
			id = "N/A"
		}
		fmt.Fprintf(&b, "[%d] ID: %s Score: %.4f\nContent: %s\n\n",
			i+1, id, c.Score, truncate(c.Content, candidateContentLimit))
	}

	fmt.Fprintf(&b, "Select up to %d candidates that describe the same underlying problem as the query, ordered from most to least likely duplicate.\n\n", topN)
	b.WriteString("Respond with either:\n")
	b.WriteString("- a JSON array of judgment objects, e.g. [{\"index\": 1, \"ticket_id\": \"ABC-1\", \"relevant\": true, \"confidence\": 0.92, \"reasoning\": \"same login failure\"}]\n")
	b.WriteString("- or a comma-separated list of candidate numbers, e.g. [1, 3]\n\n")
	b.WriteString("If none of the candidates describe the same problem, respond with the single word \"none\".")

	return b.String()
}

// buildSummaryPrompt asks the model to explain how the selected tickets
// relate to the query.
func buildSummaryPrompt(query string, tickets []domain.CandidateTicket) string {
	var b strings.Builder

	b.WriteString("You are an expert technical assistant reviewing Jira tickets that were flagged as similar to a user's problem description.\n\n")
	b.WriteString("User query:\n")
	b.WriteString(query)
	b.WriteString("\n\nTickets:\n")

	for i, t := range tickets {
		id := t.TicketID
		if id == "" {
			id = fmt.Sprintf("Item %d", i+1)
		}
		fmt.Fprintf(&b, "Ticket ID: %s\nContent:\n%s\n\n", id, t.Content)
	}

	b.WriteString("In two or three sentences, explain the relationship and common themes between these tickets and the user's query. Do not invent details that are not present in the tickets.")

	return b.String()
}

// buildTicketSummaryPrompt is the single-ticket variant, used when a caller
// wants a per-ticket explanation rather than a batch summary.
func buildTicketSummaryPrompt(query string, ticket domain.CandidateTicket) string {
	var b strings.Builder

	b.WriteString("You are an expert technical assistant comparing a Jira ticket against a user's problem description.\n\n")
	b.WriteString("User query:\n")
	b.WriteString(query)
	fmt.Fprintf(&b, "\n\nTicket ID: %s\nStatus: %s\nContent:\n%s\n\n", ticket.TicketID, ticket.Status, ticket.Content)
	b.WriteString("In one or two sentences, explain how this ticket relates to the user's query.")

	return b.String()
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + "..."
}
