package domain

// Metadata keys read from index match payloads. The ingestion job writes
// these; the retrieval stage reads them back into typed fields.
const (
	MetaTicketID         = "ticket_id"
	MetaURL              = "url"
	MetaSummary          = "summary"
	MetaDescription      = "description"
	MetaPageContent      = "page_content"
	MetaStatus           = "status"
	MetaPriority         = "priority"
	MetaAssignee         = "assignee"
	MetaOwnedByTeam      = "owned_by_team"
	MetaProblemStatement = "retrieved_problem_statement"
	MetaSolutionSummary  = "retrieved_solution_summary"
)

// CandidateTicket is a ticket retrieved from the vector index, typed once at
// the retrieval boundary so downstream stages never touch raw metadata maps.
type CandidateTicket struct {
	TicketID         string
	URL              string
	Summary          string
	Status           string
	Priority         string
	Assignee         string
	OwnedByTeam      string
	ProblemStatement string
	SolutionSummary  string

	// Content is the text the similarity match ran against.
	Content string

	// Score is the index similarity score. It is only comparable to scores
	// from the same retrieval call; it is not calibrated across queries or
	// across index backends.
	Score float32
}

// TicketFromMatch builds a CandidateTicket from a raw index match. Content
// falls back from page_content to description to summary when the primary
// text field is absent.
func TicketFromMatch(m IndexMatch) CandidateTicket {
	meta := m.Metadata
	content := meta[MetaPageContent]
	if content == "" {
		content = meta[MetaDescription]
	}
	if content == "" {
		content = meta[MetaSummary]
	}

	return CandidateTicket{
		TicketID:         meta[MetaTicketID],
		URL:              meta[MetaURL],
		Summary:          meta[MetaSummary],
		Status:           meta[MetaStatus],
		Priority:         meta[MetaPriority],
		Assignee:         meta[MetaAssignee],
		OwnedByTeam:      meta[MetaOwnedByTeam],
		ProblemStatement: meta[MetaProblemStatement],
		SolutionSummary:  meta[MetaSolutionSummary],
		Content:          content,
		Score:            m.Score,
	}
}

// RerankedTicket is a candidate the reranking model selected. LLMScore and
// Reasoning are only populated when the model returned structured judgments;
// both stay zero-valued for the relaxed index-list format and for the
// pass-through degradation path.
type RerankedTicket struct {
	CandidateTicket

	// LLMScore is the model's relevance confidence, 0.0 to 1.0.
	LLMScore float32
	// Reasoning is the model's free-text justification for the selection.
	Reasoning string
}

// DetectionResult is the duplicate detection pipeline output.
//
// Err is one of the two pipeline-level error strings, or empty on success.
// When Err is non-empty, Tickets and Summary are both empty. When Err is
// empty, Tickets holds the reranked selection in model order.
type DetectionResult struct {
	Tickets []RerankedTicket
	Summary string
	Err     string
}

// TicketRecord is one scraped ticket row headed for the index. Keys mirror
// the scraper's CSV columns; everything present is carried into the index
// metadata payload.
type TicketRecord map[string]string

// TicketID returns the record's unique identifier, empty if missing.
func (r TicketRecord) TicketID() string {
	return r[MetaTicketID]
}

// EmbeddingText combines summary and description into the text that gets
// embedded, skipping placeholder descriptions.
func (r TicketRecord) EmbeddingText() string {
	text := r[MetaSummary]
	desc := r[MetaDescription]
	if desc != "" && desc != "None" && desc != "null" {
		if text != "" {
			text += "\n\n"
		}
		text += desc
	}
	return text
}
