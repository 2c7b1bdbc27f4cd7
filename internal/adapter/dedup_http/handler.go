package dedup_http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ticket-dedup/internal/domain"
	"ticket-dedup/internal/usecase"
)

type Handler struct {
	detectUsecase usecase.DetectDuplicatesUsecase
}

func NewHandler(detectUsecase usecase.DetectDuplicatesUsecase) *Handler {
	return &Handler{detectUsecase: detectUsecase}
}

type detectRequest struct {
	Query     string `json:"query"`
	RetrieveK int    `json:"retrieve_k,omitempty"`
	RerankN   int    `json:"rerank_n,omitempty"`
}

type ticketResponse struct {
	TicketID         string  `json:"ticket_id"`
	URL              string  `json:"url,omitempty"`
	Summary          string  `json:"summary,omitempty"`
	Status           string  `json:"status,omitempty"`
	Priority         string  `json:"priority,omitempty"`
	Assignee         string  `json:"assignee,omitempty"`
	OwnedByTeam      string  `json:"owned_by_team,omitempty"`
	ProblemStatement string  `json:"retrieved_problem_statement,omitempty"`
	SolutionSummary  string  `json:"retrieved_solution_summary,omitempty"`
	Content          string  `json:"page_content"`
	Score            float32 `json:"score"`
	LLMScore         float32 `json:"llm_similarity_score,omitempty"`
	Reasoning        string  `json:"reasoning,omitempty"`
}

type detectResponse struct {
	Tickets []ticketResponse `json:"tickets"`
	Summary string           `json:"summary"`
	Error   *string          `json:"error"`
}

// DetectDuplicates runs the duplicate detection pipeline.
// (POST /v1/duplicates)
//
// Pipeline-level empty-result errors come back as HTTP 200 with a non-null
// error field; they mean "nothing found", not a server fault.
func (h *Handler) DetectDuplicates(c echo.Context) error {
	var req detectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	result := h.detectUsecase.Execute(c.Request().Context(), usecase.DetectDuplicatesInput{
		Query:     req.Query,
		RetrieveK: req.RetrieveK,
		RerankN:   req.RerankN,
	})

	resp := detectResponse{
		Tickets: make([]ticketResponse, 0, len(result.Tickets)),
		Summary: result.Summary,
	}
	if result.Err != "" {
		errStr := result.Err
		resp.Error = &errStr
	}
	for _, t := range result.Tickets {
		resp.Tickets = append(resp.Tickets, ticketResponse{
			TicketID:         t.TicketID,
			URL:              t.URL,
			Summary:          t.Summary,
			Status:           t.Status,
			Priority:         t.Priority,
			Assignee:         t.Assignee,
			OwnedByTeam:      t.OwnedByTeam,
			ProblemStatement: t.ProblemStatement,
			SolutionSummary:  t.SolutionSummary,
			Content:          t.Content,
			Score:            t.Score,
			LLMScore:         t.LLMScore,
			Reasoning:        t.Reasoning,
		})
	}

	return c.JSON(http.StatusOK, resp)
}

type explainRequest struct {
	Query  string `json:"query"`
	Ticket struct {
		TicketID string `json:"ticket_id"`
		Content  string `json:"page_content"`
		Status   string `json:"status,omitempty"`
	} `json:"ticket"`
}

type explainResponse struct {
	Explanation string `json:"explanation"`
}

// ExplainTicket produces a per-ticket similarity explanation.
// (POST /v1/duplicates/explain)
func (h *Handler) ExplainTicket(c echo.Context) error {
	var req explainRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" || req.Ticket.Content == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query and ticket.page_content are required"})
	}

	explanation := h.detectUsecase.ExplainTicket(c.Request().Context(), req.Query, domain.CandidateTicket{
		TicketID: req.Ticket.TicketID,
		Status:   req.Ticket.Status,
		Content:  req.Ticket.Content,
	})

	return c.JSON(http.StatusOK, explainResponse{Explanation: explanation})
}
