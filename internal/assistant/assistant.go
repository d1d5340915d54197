package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/database"
	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/insight"
	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/retrieval"
)

// Request is one user interaction: a query to retrieve documents for, or
// user-supplied context that bypasses retrieval.
type Request struct {
	Query         string
	CustomContext string
}

// Outcome is everything a single analyze run produced. Warning and Err are
// user-facing messages; Err aborts the remaining steps of the run but never
// the process. InsightID is non-zero only when the insight was logged, and
// is carried into the feedback form so feedback targets this exact insight.
type Outcome struct {
	Warning   string
	Err       string
	Documents []database.Document
	FellBack  bool
	Insight   string
	InsightID int64
	QueryID   *int64
}

// Assistant orchestrates the fixed analyze sequence: log query, fetch
// documents, generate insight, log insight. It holds no per-run state.
type Assistant struct {
	db        *database.DB
	fetcher   *retrieval.Fetcher
	generator *insight.Generator
	userID    int64
}

// New creates an Assistant.
func New(db *database.DB, fetcher *retrieval.Fetcher, generator *insight.Generator, userID int64) *Assistant {
	if userID == 0 {
		userID = 1
	}
	return &Assistant{db: db, fetcher: fetcher, generator: generator, userID: userID}
}

// Analyze runs one fetch-and-analyze interaction to completion.
func (a *Assistant) Analyze(ctx context.Context, req Request) *Outcome {
	out := &Outcome{}

	query := strings.TrimSpace(req.Query)
	if query == "" && req.CustomContext == "" {
		out.Warning = "Please enter a query or input your own context."
		return out
	}

	var contextText string
	if req.CustomContext == "" {
		queryID, err := a.db.LogQuery(query, a.userID)
		if err != nil {
			out.Err = fmt.Sprintf("Error logging query: %v", err)
			return out
		}
		out.QueryID = &queryID

		result, err := a.fetcher.FetchDocuments(ctx, query)
		if err != nil {
			out.Err = fmt.Sprintf("Error fetching documents: %v", err)
		} else {
			out.Documents = result.Documents
			out.FellBack = result.FellBack
			contextText = joinContents(result.Documents)
		}
	} else {
		contextText = req.CustomContext
	}

	if strings.TrimSpace(contextText) == "" {
		out.Warning = "No valid context found or provided."
		return out
	}

	out.Insight = a.generator.Generate(ctx, contextText)

	if out.QueryID != nil {
		id, err := a.db.LogInsight(out.Insight, out.QueryID)
		if err != nil {
			out.Err = fmt.Sprintf("Error logging insights: %v", err)
			return out
		}
		out.InsightID = id
		log.Printf("Logged insight %d for query %d", id, *out.QueryID)
	}

	return out
}

// SubmitFeedback records feedback for the insight generated in this
// session. A zero insightID means no logged insight exists to attach to.
func (a *Assistant) SubmitFeedback(details, feedbackType string, insightID int64) error {
	if strings.TrimSpace(details) == "" {
		return fmt.Errorf("feedback details are empty")
	}
	if !database.ValidFeedbackType(feedbackType) {
		return fmt.Errorf("unknown feedback type %q", feedbackType)
	}
	if insightID == 0 {
		return fmt.Errorf("no logged insight to attach feedback to")
	}
	if _, err := a.db.LogFeedback(details, feedbackType, insightID); err != nil {
		return fmt.Errorf("logging feedback: %w", err)
	}
	return nil
}

// joinContents concatenates document contents with newlines to form the
// generation context.
func joinContents(docs []database.Document) string {
	var parts []string
	for _, d := range docs {
		if d.Content != nil {
			parts = append(parts, *d.Content)
		} else {
			parts = append(parts, "")
		}
	}
	return strings.Join(parts, "\n")
}
