package database

// Query represents a logged user query.
type Query struct {
	ID        int64
	QueryText string
	CreatedAt *string
	UserID    int64
}

// Insight holds an LLM-generated insight. QueryID is nil when the insight
// was generated from user-supplied context rather than retrieved documents.
type Insight struct {
	ID          int64
	InsightText string
	QueryID     *int64
	GeneratedAt *string
}

// Feedback is a user feedback submission attached to an insight.
type Feedback struct {
	ID        int64
	Details   string
	Type      string // "positive", "negative" or "neutral"
	InsightID int64
	LoggedAt  *string
}

// FeedbackEntry is a feedback row joined with the insight it refers to,
// as shown in the feedback log view.
type FeedbackEntry struct {
	Details     string
	Type        string
	InsightText string
	LoggedAt    string
}

// Document is a stored reference document. QueryID optionally links the
// document to the query that produced it.
type Document struct {
	ID        int64
	Title     string
	Content   *string
	URL       *string
	Source    *string
	QueryID   *int64
	CreatedAt *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	Documents         int
	EmbeddedDocuments int
	Queries           int
	Insights          int
	FeedbackEntries   int
}
