package database

// FeedbackTypes enumerates the accepted feedback types.
var FeedbackTypes = []string{"positive", "negative", "neutral"}

// ValidFeedbackType reports whether t is an accepted feedback type.
func ValidFeedbackType(t string) bool {
	for _, v := range FeedbackTypes {
		if t == v {
			return true
		}
	}
	return false
}

// LogFeedback inserts a feedback row for the given insight.
// Fails if the insight does not exist (foreign key enforcement).
func (db *DB) LogFeedback(details, feedbackType string, insightID int64) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO feedback_logs (feedback_details, feedback_type, insight_id)
		VALUES (?, ?, ?)`,
		details, feedbackType, insightID,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListFeedback returns all feedback joined with its insight text,
// most recent first.
func (db *DB) ListFeedback() ([]FeedbackEntry, error) {
	rows, err := db.conn.Query(
		`SELECT fl.feedback_details, fl.feedback_type, i.insight_text, fl.logged_at
		FROM feedback_logs fl
		JOIN insights i ON fl.insight_id = i.id
		ORDER BY fl.logged_at DESC, fl.id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []FeedbackEntry
	for rows.Next() {
		var e FeedbackEntry
		if err := rows.Scan(&e.Details, &e.Type, &e.InsightText, &e.LoggedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
