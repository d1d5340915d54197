package database

import "database/sql"

// LogInsight inserts an insight row and returns its id.
// queryID may be nil for insights generated from user-supplied context.
func (db *DB) LogInsight(insightText string, queryID *int64) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO insights (insight_text, query_id) VALUES (?, ?)`,
		insightText, queryID,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetInsight returns a single insight by id.
func (db *DB) GetInsight(id int64) (*Insight, error) {
	row := db.conn.QueryRow(
		`SELECT id, insight_text, query_id, generated_at FROM insights WHERE id = ?`, id,
	)
	var i Insight
	if err := row.Scan(&i.ID, &i.InsightText, &i.QueryID, &i.GeneratedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &i, nil
}

// GetInsightsForQuery returns insights linked to a query, newest first.
func (db *DB) GetInsightsForQuery(queryID int64) ([]Insight, error) {
	rows, err := db.conn.Query(
		`SELECT id, insight_text, query_id, generated_at
		FROM insights WHERE query_id = ? ORDER BY generated_at DESC, id DESC`, queryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insights []Insight
	for rows.Next() {
		var i Insight
		if err := rows.Scan(&i.ID, &i.InsightText, &i.QueryID, &i.GeneratedAt); err != nil {
			return nil, err
		}
		insights = append(insights, i)
	}
	return insights, rows.Err()
}
