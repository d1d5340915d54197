package database

import "database/sql"

// LogQuery inserts a query row and returns its id.
//
// The id is re-selected as MAX(id) for (query_text, user_id) rather than
// taken from the insert: two identical queries from the same user in the
// same instant can resolve to the other row's id. Known limitation.
func (db *DB) LogQuery(queryText string, userID int64) (int64, error) {
	_, err := db.conn.Exec(
		`INSERT INTO queries (query_text, user_id) VALUES (?, ?)`,
		queryText, userID,
	)
	if err != nil {
		return 0, err
	}

	var id int64
	err = db.conn.QueryRow(
		`SELECT MAX(id) FROM queries WHERE query_text = ? AND user_id = ?`,
		queryText, userID,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetQuery returns a single query by id.
func (db *DB) GetQuery(id int64) (*Query, error) {
	row := db.conn.QueryRow(
		`SELECT id, query_text, created_at, user_id FROM queries WHERE id = ?`, id,
	)
	var q Query
	if err := row.Scan(&q.ID, &q.QueryText, &q.CreatedAt, &q.UserID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

// GetQueriesForUser returns a user's queries, most recent first.
func (db *DB) GetQueriesForUser(userID int64) ([]Query, error) {
	rows, err := db.conn.Query(
		`SELECT id, query_text, created_at, user_id
		FROM queries WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queries []Query
	for rows.Next() {
		var q Query
		if err := rows.Scan(&q.ID, &q.QueryText, &q.CreatedAt, &q.UserID); err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}
