package database

import (
	"path/filepath"
	"strings"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func TestLogQuery(t *testing.T) {
	db := openTestDB(t)
	id, err := db.LogQuery("AR-V7 resistance", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero query ID")
	}

	q, err := db.GetQuery(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q == nil {
		t.Fatal("expected query")
	}
	if q.QueryText != "AR-V7 resistance" {
		t.Errorf("expected query text 'AR-V7 resistance', got %q", q.QueryText)
	}
	if q.UserID != 1 {
		t.Errorf("expected user 1, got %d", q.UserID)
	}
	if q.CreatedAt == nil {
		t.Error("expected created_at to be set")
	}
}

func TestLogQueryReturnsMaxID(t *testing.T) {
	db := openTestDB(t)
	first, _ := db.LogQuery("same query", 1)
	second, err := db.LogQuery("same query", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second <= first {
		t.Errorf("expected second id > first id, got %d and %d", first, second)
	}
}

func TestGetQueriesForUser(t *testing.T) {
	db := openTestDB(t)
	db.LogQuery("first", 1)
	db.LogQuery("second", 1)
	db.LogQuery("other user", 2)

	queries, err := db.GetQueriesForUser(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(queries))
	}
	if queries[0].QueryText != "second" {
		t.Errorf("expected most recent query first, got %q", queries[0].QueryText)
	}
}

func TestLogInsightWithQuery(t *testing.T) {
	db := openTestDB(t)
	qid, _ := db.LogQuery("AR-V7", 1)

	id, err := db.LogInsight("Resistance arises via splice variants.", &qid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero insight ID")
	}

	insights, _ := db.GetInsightsForQuery(qid)
	if len(insights) != 1 {
		t.Fatalf("expected 1 insight, got %d", len(insights))
	}
	if insights[0].QueryID == nil || *insights[0].QueryID != qid {
		t.Error("expected insight linked to query")
	}
}

func TestLogInsightWithoutQuery(t *testing.T) {
	db := openTestDB(t)
	id, err := db.LogInsight("From custom context.", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	i, err := db.GetInsight(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i == nil {
		t.Fatal("expected insight")
	}
	if i.QueryID != nil {
		t.Error("expected nil query_id for custom-context insight")
	}
}

func TestLogFeedback(t *testing.T) {
	db := openTestDB(t)
	iid, _ := db.LogInsight("Some insight", nil)

	id, err := db.LogFeedback("Very helpful", "positive", iid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero feedback ID")
	}
}

func TestLogFeedbackWithoutInsight(t *testing.T) {
	db := openTestDB(t)
	_, err := db.LogFeedback("Orphaned", "neutral", 42)
	if err == nil {
		t.Fatal("expected error for feedback without insight")
	}

	entries, _ := db.ListFeedback()
	if len(entries) != 0 {
		t.Errorf("expected no feedback rows, got %d", len(entries))
	}
}

func TestLogFeedbackRejectsUnknownType(t *testing.T) {
	db := openTestDB(t)
	iid, _ := db.LogInsight("Some insight", nil)

	_, err := db.LogFeedback("details", "enthusiastic", iid)
	if err == nil {
		t.Error("expected check constraint error for unknown type")
	}
}

func TestListFeedbackOrdering(t *testing.T) {
	db := openTestDB(t)
	iid, _ := db.LogInsight("Insight under review", nil)
	db.LogFeedback("first", "positive", iid)
	db.LogFeedback("second", "negative", iid)
	db.LogFeedback("third", "neutral", iid)

	entries, err := db.ListFeedback()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Details != "third" || entries[2].Details != "first" {
		t.Errorf("expected most recent first, got %q, %q, %q",
			entries[0].Details, entries[1].Details, entries[2].Details)
	}
	if entries[0].InsightText != "Insight under review" {
		t.Errorf("expected joined insight text, got %q", entries[0].InsightText)
	}
}

func TestListFeedbackEmpty(t *testing.T) {
	db := openTestDB(t)
	entries, err := db.ListFeedback()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty result, got %d entries", len(entries))
	}
}

func TestValidFeedbackType(t *testing.T) {
	for _, v := range []string{"positive", "negative", "neutral"} {
		if !ValidFeedbackType(v) {
			t.Errorf("expected %q to be valid", v)
		}
	}
	if ValidFeedbackType("Positive") {
		t.Error("expected case-sensitive match")
	}
	if ValidFeedbackType("") {
		t.Error("expected empty type to be invalid")
	}
}

func TestInsertDocument(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertDocument("AR-V7 Review", ptr("Splice variant content"), ptr("https://example.com/arv7"), ptr("PubMed"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero document ID")
	}

	doc, _ := db.GetDocumentByID(id)
	if doc == nil {
		t.Fatal("expected document")
	}
	if doc.Title != "AR-V7 Review" {
		t.Errorf("expected title 'AR-V7 Review', got %q", doc.Title)
	}
}

func TestInsertDuplicateDocument(t *testing.T) {
	db := openTestDB(t)
	db.InsertDocument("First", ptr("content"), ptr("https://example.com/dup"), nil, nil)
	id, err := db.InsertDocument("Duplicate", ptr("content"), ptr("https://example.com/dup"), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 0 {
		t.Error("expected 0 for duplicate URL")
	}
}

func TestSearchDocumentsByKeyword(t *testing.T) {
	db := openTestDB(t)
	db.InsertDocument("Match A", ptr("AR-V7 drives enzalutamide resistance"), ptr("https://a.com"), nil, nil)
	db.InsertDocument("Match B", ptr("Resistance via AR-V7 splice variants"), ptr("https://b.com"), nil, nil)
	db.InsertDocument("Unrelated", ptr("BRCA2 mutations in breast cancer"), ptr("https://c.com"), nil, nil)

	docs, err := db.SearchDocumentsByKeyword("AR-V7", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("expected 2 matches, got %d", len(docs))
	}
	for _, d := range docs {
		if !strings.Contains(*d.Content, "AR-V7") {
			t.Errorf("expected content containing 'AR-V7', got %q", *d.Content)
		}
	}
}

func TestSearchDocumentsByKeywordLimit(t *testing.T) {
	db := openTestDB(t)
	for _, u := range []string{"https://1.com", "https://2.com", "https://3.com", "https://4.com"} {
		db.InsertDocument("Doc", ptr("androgen receptor signaling"), ptr(u), nil, nil)
	}

	docs, err := db.SearchDocumentsByKeyword("androgen", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 3 {
		t.Errorf("expected limit of 3, got %d", len(docs))
	}
}

func TestSearchDocumentsByKeywordNoMatch(t *testing.T) {
	db := openTestDB(t)
	db.InsertDocument("Doc", ptr("some content"), ptr("https://a.com"), nil, nil)

	docs, err := db.SearchDocumentsByKeyword("nonexistent term", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no matches, got %d", len(docs))
	}
}

func TestDocumentEmbeddingLifecycle(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.InsertDocument("Doc", ptr("content"), ptr("https://a.com"), nil, nil)

	missing, _ := db.GetDocumentsMissingEmbedding()
	if len(missing) != 1 {
		t.Fatalf("expected 1 document missing embedding, got %d", len(missing))
	}

	vec := []float32{0.1, -0.5, 2.25}
	if err := db.UpdateDocumentEmbedding(id, vec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	missing, _ = db.GetDocumentsMissingEmbedding()
	if len(missing) != 0 {
		t.Error("expected no documents missing embedding after update")
	}

	embedded, err := db.GetEmbeddedDocuments()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(embedded) != 1 {
		t.Fatalf("expected 1 embedded document, got %d", len(embedded))
	}
	got := embedded[0].Embedding
	if len(got) != 3 || got[0] != 0.1 || got[1] != -0.5 || got[2] != 2.25 {
		t.Errorf("embedding round trip mismatch: %v", got)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Documents != 0 || stats.Queries != 0 {
		t.Error("expected empty stats for fresh database")
	}

	did, _ := db.InsertDocument("Doc", ptr("content"), ptr("https://a.com"), nil, nil)
	db.UpdateDocumentEmbedding(did, []float32{1, 0})
	qid, _ := db.LogQuery("query", 1)
	iid, _ := db.LogInsight("insight", &qid)
	db.LogFeedback("good", "positive", iid)

	stats, _ = db.GetStats()
	if stats.Documents != 1 {
		t.Errorf("expected 1 document, got %d", stats.Documents)
	}
	if stats.EmbeddedDocuments != 1 {
		t.Errorf("expected 1 embedded document, got %d", stats.EmbeddedDocuments)
	}
	if stats.Queries != 1 || stats.Insights != 1 || stats.FeedbackEntries != 1 {
		t.Errorf("unexpected audit counts: %+v", stats)
	}
}
