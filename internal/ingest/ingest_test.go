package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/config"
	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDir(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "Plain text about enzalutamide resistance.")
	writeFile(t, dir, "review.md", "# AR-V7 Review\n\nSplice variants drive resistance.")
	writeFile(t, dir, "image.png", "binary")
	writeFile(t, dir, "empty.txt", "   ")

	r, err := LoadDir(db, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Loaded != 2 {
		t.Errorf("expected 2 loaded, got %d", r.Loaded)
	}
	if r.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", r.Skipped)
	}

	docs, _ := db.SearchDocumentsByKeyword("Splice variants", 10)
	if len(docs) != 1 {
		t.Fatalf("expected markdown file stored, got %d matches", len(docs))
	}
	if docs[0].Title != "AR-V7 Review" {
		t.Errorf("expected title from heading, got %q", docs[0].Title)
	}
}

func TestLoadDirDuplicates(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "Some content.")

	LoadDir(db, dir)
	r, err := LoadDir(db, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Loaded != 0 || r.Duplicates != 1 {
		t.Errorf("expected 1 duplicate on reload, got %+v", r)
	}
}

func TestLoadDirMissing(t *testing.T) {
	db := openTestDB(t)
	if _, err := LoadDir(db, filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestTitleFor(t *testing.T) {
	if got := titleFor("file.md", "# Heading Title\n\nbody"); got != "Heading Title" {
		t.Errorf("expected heading title, got %q", got)
	}
	if got := titleFor("my_notes.txt", "no heading here"); got != "my notes" {
		t.Errorf("expected filename title, got %q", got)
	}
	if got := titleFor("doc.md", "intro line\n# Late Heading"); got != "doc" {
		t.Errorf("expected filename when heading is not first, got %q", got)
	}
}

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Oncology Updates</title>
    <item>
      <title>AR-V7 and enzalutamide</title>
      <link>https://example.com/arv7</link>
      <description>&lt;p&gt;Splice variant &amp;amp; resistance summary.&lt;/p&gt;</description>
    </item>
    <item>
      <title>Second article</title>
      <link>https://example.com/second</link>
      <description>Another summary.</description>
    </item>
    <item>
      <title></title>
      <link>https://example.com/untitled</link>
    </item>
  </channel>
</rss>`

func TestIngestAll(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testFeed)
	}))
	defer ts.Close()

	db := openTestDB(t)
	fi := NewFeedIngester(db, []config.Feed{{URL: ts.URL, Name: "Oncology"}})
	r := fi.IngestAll()

	if r.TotalFound != 3 {
		t.Errorf("expected 3 items found, got %d", r.TotalFound)
	}
	if r.New != 2 {
		t.Errorf("expected 2 new documents, got %d", r.New)
	}

	docs, _ := db.SearchDocumentsByKeyword("Splice variant", 10)
	if len(docs) != 1 {
		t.Fatalf("expected stored entry, got %d matches", len(docs))
	}
	if *docs[0].Content != "Splice variant & resistance summary." {
		t.Errorf("expected stripped content, got %q", *docs[0].Content)
	}
	if docs[0].Source == nil || *docs[0].Source != "Oncology" {
		t.Error("expected configured feed name as source")
	}

	// Second run finds only duplicates.
	r = fi.IngestAll()
	if r.New != 0 || r.Duplicates != 2 {
		t.Errorf("expected 2 duplicates on rerun, got %+v", r)
	}
}

func TestIngestAllBadFeed(t *testing.T) {
	db := openTestDB(t)
	fi := NewFeedIngester(db, []config.Feed{{URL: "http://127.0.0.1:1/rss"}})
	r := fi.IngestAll()
	if r.TotalFound != 0 || r.New != 0 {
		t.Errorf("expected unreachable feed to be skipped, got %+v", r)
	}
}

func TestStripHTML(t *testing.T) {
	got := stripHTML("<p>Hello &amp; <b>world</b></p>")
	if got != "Hello & world" {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestSourceNameFromURL(t *testing.T) {
	if got := sourceNameFromURL("https://feeds.example.com/rss"); got != "Example.com" {
		t.Errorf("unexpected source name: %q", got)
	}
	if got := sourceNameFromURL("https://www.nature.com/subjects/prostate-cancer.rss"); got != "Nature.com" {
		t.Errorf("unexpected source name: %q", got)
	}
}

type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	return s.vec, s.err
}

func TestEmbedMissing(t *testing.T) {
	db := openTestDB(t)
	content := "document body"
	db.InsertDocument("Doc A", &content, strPtr("https://a.com"), nil, nil)
	db.InsertDocument("Doc B", &content, strPtr("https://b.com"), nil, nil)

	emb := &stubEmbedder{vec: []float32{1, 2, 3}}
	r, err := EmbedMissing(context.Background(), db, emb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Embedded != 2 || r.Failed != 0 {
		t.Errorf("expected 2 embedded, got %+v", r)
	}
	if emb.calls != 2 {
		t.Errorf("expected 2 embed calls, got %d", emb.calls)
	}

	// Idempotent: nothing left to embed.
	r, _ = EmbedMissing(context.Background(), db, emb)
	if r.Embedded != 0 {
		t.Errorf("expected nothing to embed on second pass, got %d", r.Embedded)
	}
}

func TestEmbedMissingFailures(t *testing.T) {
	db := openTestDB(t)
	content := "document body"
	db.InsertDocument("Doc", &content, strPtr("https://a.com"), nil, nil)

	emb := &stubEmbedder{err: errors.New("endpoint down")}
	r, err := EmbedMissing(context.Background(), db, emb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Embedded != 0 || r.Failed != 1 {
		t.Errorf("expected 1 failure, got %+v", r)
	}

	// Failed documents stay queued for the next pass.
	missing, _ := db.GetDocumentsMissingEmbedding()
	if len(missing) != 1 {
		t.Errorf("expected document still missing embedding, got %d", len(missing))
	}
}
