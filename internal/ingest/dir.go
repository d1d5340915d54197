package ingest

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/database"
)

// DirResult holds the results of a directory load.
type DirResult struct {
	Loaded     int
	Duplicates int
	Skipped    int
}

// LoadDir loads .txt and .md files from a directory into the document
// store. The title comes from the first markdown heading when present,
// otherwise from the file name.
func LoadDir(db *database.DB, dir string) (*DirResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	r := &DirResult{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			r.Skipped++
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Skipping unreadable file %s: %v", path, err)
			r.Skipped++
			continue
		}

		content := strings.TrimSpace(string(data))
		if content == "" {
			r.Skipped++
			continue
		}

		title := titleFor(entry.Name(), content)
		source := "local"
		url := "file://" + path
		id, err := db.InsertDocument(title, &content, &url, &source, nil)
		if err != nil {
			return r, fmt.Errorf("inserting document from %s: %w", path, err)
		}
		if id == 0 {
			r.Duplicates++
			continue
		}
		r.Loaded++
	}

	log.Printf("Directory load complete: %d loaded, %d duplicates, %d skipped", r.Loaded, r.Duplicates, r.Skipped)
	return r, nil
}

// titleFor derives a document title from the first markdown heading,
// falling back to the file name without extension.
func titleFor(filename, content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "# "))
		}
		if line != "" {
			break
		}
	}
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.ReplaceAll(base, "_", " ")
}
