package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/assistant"
	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/database"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for the exploration assistant UI.
type Server struct {
	db    *database.DB
	asst  *assistant.Assistant
	pages map[string]*template.Template
	mux   *http.ServeMux
}

// New creates a new Server.
func New(db *database.DB, asst *assistant.Assistant) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"snippet": snippet,
		"title":   typeLabel,
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "feedback.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, asst: asst, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/feedback", s.handleFeedback)
	s.mux.HandleFunc("/feedback/logs", s.handleFeedbackLogs)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Flash":         r.URL.Query().Get("flash"),
		"FlashKind":     r.URL.Query().Get("kind"),
		"FeedbackTypes": database.FeedbackTypes,
	})
}

// handleAnalyze runs one fetch-and-analyze interaction and renders the
// outcome inline, so the generated insight and the feedback form stay on
// the same page.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	req := assistant.Request{
		Query:         r.FormValue("query"),
		CustomContext: r.FormValue("custom_context"),
	}
	outcome := s.asst.Analyze(r.Context(), req)

	s.render(w, "index.html", map[string]any{
		"Query":         req.Query,
		"CustomContext": req.CustomContext,
		"Outcome":       outcome,
		"FeedbackTypes": database.FeedbackTypes,
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/feedback/logs", http.StatusFound)
		return
	}

	insightID, _ := strconv.ParseInt(r.FormValue("insight_id"), 10, 64)
	details := r.FormValue("details")
	feedbackType := r.FormValue("type")

	if err := s.asst.SubmitFeedback(details, feedbackType, insightID); err != nil {
		redirectFlash(w, r, fmt.Sprintf("Error submitting feedback: %v", err), "error")
		return
	}
	redirectFlash(w, r, "Feedback submitted successfully!", "success")
}

func (s *Server) handleFeedbackLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := s.db.ListFeedback()
	if err != nil {
		log.Printf("Error listing feedback: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "feedback.html", map[string]any{
		"Entries": entries,
	})
}

func redirectFlash(w http.ResponseWriter, r *http.Request, message, kind string) {
	http.Redirect(w, r, "/?flash="+url.QueryEscape(message)+"&kind="+kind, http.StatusFound)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// snippet shortens document content for the retrieved-documents list.
func snippet(s *string) string {
	if s == nil {
		return ""
	}
	const max = 280
	if len(*s) <= max {
		return *s
	}
	return (*s)[:max] + "..."
}

// typeLabel capitalizes a feedback type for display.
func typeLabel(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, asst *assistant.Assistant, port int) error {
	srv, err := New(db, asst)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
