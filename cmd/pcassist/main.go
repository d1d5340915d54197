package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/assistant"
	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/config"
	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/database"
	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/ingest"
	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/insight"
	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/llm"
	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/retrieval"
	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "pcassist",
	Short:   "Prostate cancer exploration assistant",
	Long:    "pcassist retrieves biomedical documents, generates insights about resistance mechanisms, and keeps a query/insight/feedback audit trail.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("pcassist", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/pcassist/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure document feeds and the LLM provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Documents:")
		fmt.Printf("  Total: %d\n", stats.Documents)
		fmt.Printf("  With embeddings: %d\n", stats.EmbeddedDocuments)
		fmt.Println("\nAudit trail:")
		fmt.Printf("  Queries: %d\n", stats.Queries)
		fmt.Printf("  Insights: %d\n", stats.Insights)
		fmt.Printf("  Feedback entries: %d\n", stats.FeedbackEntries)
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web assistant",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting assistant at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, buildAssistant(db), port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (defaults to config)")
}

// --- ingest commands ---

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load documents into the store",
}

var ingestDirCmd = &cobra.Command{
	Use:   "dir [path]",
	Short: "Load .txt and .md files from a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := ingest.LoadDir(db, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Loaded %d documents (%d duplicates, %d skipped)\n",
			result.Loaded, result.Duplicates, result.Skipped)
		return nil
	},
}

var ingestFeedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "Pull documents from configured RSS/Atom feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if len(cfg.Sources.Feeds) == 0 {
			return fmt.Errorf("no feeds configured; add some under sources.feeds")
		}

		ingester := ingest.NewFeedIngester(db, cfg.Sources.Feeds)
		result := ingester.IngestAll()
		fmt.Printf("Ingested %d new documents (%d duplicates of %d found, %d full texts fetched)\n",
			result.New, result.Duplicates, result.TotalFound, result.Fetched)
		return nil
	},
}

var ingestEmbedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Compute embeddings for documents that lack one",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		gen := cfg.Generation
		embedder := llm.NewOllamaEmbedder(gen.EmbeddingModel, gen.OllamaURL)
		result, err := ingest.EmbedMissing(context.Background(), db, embedder)
		if err != nil {
			return err
		}
		fmt.Printf("Embedded %d documents (%d failed)\n", result.Embedded, result.Failed)
		return nil
	},
}

func init() {
	ingestCmd.AddCommand(ingestDirCmd)
	ingestCmd.AddCommand(ingestFeedsCmd)
	ingestCmd.AddCommand(ingestEmbedCmd)
}

// buildAssistant wires the retrieval, generation and audit components the
// way the config describes them.
func buildAssistant(db *database.DB) *assistant.Assistant {
	gen := cfg.Generation
	provider := llm.CreateProvider(gen.Provider, gen.Model, gen.OllamaURL, gen.OpenAIModel, gen.APIKeyEnv)

	var searcher retrieval.SemanticSearcher
	if gen.EmbeddingModel != "" {
		searcher = retrieval.NewEmbeddingSearcher(db, llm.NewOllamaEmbedder(gen.EmbeddingModel, gen.OllamaURL))
	}

	fetcher := retrieval.NewFetcher(searcher, db, cfg.Search.TopK)
	generator := insight.NewGenerator(provider, gen.MaxTokens)
	return assistant.New(db, fetcher, generator, cfg.Assistant.UserID)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "pcassist.db")
	return database.Open(dbPath)
}
