// Package main is the Shirabe CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/backends"
	"github.com/hyperjump/shirabe/internal/cli"
	"github.com/hyperjump/shirabe/internal/config"
	"github.com/hyperjump/shirabe/internal/embedding"
	"github.com/hyperjump/shirabe/internal/graph"
	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/orchestrator"
	"github.com/hyperjump/shirabe/internal/router"
	"github.com/hyperjump/shirabe/internal/server"
	"github.com/hyperjump/shirabe/internal/store"
	"github.com/hyperjump/shirabe/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/shirabe/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence so that running from the project
// dir uses the project's config.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "route":
		runRoute()
	case "index":
		runIndex()
	case "delete":
		runDelete()
	case "fact":
		runFact()
	case "health":
		runHealth()
	case "version", "--version", "-v":
		fmt.Printf("shirabe version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode))

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	go func() {
		err := config.Watch(watchCtx, resolvedConfigPath, logger, func(updated *config.Config) {
			// Storage paths and embedder settings need a restart; log so the
			// operator knows the file changed.
			logger.Info("config file changed; restart to apply storage or embedding changes")
		})
		if err != nil && watchCtx.Err() == nil {
			logger.Warn("config watch stopped", zap.Error(err))
		}
	}()

	srv := server.NewServer(components.Orchestrator, components.Store, components.Graph, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildQuery joins all positional args with spaces so multi-word queries work
// the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves flags (and their values) that appear after the query to
// the front of the slice so that flag.Parse() sees them. The flag package
// stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func parseOutputFormat(s string) (cli.OutputFormat, error) {
	switch s {
	case "text":
		return cli.OutputText, nil
	case "json":
		return cli.OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func runSearch() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = direct storage access)")
	searchType := fs.String("search-type", "", "force one search type: vector, hybrid, keyword, or graph")
	alpha := fs.Float64("alpha", 0.5, "hybrid balance when -search-type is set (1.0 = semantic)")
	maxResults := fs.Int("max-results", 0, "merged result limit (0 = server default)")
	summary := fs.Bool("summary", false, "print a result summary")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	queryStr := buildQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: shirabe search [flags] <query>")
		os.Exit(1)
	}
	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if *serverURL != "" {
		result, err := searchViaHTTP(*serverURL, queryStr, *searchType, *alpha, *maxResults)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteResult(os.Stdout, result, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	components, logger := mustInitialize(*configPath)
	defer logger.Sync()
	defer components.Close()

	var manual *models.RoutingDecision
	if *searchType != "" {
		st, err := models.ParseSearchType(*searchType)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		manual = components.Orchestrator.Router().ManualOverride(st, *alpha)
	}

	result := components.Orchestrator.ProcessQuery(context.Background(), queryStr, manual, *maxResults)
	if err := cli.WriteResult(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if *summary {
		cli.WriteSummary(os.Stdout, components.Orchestrator.Summarize(result))
	}
}

func searchViaHTTP(serverURL, query, searchType string, alpha float64, maxResults int) (*models.OrchestratedResult, error) {
	payload := map[string]interface{}{"query": query}
	if searchType != "" {
		payload["search_type"] = searchType
		payload["alpha"] = alpha
	}
	if maxResults > 0 {
		payload["max_results"] = maxResults
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var result models.OrchestratedResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// runRoute classifies a query without touching any backend. The router is
// stateless, so no config or storage is needed.
func runRoute() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("route", flag.ExitOnError)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	queryStr := buildQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: shirabe route [flags] <query>")
		os.Exit(1)
	}
	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	r := router.New()
	decision := r.Route(queryStr)
	if err := cli.WriteRoutingDecision(os.Stdout, r.Explain(decision), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	title := fs.String("title", "", "document title (default: file name)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: shirabe index [flags] <file>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Failed to read file: %v\n", err)
		os.Exit(1)
	}
	docTitle := *title
	if docTitle == "" {
		docTitle = filepath.Base(path)
	}

	components, logger := mustInitialize(*configPath)
	defer logger.Sync()
	defer components.Close()

	if components.Store == nil {
		fmt.Println("Document store is not configured")
		os.Exit(1)
	}
	doc, err := components.Store.IndexDocument(context.Background(), models.DocumentInput{
		Title:   docTitle,
		Source:  path,
		Content: string(content),
	})
	if err != nil {
		fmt.Printf("Indexing failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document indexed: %s\n", doc.ID)
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: shirabe delete [flags] <document-id>")
		os.Exit(1)
	}
	docID := fs.Arg(0)

	components, logger := mustInitialize(*configPath)
	defer logger.Sync()
	defer components.Close()

	if components.Store == nil {
		fmt.Println("Document store is not configured")
		os.Exit(1)
	}
	if err := components.Store.DeleteDocument(context.Background(), docID); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document deleted: %s\n", docID)
}

func runFact() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: shirabe fact <add|list> ...")
		fmt.Println("  shirabe fact add [flags] <fact text>   Store a graph fact")
		fmt.Println("  shirabe fact list <entity>             List facts about an entity")
		os.Exit(1)
	}
	sub := os.Args[2]
	switch sub {
	case "add":
		runFactAdd(os.Args[3:])
	case "list":
		runFactList(os.Args[3:])
	default:
		fmt.Printf("Unknown fact subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func runFactAdd(args []string) {
	args = argsReorder(args)
	fs := flag.NewFlagSet("fact add", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	subject := fs.String("subject", "", "fact subject entity")
	predicate := fs.String("predicate", "", "fact predicate")
	object := fs.String("object", "", "fact object entity")
	_ = fs.Parse(args)

	factText := buildQuery(fs.Args())
	if factText == "" {
		fmt.Println("Usage: shirabe fact add [flags] <fact text>")
		os.Exit(1)
	}

	components, logger := mustInitialize(*configPath)
	defer logger.Sync()
	defer components.Close()

	if components.Graph == nil {
		fmt.Println("Graph store is not configured")
		os.Exit(1)
	}
	fact, err := components.Graph.AddFact(context.Background(), models.FactInput{
		Fact:      factText,
		Subject:   *subject,
		Predicate: *predicate,
		Object:    *object,
	})
	if err != nil {
		fmt.Printf("Adding fact failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Fact stored: %s\n", fact.UUID)
}

func runFactList(args []string) {
	args = argsReorder(args)
	fs := flag.NewFlagSet("fact list", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(args)

	entity := buildQuery(fs.Args())
	if entity == "" {
		fmt.Println("Usage: shirabe fact list <entity>")
		os.Exit(1)
	}

	components, logger := mustInitialize(*configPath)
	defer logger.Sync()
	defer components.Close()

	if components.Graph == nil {
		fmt.Println("Graph store is not configured")
		os.Exit(1)
	}
	facts, err := components.Graph.EntityFacts(context.Background(), entity)
	if err != nil {
		fmt.Printf("Listing facts failed: %v\n", err)
		os.Exit(1)
	}
	for _, fact := range facts {
		window := fact.ValidAt.Format("2006-01-02")
		if fact.InvalidAt != nil {
			window += " → " + fact.InvalidAt.Format("2006-01-02")
		}
		fmt.Printf("%s  [%s]  %s\n", fact.UUID[:8], window, fact.Fact)
	}
	if len(facts) == 0 {
		fmt.Printf("No facts found for %q\n", entity)
	}
}

func runHealth() {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	var health models.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("orchestrator: %s\n", health.Orchestrator)
	fmt.Printf("router:       %s\n", health.Router)
	for name, backend := range health.Backends {
		line := fmt.Sprintf("%s: %s", name, backend.Status)
		if backend.Detail != "" {
			line += " (" + backend.Detail + ")"
		}
		fmt.Println(line)
	}
}

// Components holds initialized services.
type Components struct {
	Store        *store.DocumentStore
	Graph        *graph.Store
	Embedder     embedding.Embedder
	Orchestrator *orchestrator.Orchestrator
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Graph != nil {
		_ = c.Graph.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func mustInitialize(configPath string) (*Components, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	return components, logger
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	var embedder embedding.Embedder
	if cfg.Embedding.ModelPath == "" {
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
		logger.Info("no embedding model configured, using deterministic embedder")
	} else {
		onnx, err := embedding.NewONNXEmbedder(cfg.Embedding.ModelPath, cfg.Embedding.Dimensions, cfg.Embedding.MaxTokens)
		if err != nil {
			logger.Warn("embedding model unavailable, falling back to deterministic embedder", zap.Error(err))
			embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
		} else {
			embedder = onnx
		}
	}
	embedder = embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)

	docs, err := store.New(store.Options{
		DatabasePath:     cfg.Storage.DatabasePath,
		KeywordIndexPath: cfg.Storage.BleveIndexPath,
		VectorIndexPath:  cfg.Storage.VectorIndexPath,
		Embedder:         embedder,
		ChunkSize:        cfg.Orchestrator.ChunkSize,
		ChunkOverlap:     cfg.Orchestrator.ChunkOverlap,
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize document store: %w", err)
	}

	facts, err := graph.New(cfg.Storage.GraphDatabasePath, logger)
	if err != nil {
		_ = docs.Close()
		return nil, fmt.Errorf("initialize graph store: %w", err)
	}

	orch := orchestrator.New(
		backends.Set{Documents: docs, Graph: facts},
		router.New(),
		&cfg.Orchestrator,
		logger,
	)

	return &Components{
		Store:        docs,
		Graph:        facts,
		Embedder:     embedder,
		Orchestrator: orch,
	}, nil
}

func printUsage() {
	fmt.Println(`shirabe - Query routing and multi-source search orchestration

Usage:
  shirabe server [flags]              Start the HTTP server
  shirabe search [flags] <query>      Route and run a query across backends
  shirabe route [flags] <query>       Show the routing decision for a query
  shirabe index [flags] <file>        Index a plain-text document
  shirabe delete [flags] <id>         Delete a document
  shirabe fact add [flags] <text>     Store a knowledge-graph fact
  shirabe fact list <entity>          List facts about an entity
  shirabe health [flags]              Check server and backend health
  shirabe version                     Show version
  shirabe help                        Show this help

Server Flags:
  --config string      Config file path (default: /usr/local/etc/shirabe/config.yaml)
  --debug              Enable debug logging

Search Flags:
  --config string      Config file path (for direct storage mode)
  --server string      Server URL (default: http://localhost:8080). Use --server "" for direct storage.
  --search-type string Force one search type: vector, hybrid, keyword, or graph
  --alpha float        Hybrid balance with -search-type (1.0 = semantic, 0.0 = keyword)
  --max-results int    Merged result limit
  --summary            Print a result summary after the results
  --output string      Output format: text or json (default: text)

Examples:
  shirabe server
  shirabe search how does monetary policy affect inflation
  shirabe search --search-type keyword "Q3 2024" revenue
  shirabe route "relationship between Apple Inc and Microsoft Corp"
  shirabe index --title "Q3 Report" q3-report.txt
  shirabe fact add --subject Acme --object Initech Acme ACQUIRED Initech
  shirabe fact list Acme`)
}
