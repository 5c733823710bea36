package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/okayama-daiki/sensei/internal/agent"
	"github.com/okayama-daiki/sensei/internal/gateway"
	"github.com/okayama-daiki/sensei/internal/observability"
	"github.com/okayama-daiki/sensei/internal/store"
	"github.com/okayama-daiki/sensei/internal/tools"
	"github.com/okayama-daiki/sensei/pkg/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

func main() {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load("config.json")
	if err != nil {
		log.Fatal(err)
	}

	observability.PrintBanner(cfg.App.Name)

	registry := tools.NewRegistry()
	registry.Register(tools.NewAlgorithmInfoTool())
	registry.Register(tools.NewComplexityAnalysisTool())

	history, err := store.NewHistoryStore(cfg.Memory.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer history.Close()

	prompts := agent.NewPromptManager(cfg.Prompts.Directory)
	logger := observability.NewLogger(cfg.Logs.Directory)

	pName, pCfg := cfg.GetDefaultProvider()
	if pName == "" {
		log.Fatal("No enabled provider found in config")
	}
	if pCfg.APIKey == "" {
		log.Fatal("No API key configured; set OPENAI_API_KEY or providers.*.api_key")
	}

	var llm llms.Model
	switch pName {
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(pCfg.APIKey),
			openai.WithModel(pCfg.Model),
		}
		if pCfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(pCfg.BaseURL))
		}
		llm, err = openai.New(opts...)
	default:
		log.Fatalf("Provider %s not yet implemented", pName)
	}
	if err != nil {
		log.Fatal(err)
	}

	professor := agent.NewProfessor(llm, registry, history, prompts, logger)
	if cfg.Agent.MaxToolSteps > 0 {
		professor.MaxToolSteps = cfg.Agent.MaxToolSteps
	}
	if cfg.Agent.MaxRetries > 0 {
		professor.MaxRetries = cfg.Agent.MaxRetries
	}
	if cfg.Agent.RetryBackoffMS > 0 {
		professor.RetryBackoff = time.Duration(cfg.Agent.RetryBackoffMS) * time.Millisecond
	}

	// One fresh session per process invocation.
	sessionID := uuid.NewString()
	student := agent.Context{StudentID: cfg.App.StudentID}
	console := gateway.NewConsole(professor, sessionID, student)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- console.Run(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Fatal(err)
		}
	case <-ctx.Done():
		fmt.Println("\nInterrupted. Exiting.")
	}
}
