package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"finchat/internal/amqp"
	"finchat/internal/chat"
	"finchat/internal/cli"
	"finchat/internal/perplexity"
	"finchat/internal/prompt"
)

func main() {
	resume := flag.Bool("resume", false, "resume the most recent session instead of starting a new one")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting finchat")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshot := cli.LoadSnapshot(ctx, logger, cfg)
	contextText := prompt.FormatSnapshot(snapshot)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Transcript events are optional; without a broker URL replies are only
	// stored locally.
	var publisher chat.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP transcript events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP transcript events disabled - no AMQP_URL provided")
	}

	responder := perplexity.New(perplexity.Config{
		APIKey:      cfg.PerplexityAPIKey,
		BaseURL:     cfg.PerplexityBaseURL,
		Model:       cfg.PerplexityModel,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.RequestTimeout,
	})

	sessionCfg := chat.Config{
		Context:      contextText,
		Responder:    responder,
		Store:        repo,
		Publisher:    publisher,
		HistoryLimit: cfg.HistoryLimit,
	}

	resumed := false
	if *resume {
		previous, err := repo.LatestSessionID(ctx)
		if err != nil {
			logger.Error("Failed to look up previous session", "error", err)
			os.Exit(1)
		}
		if previous != uuid.Nil {
			sessionCfg.ID = previous
			resumed = true
		} else {
			logger.Info("No previous session found, starting a new one")
		}
	}

	session := chat.NewSession(sessionCfg)
	if resumed {
		turns, err := repo.Messages(ctx, session.ID())
		if err != nil {
			logger.Error("Failed to load previous transcript", "error", err)
			os.Exit(1)
		}
		session.Seed(turns)
		logger.Info("Resumed session", "session_id", session.ID(), "turns", len(turns))
	} else {
		if err := repo.CreateSession(ctx, session.ID(), cfg.SnapshotSource); err != nil {
			logger.Error("Failed to create session record", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("Session ready", "session_id", session.ID(), "source", cfg.SnapshotSource)
	fmt.Println("Ask about your finances. Type 'exit' or press Ctrl-D to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			break
		}

		reply := session.Ask(ctx, query)
		fmt.Println()
		fmt.Println(reply)
		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		logger.Error("Input error", "error", err)
		os.Exit(1)
	}
	logger.Info("Session ended", "session_id", session.ID(), "turns", len(session.History()))
}
