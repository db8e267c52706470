package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/counsel0/counsel/internal/config"
	"github.com/counsel0/counsel/internal/conversation"
	"github.com/counsel0/counsel/internal/engine"
	"github.com/counsel0/counsel/internal/provider"
	"github.com/counsel0/counsel/internal/toolcall"
)

// runAsk answers a single question on the terminal and exits. Progress
// events go to stderr so stdout carries only the answer.
func runAsk() error {
	question := strings.TrimSpace(strings.Join(os.Args[2:], " "))
	if question == "" {
		return fmt.Errorf("usage: counsel ask <question>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	client, err := provider.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating provider client: %w", err)
	}

	servers := cfg.ToolServers
	if len(servers) == 0 {
		servers = config.DefaultToolServers()
	}

	router := toolcall.NewRouter(logger)
	if err := router.Connect(ctx, servers); err != nil {
		return fmt.Errorf("connecting tool servers: %w", err)
	}
	defer router.Close()

	executor := toolcall.NewExecutor(router, logger,
		time.Duration(cfg.ToolTimeoutSeconds)*time.Second)

	controller := engine.NewController(client, executor, logger, nil, engine.Options{
		Model:           cfg.ModelName,
		System:          buildSystemPrompt(router.Tools()),
		MaxTokens:       cfg.MaxTokens,
		Temperature:     cfg.Temperature,
		MaxSteps:        cfg.MaxSteps,
		ProviderTimeout: time.Duration(cfg.ProviderTimeoutSeconds) * time.Second,
	})

	history := conversation.NewHistory()
	history.Append(conversation.User(question))

	notify := engine.NotifierFunc(func(ev engine.Event) {
		switch ev.Type {
		case engine.EventResponse:
			fmt.Println(ev.Content)
			if len(ev.ResearchTasks) > 0 {
				fmt.Fprintf(os.Stderr, "* follow-up research: %s\n",
					strings.Join(ev.ResearchTasks, "; "))
			}
		case engine.EventSystem:
			fmt.Fprintf(os.Stderr, "* %s\n", ev.Content)
		case engine.EventError:
			fmt.Fprintf(os.Stderr, "error: %s\n", ev.Content)
		case engine.EventTitle:
			fmt.Fprintf(os.Stderr, "* title: %s\n", ev.SuggestedTitle)
		case engine.EventThinking, engine.EventComplete:
			// Thinking stays quiet in one-shot mode; complete needs no
			// rendering on a terminal.
		}
	})

	if err := controller.Run(ctx, history, notify); err != nil {
		return fmt.Errorf("turn loop failed: %w", err)
	}
	return nil
}
