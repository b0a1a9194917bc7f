package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"iaboy/internal/config"
	"iaboy/internal/emulator"
	"iaboy/internal/history"
	"iaboy/internal/httpapi"
	"iaboy/internal/llm"
	"iaboy/internal/reward"
	"iaboy/internal/scheduler"
	"iaboy/internal/session"
	"iaboy/internal/storage"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	oracle, err := llm.NewFactory(cfg).CreateClient(cfg.LLMProvider, cfg.LLMModel)
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	catalog := emulator.NewCatalog(cfg.RomsPath)
	hist := history.NewManager(cfg.HistoryMaxTurns, cfg.HistoryMaxChars)
	arbiter := session.NewArbiter(oracle, hist, session.ArbiterConfig{
		OracleTimeout: cfg.OracleTimeout,
		FallbackLabel: cfg.DefaultAction,
		PromptTurns:   cfg.PromptTurns,
		SystemPrompt:  readSystemPrompt(cfg.SystemPromptPath),
	})

	var recorder storage.Recorder
	var stepLog storage.Loader
	if cfg.StepLogPath != "" {
		fr, err := storage.NewFileRecorder(cfg.StepLogPath)
		if err != nil {
			log.Printf("failed to init step recorder: %v", err)
		} else {
			recorder = fr
			stepLog = fr
		}
	}

	manager := session.NewManager(
		catalog,
		emulator.SyntheticFactory(cfg.FrameSkip),
		arbiter,
		hist,
		reward.New(cfg.RewardWeights),
		recorder,
		cfg.SaveStatesPath,
		cfg.AutosaveIntervalSteps,
	)

	janitor := scheduler.New(cfg.IdleSweepEvery, func() int {
		return manager.CloseIdle(cfg.SessionIdleTTL)
	})
	if err := janitor.Start(); err != nil {
		log.Fatalf("failed to start janitor: %v", err)
	}

	api := httpapi.NewServer(manager, catalog, stepLog, cfg.ServerPort)
	go func() {
		if err := api.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("🛑 Shutting down...")
	janitor.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := api.Stop(ctx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	manager.Shutdown()
}

func readSystemPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("system prompt file not found or unreadable at %s: %v", path, err)
		return ""
	}
	return string(data)
}
