package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/autostream-x/autostream-agent/agent"
	"github.com/autostream-x/autostream-agent/api"
	"github.com/autostream-x/autostream-agent/config"
	"github.com/autostream-x/autostream-agent/knowledge"
	"github.com/autostream-x/autostream-agent/leads"
	"github.com/autostream-x/autostream-agent/llm"
	"github.com/autostream-x/autostream-agent/logger"
	"github.com/autostream-x/autostream-agent/session"
	"github.com/autostream-x/autostream-agent/websocket"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional)")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log := logger.GetLogger()
	if level, err := logger.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}
	log.SetJSONFormat(cfg.Log.Format != "text")

	client, err := llm.NewFromEnv()
	if err != nil {
		if err == llm.ErrLLMDisabled {
			log.Fatal("no LLM credentials configured, set LLM_API_KEY or use LLM_PROVIDER=ollama", err)
		}
		log.Fatal("llm setup failed", err)
	}

	kp := knowledge.NewFileProvider(cfg.Knowledge.Path)
	sink := leads.NewCSVSink(cfg.Leads.CSVPath)

	salesAgent := agent.New(client, kp, sink)

	events := websocket.NewOperatorServer(cfg.Server.WSPort)
	if err := events.Start(); err != nil {
		log.Fatal("operator event server failed to start", err)
	}
	salesAgent.SetEventServer(events)

	srv := api.NewServer(salesAgent, session.NewMemoryStore(), cfg.Server.StaticDir)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Handler(),
	}

	go func() {
		log.Infof("autostream agent listening on :%d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("http shutdown", err)
	}
	if err := events.Stop(); err != nil {
		log.Error("event server shutdown", err)
	}
}
