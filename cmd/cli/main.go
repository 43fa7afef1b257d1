// Command cli runs the sales assistant as a local REPL, no server
// required.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/autostream-x/autostream-agent/agent"
	"github.com/autostream-x/autostream-agent/config"
	"github.com/autostream-x/autostream-agent/knowledge"
	"github.com/autostream-x/autostream-agent/leads"
	"github.com/autostream-x/autostream-agent/llm"
	"github.com/autostream-x/autostream-agent/logger"
	"github.com/autostream-x/autostream-agent/session"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Keep the transcript clean; warnings still surface.
	log := logger.GetLogger()
	log.SetLevel(logger.WARN)
	log.SetOutput(os.Stderr)
	log.SetJSONFormat(false)

	client, err := llm.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "llm: %v\n", err)
		os.Exit(1)
	}

	salesAgent := agent.New(
		client,
		knowledge.NewFileProvider(cfg.Knowledge.Path),
		leads.NewCSVSink(cfg.Leads.CSVPath),
	)

	sessionID := uuid.NewString()
	st := session.NewState()
	ctx := context.Background()

	fmt.Println("Bot: Hi! I'm the AutoStream assistant. How can I help you today?")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "quit", "exit", "bye":
			fmt.Println("Bot: Goodbye!")
			return
		}

		next, reply, err := salesAgent.HandleTurn(ctx, sessionID, st, input)
		if err != nil {
			fmt.Printf("An error occurred: %v\n", err)
			continue
		}
		st = next
		fmt.Printf("Bot: %s\n", reply)
	}
}
