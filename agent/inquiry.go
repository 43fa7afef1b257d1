package agent

import (
	"context"
	"fmt"

	"github.com/autostream-x/autostream-agent/types"
)

// inquire answers a product question grounded in the knowledge base.
// The model is told to stay inside the supplied context, so a missing
// knowledge base degrades to "I don't know" answers.
func (a *SalesAgent) inquire(ctx context.Context, history []types.Turn) (string, error) {
	lastUser := ""
	if n := len(history); n > 0 {
		lastUser = history[n-1].Content
	}

	docs, err := a.knowledge.FetchContext(ctx, lastUser)
	if err != nil {
		return "", fmt.Errorf("fetch knowledge: %w", err)
	}

	system := fmt.Sprintf("You are a helpful assistant for AutoStream. Answer the user's question using ONLY the following context. If the answer isn't in the context, say you don't know.\n\nContext:\n%s", docs)
	reply, err := a.llm.Chat(ctx, system, lastUser)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return reply, nil
}
