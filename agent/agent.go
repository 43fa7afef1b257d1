// Package agent implements the dialogue controller for the AutoStream
// sales assistant. Each user turn is classified, routed to a response
// strategy, and folded back into the session state.
package agent

import (
	"context"
	"fmt"

	"github.com/autostream-x/autostream-agent/knowledge"
	"github.com/autostream-x/autostream-agent/leads"
	"github.com/autostream-x/autostream-agent/llm"
	"github.com/autostream-x/autostream-agent/logger"
	"github.com/autostream-x/autostream-agent/session"
	"github.com/autostream-x/autostream-agent/types"
	"github.com/autostream-x/autostream-agent/websocket"
)

const greetingMessage = "Hi there! I'm the AutoStream assistant. I can help you with pricing, features, or getting started. How can I help?"

// SalesAgent routes user turns to the right strategy and accumulates
// lead details over the conversation.
type SalesAgent struct {
	llm       llm.Client
	knowledge knowledge.Provider
	sink      leads.Sink
	events    *websocket.OperatorServer

	log *logger.Logger
}

// New creates a SalesAgent.
func New(client llm.Client, kp knowledge.Provider, sink leads.Sink) *SalesAgent {
	return &SalesAgent{
		llm:       client,
		knowledge: kp,
		sink:      sink,
		log:       logger.Component("agent"),
	}
}

// SetEventServer attaches the operator event stream. Optional; the
// agent works without one.
func (a *SalesAgent) SetEventServer(s *websocket.OperatorServer) {
	a.events = s
}

// HandleTurn processes one user message. It returns the updated state
// and the assistant's reply. On error the original state is returned
// unchanged so the caller can keep the session as it was.
func (a *SalesAgent) HandleTurn(ctx context.Context, sessionID string, st session.State, userText string) (session.State, string, error) {
	next := st.Clone()
	next.History = append(next.History, types.Turn{Role: types.RoleUser, Content: userText})

	intent, err := a.classify(ctx, next.History)
	if err != nil {
		return st, "", fmt.Errorf("classify turn: %w", err)
	}
	next.Intent = intent

	strategy := strategyFor(intent)
	a.log.WithField("session_id", sessionID).Debugf("routing intent=%s strategy=%s", intent, strategy)
	a.broadcast(types.NewOperatorLog(types.EventRouting, sessionID,
		fmt.Sprintf("intent=%s strategy=%s", intent, strategy)))

	var reply string
	switch intent {
	case types.IntentGreeting:
		reply = greetingMessage
	case types.IntentHighIntent, types.IntentProvidingInfo:
		reply, err = a.qualify(ctx, sessionID, &next)
	default:
		// PRODUCT_INQUIRY and anything unrecognized get a grounded answer.
		reply, err = a.inquire(ctx, next.History)
	}
	if err != nil {
		return st, "", err
	}

	next.History = append(next.History, types.Turn{Role: types.RoleAssistant, Content: reply})
	return next, reply, nil
}

func strategyFor(intent types.Intent) string {
	switch intent {
	case types.IntentGreeting:
		return "greeting"
	case types.IntentHighIntent, types.IntentProvidingInfo:
		return "qualification"
	default:
		return "inquiry"
	}
}

func (a *SalesAgent) broadcast(event *types.OperatorLog) {
	if a.events != nil {
		a.events.BroadcastEvent(event)
	}
}
