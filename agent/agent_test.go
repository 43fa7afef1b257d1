package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/autostream-x/autostream-agent/session"
	"github.com/autostream-x/autostream-agent/types"
)

// fakeLLM scripts each dialogue stage by inspecting the system prompt.
type fakeLLM struct {
	intent     string
	extraction string
	answer     string
	err        error
}

func (f *fakeLLM) Chat(ctx context.Context, system, user string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	switch {
	case strings.Contains(system, "intent classifier"):
		return f.intent, nil
	case strings.Contains(system, "Extract the following fields"):
		return f.extraction, nil
	default:
		return f.answer, nil
	}
}

// fakeKnowledge returns a fixed context.
type fakeKnowledge struct{ docs string }

func (f *fakeKnowledge) FetchContext(ctx context.Context, query string) (string, error) {
	return f.docs, nil
}

// fakeSink records submissions.
type fakeSink struct {
	calls []string
	err   error
}

func (f *fakeSink) Submit(ctx context.Context, name, email, platform string) (string, error) {
	f.calls = append(f.calls, name+"|"+email+"|"+platform)
	if f.err != nil {
		return "", f.err
	}
	return "Lead captured successfully.", nil
}

func newTestAgent(llm *fakeLLM, sink *fakeSink) *SalesAgent {
	return New(llm, &fakeKnowledge{docs: "Basic: $29/mo. Pro: $79/mo."}, sink)
}

func TestGreetingTurn(t *testing.T) {
	sink := &fakeSink{}
	a := newTestAgent(&fakeLLM{intent: "GREETING"}, sink)

	st, reply, err := a.HandleTurn(context.Background(), "s1", session.NewState(), "hi")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if !strings.Contains(reply, "I'm the AutoStream assistant") {
		t.Errorf("reply = %q", reply)
	}
	if st.Intent != types.IntentGreeting {
		t.Errorf("intent = %q", st.Intent)
	}
	if len(st.History) != 2 {
		t.Errorf("history length = %d, want user + assistant", len(st.History))
	}
	if st.Lead != (types.Lead{}) {
		t.Errorf("greeting must not touch the lead: %+v", st.Lead)
	}
	if len(sink.calls) != 0 {
		t.Error("greeting must not submit a lead")
	}
}

func TestInquiryTurn(t *testing.T) {
	a := newTestAgent(&fakeLLM{intent: "PRODUCT_INQUIRY", answer: "The Pro plan is $79/mo."}, &fakeSink{})

	st, reply, err := a.HandleTurn(context.Background(), "s1", session.NewState(), "how much is pro?")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if reply != "The Pro plan is $79/mo." {
		t.Errorf("reply = %q", reply)
	}
	if st.Intent != types.IntentProductInquiry {
		t.Errorf("intent = %q", st.Intent)
	}
}

func TestChattyClassifierOutputStillRoutes(t *testing.T) {
	a := newTestAgent(&fakeLLM{
		intent:     "The category is HIGH_INTENT, because the user wants the plan.",
		extraction: `{"name": null, "email": null, "platform": null}`,
	}, &fakeSink{})

	st, reply, err := a.HandleTurn(context.Background(), "s1", session.NewState(), "I want the pro plan")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if st.Intent != types.IntentHighIntent {
		t.Errorf("intent = %q", st.Intent)
	}
	if !strings.Contains(reply, "your name") {
		t.Errorf("reply = %q, want request for the name first", reply)
	}
}

func TestUnrecognizedLabelDefaultsToInquiry(t *testing.T) {
	a := newTestAgent(&fakeLLM{intent: "MAYBE_SOMETHING", answer: "grounded answer"}, &fakeSink{})

	st, reply, err := a.HandleTurn(context.Background(), "s1", session.NewState(), "hmm")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if st.Intent != types.IntentProductInquiry {
		t.Errorf("intent = %q, want default PRODUCT_INQUIRY", st.Intent)
	}
	if reply != "grounded answer" {
		t.Errorf("reply = %q", reply)
	}
}

func TestQualificationAsksNextMissingField(t *testing.T) {
	a := newTestAgent(&fakeLLM{
		intent:     "PROVIDING_INFO",
		extraction: `{"name": null, "email": "sam@example.com", "platform": null}`,
	}, &fakeSink{})

	st := session.NewState()
	st.Lead = types.Lead{Name: "Sam"}

	st, reply, err := a.HandleTurn(context.Background(), "s1", st, "sam@example.com")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if st.Lead.Email != "sam@example.com" {
		t.Errorf("email = %q", st.Lead.Email)
	}
	if !strings.Contains(reply, "which platform you create content for") {
		t.Errorf("reply = %q, want platform question", reply)
	}
}

func TestMergeNeverOverwritesKnownFields(t *testing.T) {
	a := newTestAgent(&fakeLLM{
		intent:     "PROVIDING_INFO",
		extraction: `{"name": "Samuel L.", "email": null, "platform": null}`,
	}, &fakeSink{})

	st := session.NewState()
	st.Lead = types.Lead{Name: "Sam"}

	st, _, err := a.HandleTurn(context.Background(), "s1", st, "actually call me Samuel")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if st.Lead.Name != "Sam" {
		t.Errorf("name = %q, set fields must never change", st.Lead.Name)
	}
}

func TestCompletedLeadSubmittedOnce(t *testing.T) {
	sink := &fakeSink{}
	a := newTestAgent(&fakeLLM{
		intent:     "PROVIDING_INFO",
		extraction: `{"name": "Sam", "email": "sam@example.com", "platform": "YouTube"}`,
	}, sink)

	st, reply, err := a.HandleTurn(context.Background(), "s1", session.NewState(), "I'm Sam, sam@example.com, YouTube")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if len(sink.calls) != 1 {
		t.Fatalf("sink calls = %d, want 1", len(sink.calls))
	}
	if sink.calls[0] != "Sam|sam@example.com|YouTube" {
		t.Errorf("submitted = %q", sink.calls[0])
	}
	if st.Intent != types.IntentComplete {
		t.Errorf("intent = %q, want COMPLETE", st.Intent)
	}
	if !strings.Contains(reply, "Thanks Sam!") || !strings.Contains(reply, "Lead captured successfully.") {
		t.Errorf("reply = %q", reply)
	}
}

func TestSinkFailureDegradesSoftly(t *testing.T) {
	sink := &fakeSink{err: errors.New("disk full")}
	a := newTestAgent(&fakeLLM{
		intent:     "PROVIDING_INFO",
		extraction: `{"name": "Sam", "email": "sam@example.com", "platform": "YouTube"}`,
	}, sink)

	st, reply, err := a.HandleTurn(context.Background(), "s1", session.NewState(), "all my details")
	if err != nil {
		t.Fatalf("sink failure must not fail the turn: %v", err)
	}
	if !strings.Contains(reply, "could not be saved") {
		t.Errorf("reply = %q, want degraded confirmation", reply)
	}
	if st.Intent != types.IntentComplete {
		t.Errorf("intent = %q, want COMPLETE even on sink failure", st.Intent)
	}
}

func TestMalformedExtractionReasks(t *testing.T) {
	a := newTestAgent(&fakeLLM{
		intent:     "PROVIDING_INFO",
		extraction: "I couldn't find anything useful, sorry!",
	}, &fakeSink{})

	st, reply, err := a.HandleTurn(context.Background(), "s1", session.NewState(), "garbled")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if st.Lead != (types.Lead{}) {
		t.Errorf("lead = %+v, want untouched", st.Lead)
	}
	if !strings.Contains(reply, "your name") {
		t.Errorf("reply = %q, want re-ask for first missing field", reply)
	}
}

func TestClassifierFailureLeavesStateUnchanged(t *testing.T) {
	a := newTestAgent(&fakeLLM{err: errors.New("provider down")}, &fakeSink{})

	orig := session.NewState()
	orig.History = append(orig.History, types.Turn{Role: types.RoleUser, Content: "earlier"})
	orig.Lead = types.Lead{Name: "Sam"}

	st, _, err := a.HandleTurn(context.Background(), "s1", orig, "hello?")
	if err == nil {
		t.Fatal("expected error when the provider is down")
	}
	if len(st.History) != 1 || st.Lead.Name != "Sam" {
		t.Errorf("state changed on error: %+v", st)
	}
}

func TestConversationAcrossTurns(t *testing.T) {
	sink := &fakeSink{}
	llm := &fakeLLM{intent: "HIGH_INTENT", extraction: `{"name": null, "email": null, "platform": null}`}
	a := newTestAgent(llm, sink)
	ctx := context.Background()

	st := session.NewState()
	var err error
	st, _, err = a.HandleTurn(ctx, "s1", st, "sign me up for pro")
	if err != nil {
		t.Fatal(err)
	}

	llm.intent = "PROVIDING_INFO"
	llm.extraction = `{"name": "Sam", "email": null, "platform": null}`
	st, reply, err := a.HandleTurn(ctx, "s1", st, "Sam")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply, "your email address") {
		t.Errorf("reply = %q", reply)
	}

	llm.extraction = `{"name": "Sam", "email": "sam@example.com", "platform": "Twitch"}`
	st, reply, err = a.HandleTurn(ctx, "s1", st, "sam@example.com and I stream on Twitch")
	if err != nil {
		t.Fatal(err)
	}
	if len(sink.calls) != 1 {
		t.Fatalf("sink calls = %d, want exactly 1", len(sink.calls))
	}
	if st.Intent != types.IntentComplete {
		t.Errorf("intent = %q", st.Intent)
	}
	if !strings.Contains(reply, "Thanks Sam!") {
		t.Errorf("reply = %q", reply)
	}
	if len(st.History) != 6 {
		t.Errorf("history length = %d, want 6 turns", len(st.History))
	}
}
