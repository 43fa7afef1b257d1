// Package types holds the wire and domain types shared across the
// AutoStream agent: conversation turns, intent labels, the lead record
// and its merge rules, and the operator event payloads.
package types

import (
	"encoding/json"
	"strings"
	"time"
)

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one role-tagged message in the conversation history.
// Immutable once created; the ordered sequence of turns is the history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Intent is the categorical decision driving routing for one turn.
type Intent string

const (
	// IntentUnclassified means no label could be recognized. It is
	// never stored on a session; the classifier maps it to the
	// IntentProductInquiry default before returning.
	IntentUnclassified   Intent = ""
	IntentGreeting       Intent = "GREETING"
	IntentProductInquiry Intent = "PRODUCT_INQUIRY"
	IntentHighIntent     Intent = "HIGH_INTENT"
	IntentProvidingInfo  Intent = "PROVIDING_INFO"
	// IntentComplete marks a submitted lead. It terminates nothing:
	// classification resumes on the next turn.
	IntentComplete Intent = "COMPLETE"
)

// classifiableIntents is the fixed scan order for label recovery. The
// order matters only for determinism; no label token is a substring of
// another.
var classifiableIntents = []Intent{
	IntentGreeting,
	IntentProductInquiry,
	IntentHighIntent,
	IntentProvidingInfo,
}

// ParseIntent scans free text for one of the four classifiable label
// tokens and returns the first present. The generation backend is not
// guaranteed to emit a bare label, so substring matching is the
// contract here; ok is false when no token appears at all.
func ParseIntent(raw string) (Intent, bool) {
	up := strings.ToUpper(raw)
	for _, it := range classifiableIntents {
		if strings.Contains(up, string(it)) {
			return it, true
		}
	}
	return IntentUnclassified, false
}

// Lead is the incrementally filled prospect record. An empty string
// means the field is unknown; a set field is never cleared and never
// replaced during a merge.
type Lead struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Platform string `json:"platform"`
}

// Candidate is the ephemeral extraction result for one qualification
// turn. Pointer fields keep JSON null distinguishable from a value;
// candidates are merged into a Lead and discarded, never stored.
type Candidate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Platform *string `json:"platform"`
}

// Clean trims whitespace and drops values that are empty after
// trimming, so a blank string from the extractor never counts as a
// known field.
func (c Candidate) Clean() Candidate {
	clean := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		if v == "" {
			return nil
		}
		return &v
	}
	return Candidate{
		Name:     clean(c.Name),
		Email:    clean(c.Email),
		Platform: clean(c.Platform),
	}
}

// Merge adopts candidate values only for fields the lead does not know
// yet. Already-set fields win unconditionally, which makes the merge
// idempotent and protects the record against extraction drift on
// repeated turns.
func (l Lead) Merge(c Candidate) Lead {
	c = c.Clean()
	out := l
	if out.Name == "" && c.Name != nil {
		out.Name = *c.Name
	}
	if out.Email == "" && c.Email != nil {
		out.Email = *c.Email
	}
	if out.Platform == "" && c.Platform != nil {
		out.Platform = *c.Platform
	}
	return out
}

// Complete reports whether every field is known.
func (l Lead) Complete() bool {
	return l.Name != "" && l.Email != "" && l.Platform != ""
}

// MissingField returns the first unknown field in the fixed priority
// order name → email → platform. This is a priority chain, not a list:
// a missing name hides whether email or platform are also missing.
func (l Lead) MissingField() (string, bool) {
	switch {
	case l.Name == "":
		return "name", true
	case l.Email == "":
		return "email", true
	case l.Platform == "":
		return "platform", true
	}
	return "", false
}

// ChatRequest is the inbound transport payload.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is the outbound transport payload. SessionID echoes the
// (possibly server-assigned) conversation identity.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Operator event types carried over the websocket stream.
const (
	EventRouting    = "routing"
	EventExtraction = "extraction"
	EventLead       = "lead"
	EventError      = "error"
)

// OperatorLog is one event on the operator-facing channel: a routing
// decision, an extraction outcome, a captured lead, or a failure that
// the user was shielded from.
type OperatorLog struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Level     string `json:"level,omitempty"`
}

// NewOperatorLog creates an info-level operator event stamped now.
func NewOperatorLog(eventType, sessionID, content string) *OperatorLog {
	return &OperatorLog{
		Type:      eventType,
		SessionID: sessionID,
		Content:   content,
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     "info",
	}
}

// WebSocketMessage is the envelope pushed to dashboard clients.
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
}

// NewWebSocketMessage wraps a payload in an envelope stamped now.
func NewWebSocketMessage(msgType string, payload interface{}) *WebSocketMessage {
	return &WebSocketMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// ToJSON serializes the envelope for broadcast.
func (m *WebSocketMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
