package agent

import (
	"context"
	"fmt"

	"github.com/autostream-x/autostream-agent/session"
	"github.com/autostream-x/autostream-agent/types"
)

// missingPrompts phrases each lead field the way the assistant asks
// for it.
var missingPrompts = map[string]string{
	"name":     "your name",
	"email":    "your email address",
	"platform": "which platform you create content for",
}

// qualify advances lead capture by one turn: extract whatever the
// history now holds, merge it into the lead, then either ask for the
// next missing field or submit the completed lead.
func (a *SalesAgent) qualify(ctx context.Context, sessionID string, st *session.State) (string, error) {
	candidate, err := a.extractCandidate(ctx, st.History)
	if err != nil {
		// A failed extraction call degrades to re-asking; the user's
		// answer stays in the history and is picked up next turn.
		a.log.WithField("session_id", sessionID).Warnf("extraction failed, continuing without candidate: %v", err)
		candidate = types.Candidate{}
	}

	st.Lead = st.Lead.Merge(candidate)
	a.broadcast(types.NewOperatorLog(types.EventExtraction, sessionID,
		fmt.Sprintf("lead name=%q email=%q platform=%q", st.Lead.Name, st.Lead.Email, st.Lead.Platform)))

	if field, missing := st.Lead.MissingField(); missing {
		return fmt.Sprintf("Great! I just need %s to get you started.", missingPrompts[field]), nil
	}

	result, err := a.sink.Submit(ctx, st.Lead.Name, st.Lead.Email, st.Lead.Platform)
	if err != nil {
		// The lead is complete in memory; only persistence failed. The
		// user still gets a confirmation while operators see the fault.
		a.log.WithField("session_id", sessionID).Error("lead store write failed", err)
		if a.events != nil {
			a.events.BroadcastError(sessionID, fmt.Sprintf("lead store write failed: %v", err))
		}
		result = "Lead captured (but could not be saved to the lead store)."
	} else {
		a.broadcast(types.NewOperatorLog(types.EventLead, sessionID,
			fmt.Sprintf("lead submitted name=%q platform=%q", st.Lead.Name, st.Lead.Platform)))
	}

	st.Intent = types.IntentComplete
	return fmt.Sprintf("Thanks %s! I've signed you up. %s", st.Lead.Name, result), nil
}
