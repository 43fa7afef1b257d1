package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/autostream-x/autostream-agent/types"
)

const extractionInstructions = `Extract the following fields from the conversation history if available: Name, Email, Creator Platform (YouTube, Instagram, etc.). Return as JSON: {"name": ..., "email": ..., "platform": ...}. If a field is missing, use null. IMPORTANT: 'platform' must be a content creation platform like 'YouTube', 'Instagram', 'TikTok', 'Twitch'. Do NOT use email providers (gmail) or plan names (Basic/Pro) as the platform. If the user hasn't explicitly stated a platform, return null. IMPORTANT: Output ONLY valid JSON.`

// candidateSchema validates the shape of an extraction result before
// it is allowed near the lead record.
const candidateSchema = `{
	"type": "object",
	"properties": {
		"name":     {"type": ["string", "null"]},
		"email":    {"type": ["string", "null"]},
		"platform": {"type": ["string", "null"]}
	}
}`

var candidateSchemaLoader = gojsonschema.NewStringLoader(candidateSchema)

// extractCandidate runs field extraction over the entire history.
// Provider failures are returned; malformed model output yields an
// empty candidate, since a bad extraction turn must not abort
// qualification.
func (a *SalesAgent) extractCandidate(ctx context.Context, history []types.Turn) (types.Candidate, error) {
	var sb strings.Builder
	sb.WriteString("History:\n")
	for _, t := range history {
		fmt.Fprintf(&sb, "%s: %s\n", t.Role, t.Content)
	}

	raw, err := a.llm.Chat(ctx, extractionInstructions, sb.String())
	if err != nil {
		return types.Candidate{}, err
	}

	candidate, err := parseCandidate(raw)
	if err != nil {
		a.log.Debugf("extraction output unusable: %v", err)
		return types.Candidate{}, nil
	}
	return candidate, nil
}

// parseCandidate recovers a candidate from free-form model output:
// markdown fences are stripped, and only the outermost brace span is
// parsed so surrounding chatter is ignored.
func parseCandidate(raw string) (types.Candidate, error) {
	content := strings.ReplaceAll(raw, "```json", "")
	content = strings.ReplaceAll(content, "```", "")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return types.Candidate{}, fmt.Errorf("no JSON object in %q", raw)
	}
	content = content[start : end+1]

	result, err := gojsonschema.Validate(candidateSchemaLoader, gojsonschema.NewStringLoader(content))
	if err != nil {
		return types.Candidate{}, fmt.Errorf("candidate not parseable: %w", err)
	}
	if !result.Valid() {
		return types.Candidate{}, fmt.Errorf("candidate rejected by schema: %v", result.Errors())
	}

	var c types.Candidate
	if err := json.Unmarshal([]byte(content), &c); err != nil {
		return types.Candidate{}, fmt.Errorf("unmarshal candidate: %w", err)
	}
	return c.Clean(), nil
}
