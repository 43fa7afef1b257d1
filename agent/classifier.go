package agent

import (
	"context"
	"fmt"

	"github.com/autostream-x/autostream-agent/types"
)

const classifierInstructions = `You are an intent classifier for AutoStream, a video editing SaaS. Classify the user's intent into exactly one of these categories: 'GREETING', 'PRODUCT_INQUIRY', 'HIGH_INTENT', 'PROVIDING_INFO'.

Definitions:
- GREETING: Casual hellos, polite meaningless pleasantries (e.g. 'hi', 'hello').
- PRODUCT_INQUIRY: Asking about pricing, features, policies. INCLUDES 'I would like to see/review/know about...'.
- HIGH_INTENT: Explicitly stating desire to buy, sign up, try, or use the product. Phrases like 'I want to try', 'Sign me up', 'Interested in Pro plan', 'I would like the basic plan', 'I will go with the pro plan'. EXCLUDES 'I would like to see/review'. INCLUDES indirect choices like 'plan seems like a good fit', 'sounds perfect', 'I will take it'.
- PROVIDING_INFO: The user is providing specific details (name, email, platform) in response to the bot's question. INCLUDES short answers like 'youtube', 'john', 'yes'.

IMPORTANT: If the Last Bot Message was asking a question (e.g. 'I need your name', 'which platform'), and the User Message is a direct answer, you MUST classify as PROVIDING_INFO.

Output ONLY the category name.`

// classify determines the intent of the latest user turn. The model
// sees the preceding assistant turn so short answers to the bot's own
// questions land on PROVIDING_INFO.
func (a *SalesAgent) classify(ctx context.Context, history []types.Turn) (types.Intent, error) {
	lastUser := ""
	if n := len(history); n > 0 {
		lastUser = history[n-1].Content
	}
	lastBot := "None"
	if n := len(history); n > 1 && history[n-2].Role == types.RoleAssistant {
		lastBot = history[n-2].Content
	}

	user := fmt.Sprintf("Context:\nLast Bot Message: %q\nUser Message: %q", lastBot, lastUser)
	raw, err := a.llm.Chat(ctx, classifierInstructions, user)
	if err != nil {
		return types.IntentUnclassified, err
	}

	intent, ok := types.ParseIntent(raw)
	if !ok {
		a.log.Debugf("no intent label in %q, defaulting to %s", raw, types.IntentProductInquiry)
		return types.IntentProductInquiry, nil
	}
	return intent, nil
}
