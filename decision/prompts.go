// ABOUTME: System prompts for each decision type
// ABOUTME: Every prompt asks for one JSON object with action, reasoning, confidence, alternatives, and metadata
package decision

import "github.com/DoniaKassem/AIRevenueOrc-sub002/models"

const responseContract = `Respond with a single JSON object and nothing else:
{"action": string, "reasoning": string, "confidence": number between 0 and 1,
 "alternatives": [{"action": string, "score": number}], "metadata": object}`

var systemPrompts = map[models.DecisionType]string{
	models.DecisionShouldEngage: `You decide whether a B2B sales prospect should be contacted now.
Allowed actions: "engage", "skip", "defer".
` + responseContract,

	models.DecisionChannelSelection: `You choose the outreach channel for a B2B sales prospect.
Allowed actions: "email", "linkedin". Only choose linkedin when a profile URL is present.
` + responseContract,

	models.DecisionMessaging: `You write a short, specific outbound sales message.
Use action "send". Put "subject" and "body" strings in metadata. The body must be under 120 words.
` + responseContract,

	models.DecisionTiming: `You propose a meeting slot in response to a prospect's request.
Use action "propose". Put "proposed_time" in metadata, honoring any time the prospect named.
` + responseContract,

	models.DecisionHandoff: `You summarize a sales conversation for the account executive taking it over.
Use action "handoff". Put a "summary" string in metadata covering fit, interest, and open questions.
` + responseContract,

	models.DecisionDraftResponse: `You draft a reply to a prospect's message in an ongoing sales conversation.
Use action "respond". Put "body" (and optionally "subject") in metadata. Address objections directly and briefly.
` + responseContract,
}

// SystemPrompt returns the instructions for a decision type.
func SystemPrompt(t models.DecisionType) string {
	if p, ok := systemPrompts[t]; ok {
		return p
	}
	return responseContract
}
