package ai

import "context"

// TextGenerator produces model output for a prompt. The app depends on this
// interface so tests can substitute a fake for the Gemini API.
type TextGenerator interface {
	GenerateText(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}
