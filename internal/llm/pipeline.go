package llm

import (
	"context"
	"fmt"
	"strings"
)

// systemInstruction is the fixed stage-1 instruction.
const systemInstruction = `You are an assistant, your task is to help people provide latest info about crypto currencies using the provided dataset.`

// ModerationNotice replaces an answer the screening stage flags.
const ModerationNotice = "Text was found that violates OpenAI's content policy."

// Pipeline runs the two-stage response sequence: generate an answer from the
// retrieved context and the question, then screen it. There is no retry; any
// transport failure fails the request.
type Pipeline struct {
	generator Generator
	moderator Moderator
}

// NewPipeline wires the two stages.
func NewPipeline(generator Generator, moderator Moderator) *Pipeline {
	return &Pipeline{generator: generator, moderator: moderator}
}

// Respond generates an answer conditioned on the retrieved passages and the
// user's question, and screens it. A flagged answer is replaced with
// ModerationNotice rather than surfaced.
func (p *Pipeline) Respond(ctx context.Context, contextText, question string) (string, error) {
	user := fmt.Sprintf("%s Question: %s", contextText, question)

	answer, err := p.generator.Generate(ctx, systemInstruction, user)
	if err != nil {
		return "", fmt.Errorf("generation stage: %w", err)
	}
	answer = strings.TrimSpace(answer)

	flagged, err := p.moderator.Moderate(ctx, answer)
	if err != nil {
		return "", fmt.Errorf("moderation stage: %w", err)
	}
	if flagged {
		return ModerationNotice, nil
	}

	return answer, nil
}
