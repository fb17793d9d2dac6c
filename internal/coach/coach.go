package coach

import (
	"context"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"

	"github.com/BTreeMap/LifeRank/internal/knowledge"
	"github.com/BTreeMap/LifeRank/internal/models"
)

// Generator produces a completion from a message sequence. It is satisfied
// by the genai client.
type Generator interface {
	GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)
}

// Coach generates coaching responses in two tiers: GenAI when a generator
// is available and working, and the deterministic rule-based fallback
// otherwise. Respond never fails and never returns an empty string.
type Coach struct {
	generator Generator
	knowledge *knowledge.Loader
}

// NewCoach creates a coach. A nil generator disables the GenAI tier, so
// every response comes from the fallback.
func NewCoach(gen Generator, kn *knowledge.Loader) *Coach {
	if kn == nil {
		kn = knowledge.NewLoader()
	}
	slog.Debug("Coach.NewCoach: coach created", "genAIEnabled", gen != nil)
	return &Coach{generator: gen, knowledge: kn}
}

// Respond generates a coaching reply to message for the assembled context.
func (c *Coach) Respond(ctx context.Context, cctx CoachingContext, message string) string {
	if c.generator == nil {
		slog.Debug("Coach.Respond: no generator configured, using fallback")
		return Fallback(message, cctx)
	}

	systemPrompt := BuildSystemPrompt(cctx, c.knowledge.Load())
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2+len(cctx.RecentChats))
	messages = append(messages, openai.SystemMessage(systemPrompt))
	for _, chat := range cctx.RecentChats {
		if chat.Sender == models.SenderAI {
			messages = append(messages, openai.AssistantMessage(chat.Content))
		} else {
			messages = append(messages, openai.UserMessage(chat.Content))
		}
	}
	messages = append(messages, openai.UserMessage(message))

	out, err := c.generator.GenerateWithMessages(ctx, messages)
	if err != nil {
		slog.Warn("Coach.Respond: generation failed, using fallback", "error", err)
		return Fallback(message, cctx)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		slog.Warn("Coach.Respond: empty generation, using fallback")
		return Fallback(message, cctx)
	}
	slog.Debug("Coach.Respond: GenAI response generated", "length", len(out))
	return out
}
