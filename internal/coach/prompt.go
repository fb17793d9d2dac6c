package coach

import (
	"fmt"
	"strings"

	"github.com/BTreeMap/LifeRank/internal/models"
)

// Limits on how much context is rendered into the system prompt.
const (
	// maxPromptGoals caps how many goals are listed.
	maxPromptGoals = 5
	// maxPromptUpdates caps how many recent score changes are listed.
	maxPromptUpdates = 5
	// maxPromptActivities caps how many recent activity entries are listed.
	maxPromptActivities = 5
	// maxPromptChats caps how many recent chat turns are listed.
	maxPromptChats = 6
	// maxPromptMessageLen truncates long messages in the conversation recap.
	maxPromptMessageLen = 100
)

const promptHeader = `You are a Life Rank AI Coach, a supportive and knowledgeable personal development assistant. Your role is to help users improve their overall life satisfaction and scores across different life categories.

COACHING PRINCIPLES:
- Be encouraging, supportive, and empathetic
- Provide specific, actionable advice
- Focus on small, achievable improvements
- Celebrate progress and milestones
- Help users set SMART goals (Specific, Measurable, Achievable, Relevant, Time-bound)
- Use motivational interviewing techniques

LIFE RANK CATEGORIES (scored 1-10):
- Health: Physical fitness, nutrition, sleep, mental health
- Career: Job satisfaction, skills development, advancement, work-life balance
- Relationships: Family, romantic partnerships, friendships, social connections
- Finances: Budgeting, saving, investing, debt management, financial security
- Personal Growth: Hobbies, learning, self-improvement, creativity
- Social Life: Community involvement, social activities, networking
`

const promptGuidelines = `
RESPONSE GUIDELINES:
- Keep responses conversational and personal
- Reference the user's specific scores and goals when relevant
- Provide 1-3 concrete action steps
- Ask follow-up questions to engage the user
- Limit responses to 150-200 words for better engagement
- Use encouraging language and positive reinforcement
`

// BuildSystemPrompt renders the coaching system prompt: fixed principles,
// the coaching knowledge document, and the user's profile, scores, goals,
// and recent conversation.
func BuildSystemPrompt(ctx CoachingContext, knowledgeDoc string) string {
	var b strings.Builder
	b.WriteString(promptHeader)

	if knowledgeDoc != "" {
		b.WriteString("\nCOACHING KNOWLEDGE:\n")
		b.WriteString(knowledgeDoc)
		if !strings.HasSuffix(knowledgeDoc, "\n") {
			b.WriteString("\n")
		}
	}

	if ctx.User != nil {
		b.WriteString("\nUSER PROFILE:\n")
		name := ctx.User.Name
		if name == "" {
			name = "Not provided"
		}
		fmt.Fprintf(&b, "- Name: %s\n", name)
		fmt.Fprintf(&b, "- Email: %s\n", ctx.User.Email)
	}

	if ctx.Stats != nil {
		b.WriteString("\nCURRENT LIFE SCORES:\n")
		fmt.Fprintf(&b, "- Overall Score: %s/10\n", formatScore(ctx.Stats.OverallScore))
		for _, c := range models.Categories() {
			fmt.Fprintf(&b, "- %s: %s/10\n", categoryTitle(c), formatScore(ctx.Stats.CategoryScore(c)))
		}
	}

	if len(ctx.Goals) > 0 {
		b.WriteString("\nACTIVE GOALS:\n")
		goals := ctx.Goals
		if len(goals) > maxPromptGoals {
			goals = goals[:maxPromptGoals]
		}
		for _, g := range goals {
			status := fmt.Sprintf("%.0f%% Complete", g.Progress)
			if g.IsCompleted {
				status = "✅ Completed"
			}
			fmt.Fprintf(&b, "- %s (%s): %s\n", g.Title, g.Category, status)
		}
	}

	if len(ctx.ScoreUpdates) > 0 {
		b.WriteString("\nRECENT SCORE CHANGES:\n")
		updates := ctx.ScoreUpdates
		if len(updates) > maxPromptUpdates {
			updates = updates[:maxPromptUpdates]
		}
		for _, u := range updates {
			fmt.Fprintf(&b, "- %s: %s -> %s", categoryTitle(u.Category), formatScore(u.OldScore), formatScore(u.NewScore))
			if u.Reason != "" {
				fmt.Fprintf(&b, " (%s)", truncate(u.Reason, maxPromptMessageLen))
			}
			b.WriteString("\n")
		}
	}

	if len(ctx.ActivityLogs) > 0 {
		b.WriteString("\nRECENT ACTIVITY:\n")
		logs := ctx.ActivityLogs
		if len(logs) > maxPromptActivities {
			logs = logs[:maxPromptActivities]
		}
		for _, e := range logs {
			fmt.Fprintf(&b, "- [%s] %s\n", e.Category, truncate(e.Description, maxPromptMessageLen))
		}
	}

	if len(ctx.RecentChats) > 0 {
		b.WriteString("\nRECENT CONVERSATION CONTEXT:\n")
		chats := ctx.RecentChats
		if len(chats) > maxPromptChats {
			chats = chats[len(chats)-maxPromptChats:]
		}
		for _, c := range chats {
			speaker := "User"
			if c.Sender == models.SenderAI {
				speaker = "Coach"
			}
			fmt.Fprintf(&b, "- %s: %s...\n", speaker, truncate(c.Content, maxPromptMessageLen))
		}
	}

	b.WriteString(promptGuidelines)
	return b.String()
}

// formatScore renders a score the way it is shown to users, e.g. "7.0".
func formatScore(score float64) string {
	return fmt.Sprintf("%.1f", score)
}

// categoryTitle returns the display name for a category.
func categoryTitle(c models.Category) string {
	switch c {
	case models.CategoryPersonal:
		return "Personal Growth"
	case models.CategorySocial:
		return "Social Life"
	default:
		s := string(c)
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	}
}

// truncate shortens s to at most n bytes without splitting the rune at the
// boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
