package coach

import (
	"fmt"
	"strings"

	"github.com/BTreeMap/LifeRank/internal/models"
)

// Keyword sets for the rule-based branches, checked in declaration order.
// Matching is substring containment on the lowercased message.
var (
	greetingKeywords   = []string{"hello", "hi", "hey", "start"}
	healthKeywords     = []string{"health", "fitness", "exercise", "workout"}
	careerKeywords     = []string{"career", "work", "job", "professional"}
	financeKeywords    = []string{"money", "finance", "financial", "budget", "save"}
	goalKeywords       = []string{"goal", "progress", "achievement"}
	motivationKeywords = []string{"motivate", "encourage", "help", "improve"}
)

// nearlyCompleteThreshold is the progress at which a goal counts as nearly
// complete in the goals branch.
const nearlyCompleteThreshold = 90.0

// Fallback produces a deterministic rule-based coaching response. It is a
// pure function of its inputs: no I/O, no external calls, and it always
// returns a non-empty string.
func Fallback(message string, ctx CoachingContext) string {
	messageLower := strings.ToLower(message)

	overall := models.DefaultScore
	if ctx.Stats != nil {
		overall = ctx.Stats.OverallScore
	}

	switch {
	case containsAny(messageLower, greetingKeywords):
		return fmt.Sprintf("Hello %s! I'm your Life Rank AI coach. "+
			"Your current overall score is %s/10. "+
			"What would you like to work on today?",
			ctx.DisplayName(), formatScore(overall))

	case containsAny(messageLower, healthKeywords):
		health := categoryOrDefault(ctx.Stats, models.CategoryHealth)
		switch {
		case health >= 8:
			return fmt.Sprintf("Your health score of %s/10 is excellent! "+
				"To maintain this level, focus on consistency in your routine "+
				"and consider adding variety to prevent plateaus.", formatScore(health)) +
				recentContext(ctx, models.CategoryHealth)
		case health >= 6:
			return fmt.Sprintf("Your health score is %s/10 - good progress! "+
				"Try increasing your exercise frequency or intensity, "+
				"and ensure you're getting quality sleep.", formatScore(health)) +
				recentContext(ctx, models.CategoryHealth)
		default:
			return fmt.Sprintf("Your health score of %s/10 has room for improvement. "+
				"Start small: aim for 30 minutes of activity daily "+
				"and focus on building sustainable habits.", formatScore(health)) +
				recentContext(ctx, models.CategoryHealth)
		}

	case containsAny(messageLower, careerKeywords):
		career := categoryOrDefault(ctx.Stats, models.CategoryCareer)
		momentum := "Let's work on improving this."
		if career >= 7 {
			momentum = "Great momentum!"
		}
		return fmt.Sprintf("Your career score is %s/10. %s "+
			"Consider networking, skill development, or seeking new challenges "+
			"to boost this area.", formatScore(career), momentum) +
			recentContext(ctx, models.CategoryCareer)

	case containsAny(messageLower, financeKeywords):
		finances := categoryOrDefault(ctx.Stats, models.CategoryFinances)
		if finances >= 7 {
			return fmt.Sprintf("Your finance score of %s/10 is solid! "+
				"Consider advanced strategies like investments "+
				"or optimizing your budget for long-term goals.", formatScore(finances)) +
				recentContext(ctx, models.CategoryFinances)
		}
		return fmt.Sprintf("Your finance score of %s/10 suggests there's room to improve. "+
			"Start with budgeting basics and building an emergency fund.", formatScore(finances)) +
			recentContext(ctx, models.CategoryFinances)

	case containsAny(messageLower, goalKeywords):
		if len(ctx.Goals) > 0 {
			nearlyComplete := 0
			for _, g := range ctx.Goals {
				if g.Progress >= nearlyCompleteThreshold {
					nearlyComplete++
				}
			}
			return fmt.Sprintf("You have %d active goals, with %d nearly complete! "+
				"Focus on the goals with lower progress to maintain momentum across all areas.",
				len(ctx.Goals), nearlyComplete)
		}
		return "Setting clear, measurable goals is key to improving your Life Rank score. " +
			"What area would you like to set a goal for?"

	case containsAny(messageLower, motivationKeywords):
		switch {
		case overall >= 8:
			return fmt.Sprintf("You're doing fantastic with a %s/10 score! "+
				"Focus on maintaining your strong areas while fine-tuning the rest.", formatScore(overall))
		case overall >= 6:
			return fmt.Sprintf("You're on the right track with %s/10. "+
				"Small, consistent improvements in your weakest areas will have a big impact!", formatScore(overall))
		default:
			return fmt.Sprintf("Every journey starts with a single step. "+
				"Your %s/10 score shows potential for growth. "+
				"Let's focus on one area at a time!", formatScore(overall))
		}

	default:
		lowest := lowestCategory(ctx.Stats)
		return fmt.Sprintf("I'm here to help you improve your Life Rank! "+
			"Your overall score is %s/10, "+
			"with %s being an area for potential growth. "+
			"What specific aspect would you like to discuss?", formatScore(overall), lowest)
	}
}

func containsAny(message string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(message, kw) {
			return true
		}
	}
	return false
}

func categoryOrDefault(stats *models.LifeStats, c models.Category) float64 {
	if stats == nil {
		return models.DefaultScore
	}
	return stats.CategoryScore(c)
}

// recentContext renders a short reference to the most recent score update
// for the category, or the most recent activity entry when no update exists.
// Histories in the context are newest first, so the first match wins.
func recentContext(ctx CoachingContext, category models.Category) string {
	for _, u := range ctx.ScoreUpdates {
		if u.Category == category {
			return fmt.Sprintf(" I noticed you recently updated this from %s to %s.",
				formatScore(u.OldScore), formatScore(u.NewScore))
		}
	}
	for _, e := range ctx.ActivityLogs {
		if e.Category == category {
			return fmt.Sprintf(" Your recent activity %q is a great step.", e.Description)
		}
	}
	return ""
}

// lowestCategory returns the name of the lowest-scoring category; ties go to
// the earlier category in canonical order.
func lowestCategory(stats *models.LifeStats) string {
	if stats == nil {
		return "general wellness"
	}
	lowest := models.Categories()[0]
	for _, c := range models.Categories()[1:] {
		if stats.CategoryScore(c) < stats.CategoryScore(lowest) {
			lowest = c
		}
	}
	return string(lowest)
}
