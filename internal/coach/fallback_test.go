package coach

import (
	"strings"
	"testing"

	"github.com/BTreeMap/LifeRank/internal/models"
)

func testContext(t *testing.T) CoachingContext {
	t.Helper()
	stats := models.NewDefaultLifeStats(1)
	return CoachingContext{
		User:  &models.User{ID: 1, Email: "sam@example.com", Name: "Sam", IsActive: true},
		Stats: stats,
	}
}

func TestFallbackGreeting(t *testing.T) {
	ctx := testContext(t)
	got := Fallback("Hello coach", ctx)
	want := "Hello Sam! I'm your Life Rank AI coach. Your current overall score is 7.0/10. What would you like to work on today?"
	if got != want {
		t.Errorf("greeting = %q, want %q", got, want)
	}

	// No name falls back to a neutral address.
	ctx.User.Name = ""
	got = Fallback("hi", ctx)
	if !strings.HasPrefix(got, "Hello there!") {
		t.Errorf("greeting without name = %q", got)
	}
}

func TestFallbackHealthBands(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{9, "excellent"},
		{8, "excellent"},
		{7, "good progress"},
		{6, "good progress"},
		{5.9, "room for improvement"},
		{2, "room for improvement"},
	}
	for _, tt := range tests {
		ctx := testContext(t)
		ctx.Stats.SetCategoryScore(models.CategoryHealth, tt.score)
		got := Fallback("how is my fitness?", ctx)
		if !strings.Contains(got, tt.want) {
			t.Errorf("health score %v: response %q does not contain %q", tt.score, got, tt.want)
		}
	}
}

func TestFallbackCareer(t *testing.T) {
	ctx := testContext(t)
	ctx.Stats.SetCategoryScore(models.CategoryCareer, 8)
	got := Fallback("thinking about my job", ctx)
	if !strings.Contains(got, "Great momentum!") {
		t.Errorf("career 8: %q", got)
	}

	ctx.Stats.SetCategoryScore(models.CategoryCareer, 5)
	got = Fallback("thinking about my job", ctx)
	if !strings.Contains(got, "Let's work on improving this.") {
		t.Errorf("career 5: %q", got)
	}
}

func TestFallbackFinances(t *testing.T) {
	ctx := testContext(t)
	got := Fallback("how do I budget better?", ctx)
	if !strings.Contains(got, "solid") {
		t.Errorf("finances 7: %q", got)
	}

	ctx.Stats.SetCategoryScore(models.CategoryFinances, 4)
	got = Fallback("money worries", ctx)
	if !strings.Contains(got, "budgeting basics") || !strings.Contains(got, "emergency fund") {
		t.Errorf("finances 4: %q", got)
	}
}

func TestFallbackGoals(t *testing.T) {
	ctx := testContext(t)
	got := Fallback("what about my goals?", ctx)
	if !strings.Contains(got, "Setting clear, measurable goals") {
		t.Errorf("no goals: %q", got)
	}

	ctx.Goals = []models.Goal{
		{Title: "Run", Progress: 95},
		{Title: "Save", Progress: 40},
		{Title: "Read", Progress: 90},
	}
	got = Fallback("goal check", ctx)
	if !strings.Contains(got, "You have 3 active goals, with 2 nearly complete!") {
		t.Errorf("with goals: %q", got)
	}
}

func TestFallbackMotivationBands(t *testing.T) {
	tests := []struct {
		overall float64
		want    string
	}{
		{8.5, "doing fantastic"},
		{7, "on the right track"},
		{4, "Every journey starts with a single step."},
	}
	for _, tt := range tests {
		ctx := testContext(t)
		for _, c := range models.Categories() {
			ctx.Stats.SetCategoryScore(c, tt.overall)
		}
		got := Fallback("please motivate me", ctx)
		if !strings.Contains(got, tt.want) {
			t.Errorf("overall %v: response %q does not contain %q", tt.overall, got, tt.want)
		}
	}
}

func TestFallbackDefaultNamesLowestCategory(t *testing.T) {
	ctx := testContext(t)
	ctx.Stats.SetCategoryScore(models.CategoryFinances, 3)
	got := Fallback("what's the weather like?", ctx)
	if !strings.Contains(got, "with finances being an area for potential growth") {
		t.Errorf("default branch: %q", got)
	}
}

func TestFallbackReferencesRecentUpdate(t *testing.T) {
	ctx := testContext(t)
	ctx.Stats.SetCategoryScore(models.CategoryHealth, 9)
	// Newest first: only the latest update for the category is cited.
	ctx.ScoreUpdates = []models.ScoreUpdate{
		{Category: models.CategoryHealth, OldScore: 7, NewScore: 9},
		{Category: models.CategoryHealth, OldScore: 6, NewScore: 7},
	}
	got := Fallback("how am I doing with health?", ctx)
	if !strings.Contains(got, "recently updated this from 7.0 to 9.0") {
		t.Errorf("health with update history: %q", got)
	}

	// An update in another category does not leak into the branch.
	ctx.ScoreUpdates = []models.ScoreUpdate{
		{Category: models.CategoryCareer, OldScore: 5, NewScore: 6},
	}
	got = Fallback("how am I doing with health?", ctx)
	if strings.Contains(got, "recently updated") {
		t.Errorf("unrelated update leaked: %q", got)
	}
}

func TestFallbackReferencesRecentActivity(t *testing.T) {
	// Without a score update, the latest activity entry is cited instead.
	ctx := testContext(t)
	ctx.ActivityLogs = []models.ActivityLog{
		{Category: models.CategoryFinances, Description: "Set up automatic savings"},
	}
	got := Fallback("money check-in", ctx)
	if !strings.Contains(got, `Your recent activity "Set up automatic savings" is a great step.`) {
		t.Errorf("finances with activity history: %q", got)
	}

	// A matching score update wins over activity.
	ctx.ScoreUpdates = []models.ScoreUpdate{
		{Category: models.CategoryFinances, OldScore: 6, NewScore: 7.5},
	}
	got = Fallback("money check-in", ctx)
	if !strings.Contains(got, "from 6.0 to 7.5") || strings.Contains(got, "recent activity") {
		t.Errorf("update should take precedence: %q", got)
	}
}

func TestFallbackBranchOrder(t *testing.T) {
	// A message matching both greeting and health keywords takes the
	// greeting branch, which comes first.
	ctx := testContext(t)
	got := Fallback("hi, quick health question", ctx)
	if !strings.Contains(got, "I'm your Life Rank AI coach") {
		t.Errorf("expected greeting branch, got %q", got)
	}
}

func TestFallbackNeverEmpty(t *testing.T) {
	messages := []string{
		"", "hello", "HEALTH", "career advice", "budget", "goals",
		"help me", "completely unrelated question", "   ", "🎉",
	}
	contexts := []CoachingContext{
		testContext(t),
		{},
		{User: &models.User{ID: 2, Email: "x@example.com"}},
	}
	for _, msg := range messages {
		for i, ctx := range contexts {
			if got := Fallback(msg, ctx); got == "" {
				t.Errorf("Fallback(%q, ctx %d) returned empty string", msg, i)
			}
		}
	}
}
