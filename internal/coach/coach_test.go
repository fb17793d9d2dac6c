package coach

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"

	"github.com/BTreeMap/LifeRank/internal/knowledge"
	"github.com/BTreeMap/LifeRank/internal/lifescore"
	"github.com/BTreeMap/LifeRank/internal/models"
	"github.com/BTreeMap/LifeRank/internal/store"
)

// mockGenerator implements Generator for testing.
type mockGenerator struct {
	out      string
	err      error
	messages []openai.ChatCompletionMessageParamUnion
}

func (m *mockGenerator) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	m.messages = messages
	return m.out, m.err
}

func newAssembledContext(t *testing.T) (store.Store, CoachingContext) {
	t.Helper()
	st := store.NewInMemoryStore()
	u := &models.User{Email: "sam@example.com", Name: "Sam", HashedPassword: "h", IsActive: true}
	if err := st.CreateUser(u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	a := NewAssembler(st, lifescore.NewManager(st))
	cctx, err := a.Assemble(u.ID)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	return st, cctx
}

func TestAssembleInitializesDefaultStats(t *testing.T) {
	st, cctx := newAssembledContext(t)
	if cctx.Stats == nil || cctx.Stats.OverallScore != models.DefaultScore {
		t.Fatalf("assembled stats = %+v, want defaults", cctx.Stats)
	}

	// The default row is persisted, not just in-memory.
	persisted, err := st.GetLatestStats(cctx.User.ID)
	if err != nil || persisted == nil {
		t.Errorf("default stats not persisted: (%v, %v)", persisted, err)
	}
}

func TestAssembleUnknownUser(t *testing.T) {
	st := store.NewInMemoryStore()
	a := NewAssembler(st, lifescore.NewManager(st))
	if _, err := a.Assemble(42); !errors.Is(err, models.ErrUserNotFound) {
		t.Errorf("Assemble for missing user = %v, want ErrUserNotFound", err)
	}
}

func TestAssembleHistoryLimit(t *testing.T) {
	st := store.NewInMemoryStore()
	u := &models.User{Email: "sam@example.com", HashedPassword: "h", IsActive: true}
	if err := st.CreateUser(u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := st.AddChatMessage(&models.ChatMessage{UserID: u.ID, Sender: models.SenderUser, Content: "m"}); err != nil {
			t.Fatalf("AddChatMessage failed: %v", err)
		}
	}

	a := NewAssembler(st, lifescore.NewManager(st), WithHistoryLimit(4))
	cctx, err := a.Assemble(u.ID)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(cctx.RecentChats) != 4 {
		t.Errorf("RecentChats = %d messages, want 4", len(cctx.RecentChats))
	}

	unlimited := NewAssembler(st, lifescore.NewManager(st))
	cctx, err = unlimited.Assemble(u.ID)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(cctx.RecentChats) != 10 {
		t.Errorf("RecentChats without limit = %d messages, want 10", len(cctx.RecentChats))
	}
}

func TestBuildSystemPromptSections(t *testing.T) {
	_, cctx := newAssembledContext(t)
	cctx.Goals = []models.Goal{
		{Title: "Run a marathon", Category: models.CategoryHealth, Progress: 40},
		{Title: "Emergency fund", Category: models.CategoryFinances, Progress: 100, IsCompleted: true},
	}
	cctx.ScoreUpdates = []models.ScoreUpdate{
		{Category: models.CategoryHealth, OldScore: 7, NewScore: 8.5, Reason: "morning runs"},
	}
	cctx.ActivityLogs = []models.ActivityLog{
		{Category: models.CategoryFinances, Description: "Set up automatic savings"},
	}
	cctx.RecentChats = []models.ChatMessage{
		{Sender: models.SenderUser, Content: "how am I doing?"},
		{Sender: models.SenderAI, Content: "quite well"},
	}

	prompt := BuildSystemPrompt(cctx, knowledge.Default())

	for _, want := range []string{
		"You are a Life Rank AI Coach",
		"COACHING PRINCIPLES:",
		"LIFE RANK CATEGORIES (scored 1-10):",
		"COACHING KNOWLEDGE:",
		"Life Rank Scoring System",
		"- Name: Sam",
		"- Overall Score: 7.0/10",
		"- Health: 7.0/10",
		"- Personal Growth: 7.0/10",
		"- Run a marathon (health): 40% Complete",
		"- Emergency fund (finances): ✅ Completed",
		"RECENT SCORE CHANGES:",
		"- Health: 7.0 -> 8.5 (morning runs)",
		"RECENT ACTIVITY:",
		"- [finances] Set up automatic savings",
		"RECENT CONVERSATION CONTEXT:",
		"- User: how am I doing?...",
		"- Coach: quite well...",
		"RESPONSE GUIDELINES:",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildSystemPromptCapsGoalsAndChats(t *testing.T) {
	_, cctx := newAssembledContext(t)
	for i := 0; i < 8; i++ {
		cctx.Goals = append(cctx.Goals, models.Goal{Title: "goal", Category: models.CategoryHealth})
		cctx.RecentChats = append(cctx.RecentChats,
			models.ChatMessage{Sender: models.SenderUser, Content: "m"},
			models.ChatMessage{Sender: models.SenderAI, Content: "r"},
		)
	}
	prompt := BuildSystemPrompt(cctx, "")

	if got := strings.Count(prompt, "- goal (health)"); got != maxPromptGoals {
		t.Errorf("prompt lists %d goals, want %d", got, maxPromptGoals)
	}
	// The cap keeps the most recent turns, so the tail alternates evenly.
	if got := strings.Count(prompt, "- User: m...") + strings.Count(prompt, "- Coach: r..."); got != maxPromptChats {
		t.Errorf("prompt lists %d turns, want %d", got, maxPromptChats)
	}
}

func TestCoachRespondUsesGenAI(t *testing.T) {
	_, cctx := newAssembledContext(t)
	cctx.RecentChats = []models.ChatMessage{
		{Sender: models.SenderUser, Content: "earlier"},
		{Sender: models.SenderAI, Content: "reply"},
	}

	gen := &mockGenerator{out: "Keep up the running habit!"}
	c := NewCoach(gen, knowledge.NewLoader())
	got := c.Respond(context.Background(), cctx, "how is my health?")
	if got != "Keep up the running habit!" {
		t.Errorf("Respond = %q, want GenAI output", got)
	}
	// System prompt, two history turns, and the current message.
	if len(gen.messages) != 4 {
		t.Errorf("generator received %d messages, want 4", len(gen.messages))
	}
}

func TestCoachRespondFallsBackOnError(t *testing.T) {
	_, cctx := newAssembledContext(t)
	gen := &mockGenerator{err: errors.New("api unavailable")}
	c := NewCoach(gen, knowledge.NewLoader())
	got := c.Respond(context.Background(), cctx, "how is my health?")
	if got == "" {
		t.Fatal("Respond returned empty string on generator failure")
	}
	if !strings.Contains(got, "health score") {
		t.Errorf("fallback response = %q, want rule-based health answer", got)
	}
}

func TestCoachRespondFallsBackOnEmptyOutput(t *testing.T) {
	_, cctx := newAssembledContext(t)
	gen := &mockGenerator{out: "   "}
	c := NewCoach(gen, knowledge.NewLoader())
	got := c.Respond(context.Background(), cctx, "hello")
	if !strings.Contains(got, "I'm your Life Rank AI coach") {
		t.Errorf("Respond = %q, want greeting fallback", got)
	}
}

func TestCoachRespondWithoutGenerator(t *testing.T) {
	_, cctx := newAssembledContext(t)
	c := NewCoach(nil, nil)
	got := c.Respond(context.Background(), cctx, "motivate me")
	if got == "" {
		t.Fatal("Respond returned empty string without generator")
	}
	if !strings.Contains(got, "7.0/10") {
		t.Errorf("Respond = %q, want score-aware fallback", got)
	}
}
