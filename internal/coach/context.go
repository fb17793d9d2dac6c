// Package coach implements the AI coaching pipeline: context assembly from
// the store, prompt construction, and two-tier response generation with a
// deterministic rule-based fallback.
package coach

import (
	"fmt"
	"log/slog"

	"github.com/BTreeMap/LifeRank/internal/lifescore"
	"github.com/BTreeMap/LifeRank/internal/models"
	"github.com/BTreeMap/LifeRank/internal/store"
)

// CoachingContext aggregates everything the coach knows about a user at
// response time. ScoreUpdates and ActivityLogs are newest first;
// RecentChats is chronological.
type CoachingContext struct {
	User         *models.User
	Stats        *models.LifeStats
	Goals        []models.Goal
	ScoreUpdates []models.ScoreUpdate
	ActivityLogs []models.ActivityLog
	RecentChats  []models.ChatMessage
}

// DisplayName returns the user's name, or a neutral placeholder when the
// profile has none.
func (c CoachingContext) DisplayName() string {
	if c.User != nil && c.User.Name != "" {
		return c.User.Name
	}
	return "there"
}

// Opts holds configuration options for the context assembler.
type Opts struct {
	// HistoryLimit caps how many records of each history kind (score
	// updates, activity entries, chat messages) are loaded into the
	// context. Zero means unlimited, which preserves the full-history
	// semantic: the coach may reference anything the user has ever done.
	HistoryLimit int
}

// Option configures the context assembler.
type Option func(*Opts)

// WithHistoryLimit caps the chat history loaded per request.
func WithHistoryLimit(n int) Option {
	return func(o *Opts) {
		o.HistoryLimit = n
	}
}

// Assembler builds CoachingContexts from the store.
//
// Only the user lookup is load-bearing: failures reading stats, goals, or
// chat history degrade to empty sections rather than failing the request,
// so the coach can always answer.
type Assembler struct {
	store        store.Store
	scores       *lifescore.Manager
	historyLimit int
}

// NewAssembler creates a context assembler.
func NewAssembler(st store.Store, scores *lifescore.Manager, opts ...Option) *Assembler {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("Coach.NewAssembler: assembler created", "historyLimit", cfg.HistoryLimit)
	return &Assembler{store: st, scores: scores, historyLimit: cfg.HistoryLimit}
}

// Assemble gathers the user's profile, stats, goals, and recent chat
// history. Stats are lazily initialized to the default scores on first use.
func (a *Assembler) Assemble(userID int64) (CoachingContext, error) {
	var ctx CoachingContext

	user, err := a.store.GetUserByID(userID)
	if err != nil {
		slog.Error("Coach.Assemble: user lookup failed", "error", err, "userID", userID)
		return ctx, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return ctx, models.ErrUserNotFound
	}
	ctx.User = user

	stats, err := a.scores.GetOrCreateStats(userID)
	if err != nil {
		// Fall back to in-memory defaults so the coach still has scores to
		// talk about, even if the row could not be persisted.
		slog.Warn("Coach.Assemble: stats unavailable, using defaults", "error", err, "userID", userID)
		stats = models.NewDefaultLifeStats(userID)
	}
	ctx.Stats = stats

	goals, err := a.store.ListGoals(userID)
	if err != nil {
		slog.Warn("Coach.Assemble: goals unavailable", "error", err, "userID", userID)
		goals = nil
	}
	ctx.Goals = goals

	updates, err := a.store.ListScoreUpdates(userID, a.historyLimit)
	if err != nil {
		slog.Warn("Coach.Assemble: score history unavailable", "error", err, "userID", userID)
		updates = nil
	}
	ctx.ScoreUpdates = updates

	logs, err := a.store.ListActivityLogs(userID, a.historyLimit)
	if err != nil {
		slog.Warn("Coach.Assemble: activity log unavailable", "error", err, "userID", userID)
		logs = nil
	}
	ctx.ActivityLogs = logs

	chats, err := a.store.ListChatMessages(userID, a.historyLimit)
	if err != nil {
		slog.Warn("Coach.Assemble: chat history unavailable", "error", err, "userID", userID)
		chats = nil
	}
	ctx.RecentChats = chats

	slog.Debug("Coach.Assemble: context assembled", "userID", userID,
		"goals", len(ctx.Goals), "scoreUpdates", len(ctx.ScoreUpdates),
		"activityLogs", len(ctx.ActivityLogs), "recentChats", len(ctx.RecentChats))
	return ctx, nil
}
