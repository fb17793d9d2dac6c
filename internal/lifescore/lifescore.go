// Package lifescore implements score bookkeeping: category score updates
// with audit records, goal progress tracking, and activity logging.
package lifescore

import (
	"fmt"
	"log/slog"

	"github.com/BTreeMap/LifeRank/internal/models"
	"github.com/BTreeMap/LifeRank/internal/store"
)

// Manager coordinates score, goal, and activity mutations against the store.
type Manager struct {
	store store.Store
}

// NewManager creates a score manager backed by the given store.
func NewManager(st store.Store) *Manager {
	slog.Debug("Lifescore.NewManager: manager created")
	return &Manager{store: st}
}

// GetOrCreateStats returns the user's stats, creating the default row
// (every category at 7.0) on first access.
func (m *Manager) GetOrCreateStats(userID int64) (*models.LifeStats, error) {
	stats, err := m.store.GetLatestStats(userID)
	if err != nil {
		slog.Error("Lifescore.GetOrCreateStats: read failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	if stats != nil {
		return stats, nil
	}

	stats = models.NewDefaultLifeStats(userID)
	if err := m.store.UpsertStats(stats); err != nil {
		slog.Error("Lifescore.GetOrCreateStats: default init failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to initialize stats: %w", err)
	}
	slog.Info("Lifescore.GetOrCreateStats: initialized default stats", "userID", userID)
	return stats, nil
}

// UpdateScore sets one category score, recomputes the overall, and records
// the change as an append-only score update. The stats write and the audit
// record are persisted atomically.
func (m *Manager) UpdateScore(userID int64, category models.Category, score float64, reason string) (*models.LifeStats, *models.ScoreUpdate, error) {
	if !models.IsValidCategory(category) {
		return nil, nil, models.ErrInvalidCategory
	}
	if score < models.MinScore || score > models.MaxScore {
		return nil, nil, models.ErrScoreOutOfRange
	}

	stats, err := m.GetOrCreateStats(userID)
	if err != nil {
		return nil, nil, err
	}

	oldScore := stats.CategoryScore(category)
	if err := stats.SetCategoryScore(category, score); err != nil {
		return nil, nil, err
	}

	upd := &models.ScoreUpdate{
		UserID:   userID,
		Category: category,
		OldScore: oldScore,
		NewScore: score,
		Reason:   reason,
	}
	if err := m.store.SaveStatsWithUpdate(stats, upd); err != nil {
		slog.Error("Lifescore.UpdateScore: save failed", "error", err, "userID", userID, "category", category)
		return nil, nil, fmt.Errorf("failed to save score update: %w", err)
	}
	slog.Info("Lifescore.UpdateScore: score updated", "userID", userID, "category", category,
		"oldScore", oldScore, "newScore", score, "overall", stats.OverallScore)
	return stats, upd, nil
}

// CreateGoal creates a goal at zero progress.
func (m *Manager) CreateGoal(userID int64, req models.GoalCreateRequest) (*models.Goal, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	goal := &models.Goal{
		UserID:      userID,
		Category:    req.Category,
		Title:       req.Title,
		Description: req.Description,
		TargetDate:  req.TargetDate,
	}
	if err := m.store.CreateGoal(goal); err != nil {
		slog.Error("Lifescore.CreateGoal: create failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	slog.Info("Lifescore.CreateGoal: goal created", "goalID", goal.ID, "userID", userID, "category", goal.Category)
	return goal, nil
}

// UpdateGoalProgress sets a goal's progress, clamped to [0, 100]. Reaching
// 100 marks the goal completed. The change also writes a synthetic activity
// log entry so progress shows up in the user's activity feed.
//
// The goal must belong to userID; a goal owned by someone else is reported
// as not found rather than leaking its existence.
func (m *Manager) UpdateGoalProgress(userID, goalID int64, progress float64) (*models.Goal, error) {
	goal, err := m.store.GetGoal(goalID)
	if err != nil {
		slog.Error("Lifescore.UpdateGoalProgress: read failed", "error", err, "goalID", goalID)
		return nil, fmt.Errorf("failed to read goal: %w", err)
	}
	if goal == nil || goal.UserID != userID {
		return nil, models.ErrGoalNotFound
	}

	oldProgress := goal.Progress
	if progress < 0 {
		progress = 0
	}
	if progress > models.MaxGoalProgress {
		progress = models.MaxGoalProgress
	}
	goal.Progress = progress
	if progress >= models.MaxGoalProgress {
		goal.IsCompleted = true
	}

	if err := m.store.UpdateGoal(goal); err != nil {
		slog.Error("Lifescore.UpdateGoalProgress: update failed", "error", err, "goalID", goalID)
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}

	entry := &models.ActivityLog{
		UserID:      userID,
		Category:    goal.Category,
		Description: fmt.Sprintf("Updated progress on '%s' from %.0f%% to %.0f%%", goal.Title, oldProgress, goal.Progress),
	}
	if err := m.store.AddActivityLog(entry); err != nil {
		// The progress change is already durable; losing the feed entry is
		// not worth failing the request over.
		slog.Warn("Lifescore.UpdateGoalProgress: activity log write failed", "error", err, "goalID", goalID)
	}

	slog.Info("Lifescore.UpdateGoalProgress: progress updated", "goalID", goalID, "userID", userID,
		"oldProgress", oldProgress, "newProgress", goal.Progress, "completed", goal.IsCompleted)
	return goal, nil
}

// LogActivity records a user activity.
func (m *Manager) LogActivity(userID int64, req models.ActivityLogRequest) (*models.ActivityLog, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	entry := &models.ActivityLog{
		UserID:      userID,
		Category:    req.Category,
		Description: req.Description,
		ScoreImpact: req.ScoreImpact,
	}
	if err := m.store.AddActivityLog(entry); err != nil {
		slog.Error("Lifescore.LogActivity: write failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to log activity: %w", err)
	}
	slog.Debug("Lifescore.LogActivity: activity recorded", "userID", userID, "category", entry.Category)
	return entry, nil
}
