// Package store provides storage backends for LifeRank.
//
// It includes an in-memory store used in tests and persistent SQLite and
// PostgreSQL stores selected by DSN at startup.
package store

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/BTreeMap/LifeRank/internal/models"
)

// Store defines the persistence operations shared by all backends.
//
// Lookup methods return (nil, nil) when no matching row exists; callers
// decide whether absence is an error.
type Store interface {
	// Users
	CreateUser(u *models.User) error
	GetUserByID(id int64) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateUser(u *models.User) error

	// Life stats
	GetLatestStats(userID int64) (*models.LifeStats, error)
	UpsertStats(s *models.LifeStats) error
	// SaveStatsWithUpdate persists new stats and the score-update record
	// that produced them as a single atomic unit.
	SaveStatsWithUpdate(s *models.LifeStats, upd *models.ScoreUpdate) error

	// Score updates (append-only, newest first)
	AddScoreUpdate(upd *models.ScoreUpdate) error
	ListScoreUpdates(userID int64, limit int) ([]models.ScoreUpdate, error)

	// Activity logs (append-only, newest first)
	AddActivityLog(entry *models.ActivityLog) error
	ListActivityLogs(userID int64, limit int) ([]models.ActivityLog, error)

	// Goals
	CreateGoal(g *models.Goal) error
	GetGoal(id int64) (*models.Goal, error)
	UpdateGoal(g *models.Goal) error
	ListGoals(userID int64) ([]models.Goal, error)

	// Chat history (chronological; limit > 0 returns the most recent entries)
	AddChatMessage(m *models.ChatMessage) error
	ListChatMessages(userID int64, limit int) ([]models.ChatMessage, error)

	Close() error
}

// InMemoryStore is a mutex-guarded in-memory Store used in tests and for
// ephemeral development runs.
type InMemoryStore struct {
	mu sync.Mutex

	users        map[int64]*models.User
	stats        map[int64]*models.LifeStats // keyed by user ID
	goals        map[int64]*models.Goal
	scoreUpdates []models.ScoreUpdate
	activityLogs []models.ActivityLog
	chatMessages []models.ChatMessage

	nextUserID   int64
	nextStatsID  int64
	nextGoalID   int64
	nextUpdateID int64
	nextLogID    int64
	nextChatID   int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users: make(map[int64]*models.User),
		stats: make(map[int64]*models.LifeStats),
		goals: make(map[int64]*models.Goal),
	}
}

// CreateUser stores a new user, assigning its ID and timestamps.
func (s *InMemoryStore) CreateUser(u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return models.ErrEmailTaken
		}
	}
	s.nextUserID++
	u.ID = s.nextUserID
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	cp := *u
	s.users[u.ID] = &cp
	slog.Debug("InMemoryStore.CreateUser: user created", "userID", u.ID)
	return nil
}

// GetUserByID returns the user with the given ID, or (nil, nil) if absent.
func (s *InMemoryStore) GetUserByID(id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// GetUserByEmail returns the user with the given email, or (nil, nil) if absent.
func (s *InMemoryStore) GetUserByEmail(email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// UpdateUser replaces the stored user record.
func (s *InMemoryStore) UpdateUser(u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return models.ErrUserNotFound
	}
	for id, existing := range s.users {
		if id != u.ID && existing.Email == u.Email {
			return models.ErrEmailTaken
		}
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

// GetLatestStats returns the stats row for a user, or (nil, nil) if none exists.
func (s *InMemoryStore) GetLatestStats(userID int64) (*models.LifeStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[userID]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

// UpsertStats inserts or replaces the stats row for the user.
func (s *InMemoryStore) UpsertStats(stats *models.LifeStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertStatsLocked(stats)
	return nil
}

func (s *InMemoryStore) upsertStatsLocked(stats *models.LifeStats) {
	now := time.Now().UTC()
	if existing, ok := s.stats[stats.UserID]; ok {
		stats.ID = existing.ID
		stats.CreatedAt = existing.CreatedAt
	} else {
		s.nextStatsID++
		stats.ID = s.nextStatsID
		if stats.CreatedAt.IsZero() {
			stats.CreatedAt = now
		}
	}
	stats.UpdatedAt = now
	cp := *stats
	s.stats[stats.UserID] = &cp
}

// SaveStatsWithUpdate applies the stats upsert and the score-update append
// under a single lock hold, so readers never observe one without the other.
func (s *InMemoryStore) SaveStatsWithUpdate(stats *models.LifeStats, upd *models.ScoreUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertStatsLocked(stats)
	s.addScoreUpdateLocked(upd)
	slog.Debug("InMemoryStore.SaveStatsWithUpdate: saved", "userID", stats.UserID, "category", upd.Category)
	return nil
}

// AddScoreUpdate appends a score-update record.
func (s *InMemoryStore) AddScoreUpdate(upd *models.ScoreUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addScoreUpdateLocked(upd)
	return nil
}

func (s *InMemoryStore) addScoreUpdateLocked(upd *models.ScoreUpdate) {
	s.nextUpdateID++
	upd.ID = s.nextUpdateID
	if upd.CreatedAt.IsZero() {
		upd.CreatedAt = time.Now().UTC()
	}
	s.scoreUpdates = append(s.scoreUpdates, *upd)
}

// ListScoreUpdates returns a user's score updates newest first.
// A limit of 0 returns all records.
func (s *InMemoryStore) ListScoreUpdates(userID int64, limit int) ([]models.ScoreUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updates []models.ScoreUpdate
	for _, u := range s.scoreUpdates {
		if u.UserID == userID {
			updates = append(updates, u)
		}
	}
	sort.SliceStable(updates, func(i, j int) bool {
		if updates[i].CreatedAt.Equal(updates[j].CreatedAt) {
			return updates[i].ID > updates[j].ID
		}
		return updates[i].CreatedAt.After(updates[j].CreatedAt)
	})
	if limit > 0 && len(updates) > limit {
		updates = updates[:limit]
	}
	return updates, nil
}

// AddActivityLog appends an activity log entry.
func (s *InMemoryStore) AddActivityLog(entry *models.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLogID++
	entry.ID = s.nextLogID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.activityLogs = append(s.activityLogs, *entry)
	return nil
}

// ListActivityLogs returns a user's activity entries newest first.
// A limit of 0 returns all records.
func (s *InMemoryStore) ListActivityLogs(userID int64, limit int) ([]models.ActivityLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []models.ActivityLog
	for _, e := range s.activityLogs {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// CreateGoal stores a new goal, assigning its ID and timestamps.
func (s *InMemoryStore) CreateGoal(g *models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextGoalID++
	g.ID = s.nextGoalID
	now := time.Now().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	cp := *g
	s.goals[g.ID] = &cp
	return nil
}

// GetGoal returns the goal with the given ID, or (nil, nil) if absent.
func (s *InMemoryStore) GetGoal(id int64) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

// UpdateGoal replaces the stored goal record.
func (s *InMemoryStore) UpdateGoal(g *models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[g.ID]; !ok {
		return models.ErrGoalNotFound
	}
	g.UpdatedAt = time.Now().UTC()
	cp := *g
	s.goals[g.ID] = &cp
	return nil
}

// ListGoals returns all goals for a user in creation order.
func (s *InMemoryStore) ListGoals(userID int64) ([]models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var goals []models.Goal
	for _, g := range s.goals {
		if g.UserID == userID {
			goals = append(goals, *g)
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].ID < goals[j].ID })
	return goals, nil
}

// AddChatMessage appends a chat turn.
func (s *InMemoryStore) AddChatMessage(m *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextChatID++
	m.ID = s.nextChatID
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.chatMessages = append(s.chatMessages, *m)
	return nil
}

// ListChatMessages returns a user's chat history in chronological order.
// When limit > 0 only the most recent entries are returned, still oldest first.
func (s *InMemoryStore) ListChatMessages(userID int64, limit int) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var msgs []models.ChatMessage
	for _, m := range s.chatMessages {
		if m.UserID == userID {
			msgs = append(msgs, m)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
