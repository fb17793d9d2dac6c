// Package store provides storage backends for LifeRank.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/BTreeMap/LifeRank/internal/models"
	"github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("SQLiteStore.NewSQLiteStore: creating SQLite store", "DSN_set", cfg.DSN != "")

	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	slog.Debug("SQLite database directory verified/created", "dir", dir)

	slog.Debug("Opening SQLite database connection")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	slog.Debug("SQLite database opened")

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}
	slog.Debug("SQLite ping successful")

	// Run migrations to ensure tables exist
	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// isSQLiteUniqueViolation reports whether err is a unique-constraint failure.
func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// CreateUser inserts a new user and assigns its generated ID.
func (s *SQLiteStore) CreateUser(u *models.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	res, err := s.db.Exec(
		`INSERT INTO users (email, name, age, gender, location, hashed_password, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Email, nilIfEmpty(u.Name), u.Age, nilIfEmpty(u.Gender), nilIfEmpty(u.Location),
		u.HashedPassword, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			slog.Debug("SQLiteStore.CreateUser: email already registered", "email", u.Email)
			return models.ErrEmailTaken
		}
		slog.Error("SQLiteStore.CreateUser failed", "error", err)
		return fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		slog.Error("SQLiteStore.CreateUser: LastInsertId failed", "error", err)
		return fmt.Errorf("failed to read user id: %w", err)
	}
	u.ID = id
	slog.Debug("SQLiteStore.CreateUser succeeded", "userID", u.ID)
	return nil
}

// GetUserByID returns the user with the given ID, or (nil, nil) if absent.
func (s *SQLiteStore) GetUserByID(id int64) (*models.User, error) {
	row := s.db.QueryRow(
		`SELECT id, email, name, age, gender, location, hashed_password, is_active, created_at, updated_at FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore.GetUserByID failed", "error", err, "userID", id)
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &u, nil
}

// GetUserByEmail returns the user with the given email, or (nil, nil) if absent.
func (s *SQLiteStore) GetUserByEmail(email string) (*models.User, error) {
	row := s.db.QueryRow(
		`SELECT id, email, name, age, gender, location, hashed_password, is_active, created_at, updated_at FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore.GetUserByEmail failed", "error", err)
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// UpdateUser persists profile changes for an existing user.
func (s *SQLiteStore) UpdateUser(u *models.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := s.db.Exec(
		`UPDATE users SET email = ?, name = ?, age = ?, gender = ?, location = ?,
			hashed_password = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		u.Email, nilIfEmpty(u.Name), u.Age, nilIfEmpty(u.Gender), nilIfEmpty(u.Location),
		u.HashedPassword, u.IsActive, u.UpdatedAt, u.ID)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return models.ErrEmailTaken
		}
		slog.Error("SQLiteStore.UpdateUser failed", "error", err, "userID", u.ID)
		return fmt.Errorf("failed to update user %d: %w", u.ID, err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return models.ErrUserNotFound
	}
	slog.Debug("SQLiteStore.UpdateUser succeeded", "userID", u.ID)
	return nil
}

// GetLatestStats returns the stats row for a user, or (nil, nil) if none exists.
func (s *SQLiteStore) GetLatestStats(userID int64) (*models.LifeStats, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, health_score, career_score, relationships_score, finances_score, personal_score, social_score, overall_score, created_at, updated_at
		 FROM life_stats WHERE user_id = ?`, userID)
	st, err := scanStats(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore.GetLatestStats: no stats yet", "userID", userID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore.GetLatestStats failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to get stats for user %d: %w", userID, err)
	}
	return &st, nil
}

// UpsertStats inserts or replaces the stats row for the user.
func (s *SQLiteStore) UpsertStats(st *models.LifeStats) error {
	if err := s.upsertStatsExec(s.db, st); err != nil {
		slog.Error("SQLiteStore.UpsertStats failed", "error", err, "userID", st.UserID)
		return err
	}
	slog.Debug("SQLiteStore.UpsertStats succeeded", "userID", st.UserID, "overall", st.OverallScore)
	return nil
}

// execer abstracts *sql.DB and *sql.Tx for statements shared between the
// plain and transactional stats paths.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

func (s *SQLiteStore) upsertStatsExec(e execer, st *models.LifeStats) error {
	now := time.Now().UTC()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	st.UpdatedAt = now
	_, err := e.Exec(
		`INSERT INTO life_stats (user_id, health_score, career_score, relationships_score, finances_score, personal_score, social_score, overall_score, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			health_score = excluded.health_score,
			career_score = excluded.career_score,
			relationships_score = excluded.relationships_score,
			finances_score = excluded.finances_score,
			personal_score = excluded.personal_score,
			social_score = excluded.social_score,
			overall_score = excluded.overall_score,
			updated_at = excluded.updated_at`,
		st.UserID, st.HealthScore, st.CareerScore, st.RelationshipsScore,
		st.FinancesScore, st.PersonalScore, st.SocialScore, st.OverallScore,
		st.CreatedAt, st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert stats for user %d: %w", st.UserID, err)
	}
	// Fill the row id so callers see the persisted identity.
	row := e.QueryRow(`SELECT id, created_at FROM life_stats WHERE user_id = ?`, st.UserID)
	if err := row.Scan(&st.ID, &st.CreatedAt); err != nil {
		return fmt.Errorf("failed to read stats id for user %d: %w", st.UserID, err)
	}
	return nil
}

func (s *SQLiteStore) addScoreUpdateExec(e execer, upd *models.ScoreUpdate) error {
	if upd.CreatedAt.IsZero() {
		upd.CreatedAt = time.Now().UTC()
	}
	res, err := e.Exec(
		`INSERT INTO score_updates (user_id, category, old_score, new_score, reason, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		upd.UserID, upd.Category, upd.OldScore, upd.NewScore, nilIfEmpty(upd.Reason), upd.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert score update: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read score update id: %w", err)
	}
	upd.ID = id
	return nil
}

// SaveStatsWithUpdate persists the stats upsert and the score-update record
// in one transaction.
func (s *SQLiteStore) SaveStatsWithUpdate(st *models.LifeStats, upd *models.ScoreUpdate) error {
	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("SQLiteStore.SaveStatsWithUpdate: begin failed", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.upsertStatsExec(tx, st); err != nil {
		slog.Error("SQLiteStore.SaveStatsWithUpdate: stats upsert failed", "error", err, "userID", st.UserID)
		return err
	}
	if err := s.addScoreUpdateExec(tx, upd); err != nil {
		slog.Error("SQLiteStore.SaveStatsWithUpdate: score update insert failed", "error", err, "userID", upd.UserID)
		return err
	}
	if err := tx.Commit(); err != nil {
		slog.Error("SQLiteStore.SaveStatsWithUpdate: commit failed", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	slog.Debug("SQLiteStore.SaveStatsWithUpdate succeeded", "userID", st.UserID, "category", upd.Category)
	return nil
}

// AddScoreUpdate appends a score-update record.
func (s *SQLiteStore) AddScoreUpdate(upd *models.ScoreUpdate) error {
	if err := s.addScoreUpdateExec(s.db, upd); err != nil {
		slog.Error("SQLiteStore.AddScoreUpdate failed", "error", err, "userID", upd.UserID)
		return err
	}
	return nil
}

// ListScoreUpdates returns a user's score updates newest first.
// A limit of 0 returns all records.
func (s *SQLiteStore) ListScoreUpdates(userID int64, limit int) ([]models.ScoreUpdate, error) {
	query := `SELECT id, user_id, category, old_score, new_score, reason, created_at
			  FROM score_updates WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("SQLiteStore.ListScoreUpdates query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query score updates: %w", err)
	}
	defer rows.Close()

	var updates []models.ScoreUpdate
	for rows.Next() {
		u, err := scanScoreUpdate(rows)
		if err != nil {
			slog.Error("SQLiteStore.ListScoreUpdates scan failed", "error", err)
			return nil, err
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate score update rows: %w", err)
	}
	slog.Debug("SQLiteStore.ListScoreUpdates succeeded", "userID", userID, "count", len(updates))
	return updates, nil
}

// AddActivityLog appends an activity log entry.
func (s *SQLiteStore) AddActivityLog(entry *models.ActivityLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(
		`INSERT INTO activity_logs (user_id, category, description, score_impact, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.UserID, entry.Category, entry.Description, entry.ScoreImpact, entry.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore.AddActivityLog failed", "error", err, "userID", entry.UserID)
		return fmt.Errorf("failed to insert activity log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read activity log id: %w", err)
	}
	entry.ID = id
	return nil
}

// ListActivityLogs returns a user's activity entries newest first.
// A limit of 0 returns all records.
func (s *SQLiteStore) ListActivityLogs(userID int64, limit int) ([]models.ActivityLog, error) {
	query := `SELECT id, user_id, category, description, score_impact, created_at
			  FROM activity_logs WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("SQLiteStore.ListActivityLogs query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	var entries []models.ActivityLog
	for rows.Next() {
		e, err := scanActivityLog(rows)
		if err != nil {
			slog.Error("SQLiteStore.ListActivityLogs scan failed", "error", err)
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity log rows: %w", err)
	}
	return entries, nil
}

// CreateGoal inserts a new goal and assigns its generated ID.
func (s *SQLiteStore) CreateGoal(g *models.Goal) error {
	now := time.Now().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	var targetDate interface{}
	if g.TargetDate != nil {
		targetDate = *g.TargetDate
	}
	res, err := s.db.Exec(
		`INSERT INTO goals (user_id, category, title, description, target_date, progress, is_completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Category, g.Title, nilIfEmpty(g.Description), targetDate,
		g.Progress, g.IsCompleted, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore.CreateGoal failed", "error", err, "userID", g.UserID)
		return fmt.Errorf("failed to insert goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read goal id: %w", err)
	}
	g.ID = id
	slog.Debug("SQLiteStore.CreateGoal succeeded", "goalID", g.ID, "userID", g.UserID)
	return nil
}

// GetGoal returns the goal with the given ID, or (nil, nil) if absent.
func (s *SQLiteStore) GetGoal(id int64) (*models.Goal, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, category, title, description, target_date, progress, is_completed, created_at, updated_at
		 FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore.GetGoal failed", "error", err, "goalID", id)
		return nil, fmt.Errorf("failed to get goal %d: %w", id, err)
	}
	return &g, nil
}

// UpdateGoal persists changes to an existing goal.
func (s *SQLiteStore) UpdateGoal(g *models.Goal) error {
	g.UpdatedAt = time.Now().UTC()
	var targetDate interface{}
	if g.TargetDate != nil {
		targetDate = *g.TargetDate
	}
	res, err := s.db.Exec(
		`UPDATE goals SET category = ?, title = ?, description = ?, target_date = ?, progress = ?, is_completed = ?, updated_at = ? WHERE id = ?`,
		g.Category, g.Title, nilIfEmpty(g.Description), targetDate, g.Progress, g.IsCompleted, g.UpdatedAt, g.ID)
	if err != nil {
		slog.Error("SQLiteStore.UpdateGoal failed", "error", err, "goalID", g.ID)
		return fmt.Errorf("failed to update goal %d: %w", g.ID, err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return models.ErrGoalNotFound
	}
	slog.Debug("SQLiteStore.UpdateGoal succeeded", "goalID", g.ID, "progress", g.Progress)
	return nil
}

// ListGoals returns all goals for a user in creation order.
func (s *SQLiteStore) ListGoals(userID int64) ([]models.Goal, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, category, title, description, target_date, progress, is_completed, created_at, updated_at
		 FROM goals WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		slog.Error("SQLiteStore.ListGoals query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			slog.Error("SQLiteStore.ListGoals scan failed", "error", err)
			return nil, err
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goal rows: %w", err)
	}
	return goals, nil
}

// AddChatMessage appends a chat turn.
func (s *SQLiteStore) AddChatMessage(m *models.ChatMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(
		`INSERT INTO chat_messages (user_id, sender, content, created_at) VALUES (?, ?, ?, ?)`,
		m.UserID, m.Sender, m.Content, m.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore.AddChatMessage failed", "error", err, "userID", m.UserID)
		return fmt.Errorf("failed to insert chat message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read chat message id: %w", err)
	}
	m.ID = id
	return nil
}

// ListChatMessages returns a user's chat history in chronological order.
// When limit > 0 only the most recent entries are returned, still oldest first.
func (s *SQLiteStore) ListChatMessages(userID int64, limit int) ([]models.ChatMessage, error) {
	query := `SELECT id, user_id, sender, content, created_at
			  FROM chat_messages WHERE user_id = ? ORDER BY created_at, id`
	args := []interface{}{userID}
	if limit > 0 {
		// Select the newest rows first, then restore chronological order.
		query = `SELECT id, user_id, sender, content, created_at FROM (
					SELECT id, user_id, sender, content, created_at
					FROM chat_messages WHERE user_id = ?
					ORDER BY created_at DESC, id DESC LIMIT ?
				 ) ORDER BY created_at, id`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("SQLiteStore.ListChatMessages query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	var msgs []models.ChatMessage
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			slog.Error("SQLiteStore.ListChatMessages scan failed", "error", err)
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat message rows: %w", err)
	}
	slog.Debug("SQLiteStore.ListChatMessages succeeded", "userID", userID, "count", len(msgs))
	return msgs, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	} else {
		slog.Debug("SQLite database connection closed successfully")
	}
	return err
}
