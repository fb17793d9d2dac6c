// Package store provides storage backends for LifeRank.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/BTreeMap/LifeRank/internal/models"
	"github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	slog.Debug("Opening Postgres database connection")
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	slog.Debug("Postgres database opened")

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}
	slog.Debug("Postgres ping successful")

	// Run migrations to ensure tables exist
	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

// isPostgresUniqueViolation reports whether err is a unique-constraint failure.
func isPostgresUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// CreateUser inserts a new user and assigns its generated ID.
func (s *PostgresStore) CreateUser(u *models.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	err := s.db.QueryRow(
		`INSERT INTO users (email, name, age, gender, location, hashed_password, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		u.Email, nilIfEmpty(u.Name), u.Age, nilIfEmpty(u.Gender), nilIfEmpty(u.Location),
		u.HashedPassword, u.IsActive, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	if err != nil {
		if isPostgresUniqueViolation(err) {
			slog.Debug("PostgresStore.CreateUser: email already registered", "email", u.Email)
			return models.ErrEmailTaken
		}
		slog.Error("PostgresStore.CreateUser failed", "error", err)
		return fmt.Errorf("failed to insert user: %w", err)
	}
	slog.Debug("PostgresStore.CreateUser succeeded", "userID", u.ID)
	return nil
}

// GetUserByID returns the user with the given ID, or (nil, nil) if absent.
func (s *PostgresStore) GetUserByID(id int64) (*models.User, error) {
	row := s.db.QueryRow(
		`SELECT id, email, name, age, gender, location, hashed_password, is_active, created_at, updated_at FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore.GetUserByID failed", "error", err, "userID", id)
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &u, nil
}

// GetUserByEmail returns the user with the given email, or (nil, nil) if absent.
func (s *PostgresStore) GetUserByEmail(email string) (*models.User, error) {
	row := s.db.QueryRow(
		`SELECT id, email, name, age, gender, location, hashed_password, is_active, created_at, updated_at FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore.GetUserByEmail failed", "error", err)
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// UpdateUser persists profile changes for an existing user.
func (s *PostgresStore) UpdateUser(u *models.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := s.db.Exec(
		`UPDATE users SET email = $1, name = $2, age = $3, gender = $4, location = $5,
			hashed_password = $6, is_active = $7, updated_at = $8 WHERE id = $9`,
		u.Email, nilIfEmpty(u.Name), u.Age, nilIfEmpty(u.Gender), nilIfEmpty(u.Location),
		u.HashedPassword, u.IsActive, u.UpdatedAt, u.ID)
	if err != nil {
		if isPostgresUniqueViolation(err) {
			return models.ErrEmailTaken
		}
		slog.Error("PostgresStore.UpdateUser failed", "error", err, "userID", u.ID)
		return fmt.Errorf("failed to update user %d: %w", u.ID, err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return models.ErrUserNotFound
	}
	slog.Debug("PostgresStore.UpdateUser succeeded", "userID", u.ID)
	return nil
}

// GetLatestStats returns the stats row for a user, or (nil, nil) if none exists.
func (s *PostgresStore) GetLatestStats(userID int64) (*models.LifeStats, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, health_score, career_score, relationships_score, finances_score, personal_score, social_score, overall_score, created_at, updated_at
		 FROM life_stats WHERE user_id = $1`, userID)
	st, err := scanStats(row)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("PostgresStore.GetLatestStats: no stats yet", "userID", userID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore.GetLatestStats failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to get stats for user %d: %w", userID, err)
	}
	return &st, nil
}

func (s *PostgresStore) upsertStatsExec(e execer, st *models.LifeStats) error {
	now := time.Now().UTC()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	st.UpdatedAt = now
	err := e.QueryRow(
		`INSERT INTO life_stats (user_id, health_score, career_score, relationships_score, finances_score, personal_score, social_score, overall_score, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (user_id) DO UPDATE SET
			health_score = EXCLUDED.health_score,
			career_score = EXCLUDED.career_score,
			relationships_score = EXCLUDED.relationships_score,
			finances_score = EXCLUDED.finances_score,
			personal_score = EXCLUDED.personal_score,
			social_score = EXCLUDED.social_score,
			overall_score = EXCLUDED.overall_score,
			updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at`,
		st.UserID, st.HealthScore, st.CareerScore, st.RelationshipsScore,
		st.FinancesScore, st.PersonalScore, st.SocialScore, st.OverallScore,
		st.CreatedAt, st.UpdatedAt).Scan(&st.ID, &st.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert stats for user %d: %w", st.UserID, err)
	}
	return nil
}

func (s *PostgresStore) addScoreUpdateExec(e execer, upd *models.ScoreUpdate) error {
	if upd.CreatedAt.IsZero() {
		upd.CreatedAt = time.Now().UTC()
	}
	err := e.QueryRow(
		`INSERT INTO score_updates (user_id, category, old_score, new_score, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		upd.UserID, upd.Category, upd.OldScore, upd.NewScore, nilIfEmpty(upd.Reason), upd.CreatedAt).Scan(&upd.ID)
	if err != nil {
		return fmt.Errorf("failed to insert score update: %w", err)
	}
	return nil
}

// UpsertStats inserts or replaces the stats row for the user.
func (s *PostgresStore) UpsertStats(st *models.LifeStats) error {
	if err := s.upsertStatsExec(s.db, st); err != nil {
		slog.Error("PostgresStore.UpsertStats failed", "error", err, "userID", st.UserID)
		return err
	}
	slog.Debug("PostgresStore.UpsertStats succeeded", "userID", st.UserID, "overall", st.OverallScore)
	return nil
}

// SaveStatsWithUpdate persists the stats upsert and the score-update record
// in one transaction.
func (s *PostgresStore) SaveStatsWithUpdate(st *models.LifeStats, upd *models.ScoreUpdate) error {
	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("PostgresStore.SaveStatsWithUpdate: begin failed", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.upsertStatsExec(tx, st); err != nil {
		slog.Error("PostgresStore.SaveStatsWithUpdate: stats upsert failed", "error", err, "userID", st.UserID)
		return err
	}
	if err := s.addScoreUpdateExec(tx, upd); err != nil {
		slog.Error("PostgresStore.SaveStatsWithUpdate: score update insert failed", "error", err, "userID", upd.UserID)
		return err
	}
	if err := tx.Commit(); err != nil {
		slog.Error("PostgresStore.SaveStatsWithUpdate: commit failed", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	slog.Debug("PostgresStore.SaveStatsWithUpdate succeeded", "userID", st.UserID, "category", upd.Category)
	return nil
}

// AddScoreUpdate appends a score-update record.
func (s *PostgresStore) AddScoreUpdate(upd *models.ScoreUpdate) error {
	if err := s.addScoreUpdateExec(s.db, upd); err != nil {
		slog.Error("PostgresStore.AddScoreUpdate failed", "error", err, "userID", upd.UserID)
		return err
	}
	return nil
}

// ListScoreUpdates returns a user's score updates newest first.
// A limit of 0 returns all records.
func (s *PostgresStore) ListScoreUpdates(userID int64, limit int) ([]models.ScoreUpdate, error) {
	query := `SELECT id, user_id, category, old_score, new_score, reason, created_at
			  FROM score_updates WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore.ListScoreUpdates query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query score updates: %w", err)
	}
	defer rows.Close()

	var updates []models.ScoreUpdate
	for rows.Next() {
		u, err := scanScoreUpdate(rows)
		if err != nil {
			slog.Error("PostgresStore.ListScoreUpdates scan failed", "error", err)
			return nil, err
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate score update rows: %w", err)
	}
	slog.Debug("PostgresStore.ListScoreUpdates succeeded", "userID", userID, "count", len(updates))
	return updates, nil
}

// AddActivityLog appends an activity log entry.
func (s *PostgresStore) AddActivityLog(entry *models.ActivityLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRow(
		`INSERT INTO activity_logs (user_id, category, description, score_impact, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		entry.UserID, entry.Category, entry.Description, entry.ScoreImpact, entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		slog.Error("PostgresStore.AddActivityLog failed", "error", err, "userID", entry.UserID)
		return fmt.Errorf("failed to insert activity log: %w", err)
	}
	return nil
}

// ListActivityLogs returns a user's activity entries newest first.
// A limit of 0 returns all records.
func (s *PostgresStore) ListActivityLogs(userID int64, limit int) ([]models.ActivityLog, error) {
	query := `SELECT id, user_id, category, description, score_impact, created_at
			  FROM activity_logs WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore.ListActivityLogs query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	var entries []models.ActivityLog
	for rows.Next() {
		e, err := scanActivityLog(rows)
		if err != nil {
			slog.Error("PostgresStore.ListActivityLogs scan failed", "error", err)
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
func (s *PostgresStore) CreateGoal(g *models.Goal) error {
	now := time.Now().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	var targetDate interface{}
	if g.TargetDate != nil {
		targetDate = *g.TargetDate
	}
	err := s.db.QueryRow(
		`INSERT INTO goals (user_id, category, title, description, target_date, progress, is_completed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		g.UserID, g.Category, g.Title, nilIfEmpty(g.Description), targetDate,
		g.Progress, g.IsCompleted, g.CreatedAt, g.UpdatedAt).Scan(&g.ID)
	if err != nil {
		slog.Error("PostgresStore.CreateGoal failed", "error", err, "userID", g.UserID)
		return fmt.Errorf("failed to insert goal: %w", err)
	}
	slog.Debug("PostgresStore.CreateGoal succeeded", "goalID", g.ID, "userID", g.UserID)
	return nil
}

// GetGoal returns the goal with the given ID, or (nil, nil) if absent.
func (s *PostgresStore) GetGoal(id int64) (*models.Goal, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, category, title, description, target_date, progress, is_completed, created_at, updated_at
		 FROM goals WHERE id = $1`, id)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore.GetGoal failed", "error", err, "goalID", id)
		return nil, fmt.Errorf("failed to get goal %d: %w", id, err)
	}
	return &g, nil
}

// UpdateGoal persists changes to an existing goal.
func (s *PostgresStore) UpdateGoal(g *models.Goal) error {
	g.UpdatedAt = time.Now().UTC()
	var targetDate interface{}
	if g.TargetDate != nil {
		targetDate = *g.TargetDate
	}
	res, err := s.db.Exec(
		`UPDATE goals SET category = $1, title = $2, description = $3, target_date = $4, progress = $5, is_completed = $6, updated_at = $7 WHERE id = $8`,
		g.Category, g.Title, nilIfEmpty(g.Description), targetDate, g.Progress, g.IsCompleted, g.UpdatedAt, g.ID)
	if err != nil {
		slog.Error("PostgresStore.UpdateGoal failed", "error", err, "goalID", g.ID)
		return fmt.Errorf("failed to update goal %d: %w", g.ID, err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return models.ErrGoalNotFound
	}
	slog.Debug("PostgresStore.UpdateGoal succeeded", "goalID", g.ID, "progress", g.Progress)
	return nil
}

// ListGoals returns all goals for a user in creation order.
func (s *PostgresStore) ListGoals(userID int64) ([]models.Goal, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, category, title, description, target_date, progress, is_completed, created_at, updated_at
		 FROM goals WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		slog.Error("PostgresStore.ListGoals query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			slog.Error("PostgresStore.ListGoals scan failed", "error", err)
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
func (s *PostgresStore) AddChatMessage(m *models.ChatMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRow(
		`INSERT INTO chat_messages (user_id, sender, content, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		m.UserID, m.Sender, m.Content, m.CreatedAt).Scan(&m.ID)
	if err != nil {
		slog.Error("PostgresStore.AddChatMessage failed", "error", err, "userID", m.UserID)
		return fmt.Errorf("failed to insert chat message: %w", err)
	}
	return nil
}

// ListChatMessages returns a user's chat history in chronological order.
// When limit > 0 only the most recent entries are returned, still oldest first.
func (s *PostgresStore) ListChatMessages(userID int64, limit int) ([]models.ChatMessage, error) {
	query := `SELECT id, user_id, sender, content, created_at
			  FROM chat_messages WHERE user_id = $1 ORDER BY created_at, id`
	args := []interface{}{userID}
	if limit > 0 {
		// Select the newest rows first, then restore chronological order.
		query = `SELECT id, user_id, sender, content, created_at FROM (
					SELECT id, user_id, sender, content, created_at
					FROM chat_messages WHERE user_id = $1
					ORDER BY created_at DESC, id DESC LIMIT $2
				 ) recent ORDER BY created_at, id`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore.ListChatMessages query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	var msgs []models.ChatMessage
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			slog.Error("PostgresStore.ListChatMessages scan failed", "error", err)
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat message rows: %w", err)
	}
	slog.Debug("PostgresStore.ListChatMessages succeeded", "userID", userID, "count", len(msgs))
	return msgs, nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	} else {
		slog.Debug("Postgres database connection closed successfully")
	}
	return err
}
