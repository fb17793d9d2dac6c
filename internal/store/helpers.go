package store

import (
	"database/sql"
	"fmt"

	"github.com/BTreeMap/LifeRank/internal/models"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows, so the scan
// helpers below work for single-row and multi-row queries.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// scanUser scans a User from the column order:
// id, email, name, age, gender, location, hashed_password, is_active,
// created_at, updated_at.
func scanUser(r rowScanner) (models.User, error) {
	var u models.User
	var name, gender, location sql.NullString
	var age sql.NullInt64
	err := r.Scan(&u.ID, &u.Email, &name, &age, &gender, &location,
		&u.HashedPassword, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return u, err
	}
	u.Name = name.String
	u.Gender = gender.String
	u.Location = location.String
	if age.Valid {
		v := int(age.Int64)
		u.Age = &v
	}
	return u, nil
}

// scanStats scans a LifeStats from the column order:
// id, user_id, six category scores, overall_score, created_at, updated_at.
func scanStats(r rowScanner) (models.LifeStats, error) {
	var s models.LifeStats
	err := r.Scan(
		&s.ID, &s.UserID,
		&s.HealthScore, &s.CareerScore, &s.RelationshipsScore,
		&s.FinancesScore, &s.PersonalScore, &s.SocialScore,
		&s.OverallScore, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// scanScoreUpdate scans a ScoreUpdate from the column order:
// id, user_id, category, old_score, new_score, reason, created_at.
func scanScoreUpdate(r rowScanner) (models.ScoreUpdate, error) {
	var u models.ScoreUpdate
	var reason sql.NullString
	err := r.Scan(&u.ID, &u.UserID, &u.Category, &u.OldScore, &u.NewScore, &reason, &u.CreatedAt)
	if err != nil {
		return u, fmt.Errorf("scan score update failed: %w", err)
	}
	u.Reason = reason.String
	return u, nil
}

// scanActivityLog scans an ActivityLog from the column order:
// id, user_id, category, description, score_impact, created_at.
func scanActivityLog(r rowScanner) (models.ActivityLog, error) {
	var e models.ActivityLog
	err := r.Scan(&e.ID, &e.UserID, &e.Category, &e.Description, &e.ScoreImpact, &e.CreatedAt)
	if err != nil {
		return e, fmt.Errorf("scan activity log failed: %w", err)
	}
	return e, nil
}

// scanGoal scans a Goal from the column order:
// id, user_id, category, title, description, target_date, progress,
// is_completed, created_at, updated_at.
func scanGoal(r rowScanner) (models.Goal, error) {
	var g models.Goal
	var description sql.NullString
	var targetDate sql.NullTime
	err := r.Scan(
		&g.ID, &g.UserID, &g.Category, &g.Title, &description,
		&targetDate, &g.Progress, &g.IsCompleted, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return g, fmt.Errorf("scan goal failed: %w", err)
	}
	g.Description = description.String
	if targetDate.Valid {
		g.TargetDate = &targetDate.Time
	}
	return g, nil
}

// scanChatMessage scans a ChatMessage from the column order:
// id, user_id, sender, content, created_at.
func scanChatMessage(r rowScanner) (models.ChatMessage, error) {
	var m models.ChatMessage
	err := r.Scan(&m.ID, &m.UserID, &m.Sender, &m.Content, &m.CreatedAt)
	if err != nil {
		return m, fmt.Errorf("scan chat message failed: %w", err)
	}
	return m, nil
}
