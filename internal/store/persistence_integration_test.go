package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BTreeMap/LifeRank/internal/models"
)

// TestSQLiteRestartPersistence simulates a crash-and-restart scenario.
// It writes a user with stats, goals, and chat history, closes the store,
// reopens the same database file, and verifies everything survived.
func TestSQLiteRestartPersistence(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "restart_test_")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "test.db")

	// Phase 1: create store and write a full user record
	s1, err := NewSQLiteStore(WithSQLiteDSN(dbPath))
	if err != nil {
		t.Fatalf("NewSQLiteStore (phase 1) failed: %v", err)
	}

	u := &models.User{Email: "sam@example.com", Name: "Sam", HashedPassword: "hash", IsActive: true}
	if err := s1.CreateUser(u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	stats := models.NewDefaultLifeStats(u.ID)
	stats.HealthScore = 8.5
	stats.RecomputeOverall()
	upd := &models.ScoreUpdate{UserID: u.ID, Category: models.CategoryHealth, OldScore: 7, NewScore: 8.5, Reason: "started running"}
	if err := s1.SaveStatsWithUpdate(stats, upd); err != nil {
		t.Fatalf("SaveStatsWithUpdate failed: %v", err)
	}

	goal := &models.Goal{UserID: u.ID, Category: models.CategoryHealth, Title: "Run a marathon", Progress: 25}
	if err := s1.CreateGoal(goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	msg := &models.ChatMessage{UserID: u.ID, Sender: models.SenderUser, Content: "how am I doing?"}
	if err := s1.AddChatMessage(msg); err != nil {
		t.Fatalf("AddChatMessage failed: %v", err)
	}

	// "Crash": close the store
	if err := s1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Phase 2: reopen the same database file and verify
	s2, err := NewSQLiteStore(WithSQLiteDSN(dbPath))
	if err != nil {
		t.Fatalf("NewSQLiteStore (phase 2) failed: %v", err)
	}
	defer s2.Close()

	gotUser, err := s2.GetUserByEmail("sam@example.com")
	if err != nil || gotUser == nil {
		t.Fatalf("GetUserByEmail after restart = (%v, %v)", gotUser, err)
	}
	if gotUser.ID != u.ID || gotUser.Name != "Sam" {
		t.Errorf("restored user = %+v", gotUser)
	}

	gotStats, err := s2.GetLatestStats(u.ID)
	if err != nil || gotStats == nil {
		t.Fatalf("GetLatestStats after restart = (%v, %v)", gotStats, err)
	}
	if gotStats.HealthScore != 8.5 {
		t.Errorf("restored HealthScore = %v, want 8.5", gotStats.HealthScore)
	}

	updates, err := s2.ListScoreUpdates(u.ID, 0)
	if err != nil || len(updates) != 1 {
		t.Fatalf("ListScoreUpdates after restart = (%+v, %v), want 1 record", updates, err)
	}
	if updates[0].Reason != "started running" {
		t.Errorf("restored score update = %+v", updates[0])
	}

	goals, err := s2.ListGoals(u.ID)
	if err != nil || len(goals) != 1 {
		t.Fatalf("ListGoals after restart = (%+v, %v), want 1 goal", goals, err)
	}
	if goals[0].Title != "Run a marathon" || goals[0].Progress != 25 {
		t.Errorf("restored goal = %+v", goals[0])
	}

	msgs, err := s2.ListChatMessages(u.ID, 0)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("ListChatMessages after restart = (%+v, %v), want 1 message", msgs, err)
	}
	if msgs[0].Sender != models.SenderUser || msgs[0].Content != "how am I doing?" {
		t.Errorf("restored chat message = %+v", msgs[0])
	}
}

// TestSQLiteDuplicateEmail verifies the unique constraint maps to ErrEmailTaken.
func TestSQLiteDuplicateEmail(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "dup_email_test_")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	s, err := NewSQLiteStore(WithSQLiteDSN(filepath.Join(tempDir, "test.db")))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	u := &models.User{Email: "dup@example.com", HashedPassword: "hash", IsActive: true}
	if err := s.CreateUser(u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	dup := &models.User{Email: "dup@example.com", HashedPassword: "hash2", IsActive: true}
	if err := s.CreateUser(dup); err != models.ErrEmailTaken {
		t.Errorf("CreateUser with duplicate email = %v, want ErrEmailTaken", err)
	}
}
