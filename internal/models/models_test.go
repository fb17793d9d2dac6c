package models

import (
	"errors"
	"testing"
)

func TestCategoriesOrder(t *testing.T) {
	want := []Category{
		CategoryHealth,
		CategoryCareer,
		CategoryRelationships,
		CategoryFinances,
		CategoryPersonal,
		CategorySocial,
	}
	got := Categories()
	if len(got) != len(want) {
		t.Fatalf("Categories() returned %d categories, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Categories()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestIsValidCategory(t *testing.T) {
	for _, c := range Categories() {
		if !IsValidCategory(c) {
			t.Errorf("IsValidCategory(%q) = false, want true", c)
		}
	}
	for _, c := range []Category{"", "wealth", "Health", "fitness"} {
		if IsValidCategory(c) {
			t.Errorf("IsValidCategory(%q) = true, want false", c)
		}
	}
}

func TestNewDefaultLifeStats(t *testing.T) {
	s := NewDefaultLifeStats(42)
	if s.UserID != 42 {
		t.Errorf("UserID = %d, want 42", s.UserID)
	}
	for _, c := range Categories() {
		if got := s.CategoryScore(c); got != DefaultScore {
			t.Errorf("CategoryScore(%q) = %v, want %v", c, got, DefaultScore)
		}
	}
	if s.OverallScore != DefaultScore {
		t.Errorf("OverallScore = %v, want %v", s.OverallScore, DefaultScore)
	}
}

func TestSetCategoryScoreRecomputesOverall(t *testing.T) {
	s := NewDefaultLifeStats(1)
	if err := s.SetCategoryScore(CategoryHealth, 10); err != nil {
		t.Fatalf("SetCategoryScore failed: %v", err)
	}
	// (10 + 7*5) / 6
	want := 45.0 / 6.0
	if s.OverallScore != want {
		t.Errorf("OverallScore = %v, want %v", s.OverallScore, want)
	}
	if err := s.SetCategoryScore("bogus", 5); !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("SetCategoryScore with bad category returned %v, want ErrInvalidCategory", err)
	}
}

func TestScoreUpdateRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     ScoreUpdateRequest
		wantErr error
	}{
		{"valid", ScoreUpdateRequest{Category: CategoryHealth, Score: 8.5}, nil},
		{"zero score valid", ScoreUpdateRequest{Category: CategoryFinances, Score: 0}, nil},
		{"max score valid", ScoreUpdateRequest{Category: CategorySocial, Score: 10}, nil},
		{"invalid category", ScoreUpdateRequest{Category: "wealth", Score: 5}, ErrInvalidCategory},
		{"negative score", ScoreUpdateRequest{Category: CategoryHealth, Score: -0.1}, ErrScoreOutOfRange},
		{"score above max", ScoreUpdateRequest{Category: CategoryHealth, Score: 10.1}, ErrScoreOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGoalCreateRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     GoalCreateRequest
		wantErr error
	}{
		{"valid", GoalCreateRequest{Category: CategoryCareer, Title: "Get promoted"}, nil},
		{"missing title", GoalCreateRequest{Category: CategoryCareer}, ErrEmptyGoalTitle},
		{"invalid category", GoalCreateRequest{Category: "fame", Title: "x"}, ErrInvalidCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestChatRequestValidate(t *testing.T) {
	if err := (&ChatRequest{Message: "hello"}).Validate(); err != nil {
		t.Errorf("Validate() on valid request failed: %v", err)
	}
	if err := (&ChatRequest{}).Validate(); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("Validate() on empty message = %v, want ErrEmptyMessage", err)
	}
}

func TestRegisterRequestValidate(t *testing.T) {
	if err := (&RegisterRequest{Email: "a@b.c", Password: "pw"}).Validate(); err != nil {
		t.Errorf("Validate() on valid request failed: %v", err)
	}
	if err := (&RegisterRequest{Password: "pw"}).Validate(); !errors.Is(err, ErrEmptyEmail) {
		t.Errorf("Validate() without email = %v, want ErrEmptyEmail", err)
	}
	if err := (&RegisterRequest{Email: "a@b.c"}).Validate(); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("Validate() without password = %v, want ErrEmptyPassword", err)
	}
}

func TestAPIResponseBuilders(t *testing.T) {
	resp := Success(map[string]string{"k": "v"})
	if resp.Status != string(APIStatusOK) || resp.Result == nil {
		t.Errorf("Success() produced unexpected response: %+v", resp)
	}
	resp = Error("boom")
	if resp.Status != string(APIStatusError) || resp.Message != "boom" {
		t.Errorf("Error() produced unexpected response: %+v", resp)
	}
	resp = SuccessWithMessage("done", nil)
	if resp.Status != string(APIStatusOK) || resp.Message != "done" {
		t.Errorf("SuccessWithMessage() produced unexpected response: %+v", resp)
	}
}
