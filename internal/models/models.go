// Package models defines the core data structures for LifeRank.
//
// It includes types for users, life-score statistics, goals, activity logs,
// and chat history, which are shared across modules.
package models

import (
	"errors"
	"time"
)

// Category identifies one of the six tracked life areas.
type Category string

const (
	// CategoryHealth covers physical health, fitness, and wellness.
	CategoryHealth Category = "health"
	// CategoryCareer covers professional growth and work satisfaction.
	CategoryCareer Category = "career"
	// CategoryRelationships covers family, friends, and romantic relationships.
	CategoryRelationships Category = "relationships"
	// CategoryFinances covers financial health, savings, and investments.
	CategoryFinances Category = "finances"
	// CategoryPersonal covers personal growth, learning, and hobbies.
	CategoryPersonal Category = "personal"
	// CategorySocial covers social connections and community involvement.
	CategorySocial Category = "social"
)

// Score and progress bounds.
const (
	// MinScore is the lowest allowed category score.
	MinScore = 0.0
	// MaxScore is the highest allowed category score.
	MaxScore = 10.0
	// DefaultScore is assigned to every category when stats are first created.
	DefaultScore = 7.0
	// MaxGoalProgress is the progress value at which a goal is complete.
	MaxGoalProgress = 100.0
)

// Validation constants for input validation
const (
	// MaxChatMessageLength defines the maximum allowed length for chat messages
	MaxChatMessageLength = 4096
	// MaxGoalTitleLength defines the maximum allowed length for goal titles
	MaxGoalTitleLength = 200
	// MaxDescriptionLength defines the maximum allowed length for free-text descriptions
	MaxDescriptionLength = 2000
)

// Error variables for better error handling and testability
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrGoalNotFound       = errors.New("goal not found")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrScoreOutOfRange    = errors.New("score must be between 0 and 10")
	ErrEmailTaken         = errors.New("email already registered")
	ErrEmptyEmail         = errors.New("email cannot be empty")
	ErrEmptyPassword      = errors.New("password cannot be empty")
	ErrEmptyMessage       = errors.New("message cannot be empty")
	ErrMessageTooLong     = errors.New("message exceeds maximum length")
	ErrEmptyGoalTitle     = errors.New("goal title cannot be empty")
	ErrGoalTitleTooLong   = errors.New("goal title exceeds maximum length")
	ErrDescriptionTooLong = errors.New("description exceeds maximum length")
	ErrInactiveUser       = errors.New("user account is inactive")
)

// Categories returns all tracked categories in their canonical order.
// The order is load-bearing: overall-score computation and prompt rendering
// iterate categories in this order.
func Categories() []Category {
	return []Category{
		CategoryHealth,
		CategoryCareer,
		CategoryRelationships,
		CategoryFinances,
		CategoryPersonal,
		CategorySocial,
	}
}

// IsValidCategory checks if the given category is supported.
func IsValidCategory(c Category) bool {
	switch c {
	case CategoryHealth, CategoryCareer, CategoryRelationships, CategoryFinances, CategoryPersonal, CategorySocial:
		return true
	default:
		return false
	}
}

// User represents a registered account. The demographic fields are
// optional and only ever set through profile updates.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name,omitempty"`
	Age            *int      `json:"age,omitempty"`
	Gender         string    `json:"gender,omitempty"`
	Location       string    `json:"location,omitempty"`
	HashedPassword string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LifeStats holds the current score for each category plus the derived overall.
type LifeStats struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	HealthScore        float64   `json:"health_score"`
	CareerScore        float64   `json:"career_score"`
	RelationshipsScore float64   `json:"relationships_score"`
	FinancesScore      float64   `json:"finances_score"`
	PersonalScore      float64   `json:"personal_score"`
	SocialScore        float64   `json:"social_score"`
	OverallScore       float64   `json:"overall_score"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewDefaultLifeStats returns stats with every category at the default score.
func NewDefaultLifeStats(userID int64) *LifeStats {
	s := &LifeStats{
		UserID:             userID,
		HealthScore:        DefaultScore,
		CareerScore:        DefaultScore,
		RelationshipsScore: DefaultScore,
		FinancesScore:      DefaultScore,
		PersonalScore:      DefaultScore,
		SocialScore:        DefaultScore,
	}
	s.RecomputeOverall()
	return s
}

// CategoryScore returns the score stored for the given category.
func (s *LifeStats) CategoryScore(c Category) float64 {
	switch c {
	case CategoryHealth:
		return s.HealthScore
	case CategoryCareer:
		return s.CareerScore
	case CategoryRelationships:
		return s.RelationshipsScore
	case CategoryFinances:
		return s.FinancesScore
	case CategoryPersonal:
		return s.PersonalScore
	case CategorySocial:
		return s.SocialScore
	default:
		return 0
	}
}

// SetCategoryScore stores score for the given category and recomputes the overall.
func (s *LifeStats) SetCategoryScore(c Category, score float64) error {
	switch c {
	case CategoryHealth:
		s.HealthScore = score
	case CategoryCareer:
		s.CareerScore = score
	case CategoryRelationships:
		s.RelationshipsScore = score
	case CategoryFinances:
		s.FinancesScore = score
	case CategoryPersonal:
		s.PersonalScore = score
	case CategorySocial:
		s.SocialScore = score
	default:
		return ErrInvalidCategory
	}
	s.RecomputeOverall()
	return nil
}

// RecomputeOverall sets OverallScore to the arithmetic mean of the six
// category scores. It must be called after every category mutation so the
// stored overall never drifts from its inputs.
func (s *LifeStats) RecomputeOverall() {
	sum := s.HealthScore + s.CareerScore + s.RelationshipsScore +
		s.FinancesScore + s.PersonalScore + s.SocialScore
	s.OverallScore = sum / float64(len(Categories()))
}

// ScoreUpdate is an append-only audit record of a single score change.
type ScoreUpdate struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Category  Category  `json:"category"`
	OldScore  float64   `json:"old_score"`
	NewScore  float64   `json:"new_score"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityLog is an append-only record of a user activity in some category.
type ActivityLog struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Category    Category  `json:"category"`
	Description string    `json:"description"`
	ScoreImpact float64   `json:"score_impact,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Goal represents a user goal in one category with clamped percent progress.
type Goal struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Category    Category   `json:"category"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	Progress    float64    `json:"progress"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Chat message senders.
const (
	// SenderUser tags a message written by the user.
	SenderUser = "user"
	// SenderAI tags a reply written by the coach.
	SenderAI = "ai"
)

// ChatMessage is one turn of the coaching conversation. A user turn and the
// resulting coach turn are persisted as separate records, user first.
type ChatMessage struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// API request payloads

// RegisterRequest represents the payload for creating an account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password" validate:"required"`
}

// Validate validates a RegisterRequest.
func (r *RegisterRequest) Validate() error {
	if r.Email == "" {
		return ErrEmptyEmail
	}
	if r.Password == "" {
		return ErrEmptyPassword
	}
	return nil
}

// LoginRequest represents the payload for password login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Validate validates a LoginRequest.
func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return ErrEmptyEmail
	}
	if r.Password == "" {
		return ErrEmptyPassword
	}
	return nil
}

// UserUpdateRequest represents the payload for updating profile fields.
// Nil pointers leave the corresponding field unchanged.
type UserUpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Age      *int    `json:"age,omitempty"`
	Gender   *string `json:"gender,omitempty"`
	Location *string `json:"location,omitempty"`
}

// ScoreUpdateRequest represents the payload for changing one category score.
type ScoreUpdateRequest struct {
	Category Category `json:"category" validate:"required"`
	Score    float64  `json:"score" validate:"required"`
	Reason   string   `json:"reason,omitempty"`
}

// Validate validates a ScoreUpdateRequest.
func (r *ScoreUpdateRequest) Validate() error {
	if !IsValidCategory(r.Category) {
		return ErrInvalidCategory
	}
	if r.Score < MinScore || r.Score > MaxScore {
		return ErrScoreOutOfRange
	}
	if len(r.Reason) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// GoalCreateRequest represents the payload for creating a goal.
type GoalCreateRequest struct {
	Category    Category   `json:"category" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description,omitempty"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
}

// Validate validates a GoalCreateRequest.
func (r *GoalCreateRequest) Validate() error {
	if !IsValidCategory(r.Category) {
		return ErrInvalidCategory
	}
	if r.Title == "" {
		return ErrEmptyGoalTitle
	}
	if len(r.Title) > MaxGoalTitleLength {
		return ErrGoalTitleTooLong
	}
	if len(r.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// GoalProgressRequest represents the payload for updating goal progress.
// Progress is accepted on any scale and clamped to [0, 100] by the manager.
type GoalProgressRequest struct {
	Progress float64 `json:"progress"`
}

// ActivityLogRequest represents the payload for recording an activity.
type ActivityLogRequest struct {
	Category    Category `json:"category" validate:"required"`
	Description string   `json:"description" validate:"required"`
	ScoreImpact float64  `json:"score_impact,omitempty"`
}

// Validate validates an ActivityLogRequest.
func (r *ActivityLogRequest) Validate() error {
	if !IsValidCategory(r.Category) {
		return ErrInvalidCategory
	}
	if r.Description == "" {
		return errors.New("description is required")
	}
	if len(r.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// ChatRequest represents the payload for sending a message to the coach.
type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

// Validate validates a ChatRequest.
func (r *ChatRequest) Validate() error {
	if r.Message == "" {
		return ErrEmptyMessage
	}
	if len(r.Message) > MaxChatMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// TokenResponse is returned by the auth endpoints on success.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ChatResponse is returned by the chat endpoint: the coach reply plus the
// persisted exchange id.
type ChatResponse struct {
	Response  string    `json:"response"`
	MessageID int64     `json:"message_id"`
	CreatedAt time.Time `json:"created_at"`
}

// API Response types for consistent JSON responses

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{
		response: APIResponse{},
	}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Convenience functions for common response patterns

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage(message).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}
