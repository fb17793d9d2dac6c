// Package knowledge loads the coaching knowledge document injected into
// AI coach prompts.
//
// The document can be overridden with an external file; when the file is
// missing or unreadable the built-in default is used, so loading never fails.
package knowledge

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// defaultKnowledge is the built-in coaching knowledge document.
const defaultKnowledge = `Life Rank User Guide:

1. Life Rank Scoring System:
   - Overall Score: Average of all category scores
   - Categories: Health, Career, Relationships, Finances, Personal Growth, Social Life
   - Scale: 1-10 (10 being excellent)

2. Coaching Approach:
   - Be encouraging and supportive
   - Provide specific, actionable advice
   - Focus on small, achievable improvements
   - Celebrate progress and milestones
   - Help users set SMART goals

3. Key Areas to Focus On:
   - Health: Exercise, nutrition, sleep, mental health
   - Career: Skills, networking, job satisfaction, growth
   - Relationships: Family, romantic, friendships
   - Finances: Budgeting, saving, investing, debt management
   - Personal: Hobbies, learning, self-improvement
   - Social: Community involvement, social connections

Coaching Tips:

1. Active Listening:
   - Pay attention to user's specific concerns
   - Ask clarifying questions
   - Acknowledge their feelings and challenges

2. Goal Setting:
   - Help break down large goals into smaller steps
   - Set specific deadlines and milestones
   - Focus on process goals vs. outcome goals

3. Motivation Techniques:
   - Use positive reinforcement
   - Help users visualize success
   - Connect goals to their values and desires
   - Provide accountability and check-ins

4. Problem-Solving:
   - Help identify obstacles and barriers
   - Brainstorm solutions together
   - Encourage experimentation and learning from failures
`

// Opts holds configuration options for the knowledge loader.
type Opts struct {
	// FilePath points at an override document on disk.
	FilePath string
}

// Option configures the knowledge loader.
type Option func(*Opts)

// WithFilePath sets the override document path.
func WithFilePath(path string) Option {
	return func(o *Opts) {
		o.FilePath = path
	}
}

// Loader serves the coaching knowledge document. The document is read at
// most once and cached for the lifetime of the loader.
type Loader struct {
	filePath string
	once     sync.Once
	content  string
}

// NewLoader creates a knowledge loader.
func NewLoader(opts ...Option) *Loader {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Loader{filePath: cfg.FilePath}
}

// Load returns the knowledge document. It never fails: when no override
// file is configured, the file is missing, or the file is empty, the
// built-in default is returned instead.
func (l *Loader) Load() string {
	l.once.Do(func() {
		l.content = defaultKnowledge
		if l.filePath == "" {
			slog.Debug("Knowledge.Load: using built-in document")
			return
		}
		data, err := os.ReadFile(l.filePath)
		if err != nil {
			slog.Warn("Knowledge.Load: failed to read override file, using built-in document", "error", err, "path", l.filePath)
			return
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			slog.Warn("Knowledge.Load: override file is empty, using built-in document", "path", l.filePath)
			return
		}
		l.content = string(data)
		slog.Info("Knowledge.Load: loaded override document", "path", l.filePath, "bytes", len(data))
	})
	return l.content
}

// Default returns the built-in knowledge document.
func Default() string {
	return defaultKnowledge
}
