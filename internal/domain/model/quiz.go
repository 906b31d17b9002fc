package model

import "time"

type QuizDifficulty string

const (
	DifficultyEasy   QuizDifficulty = "easy"
	DifficultyMedium QuizDifficulty = "medium"
	DifficultyHard   QuizDifficulty = "hard"
)

// DailyQuiz is one quiz per calendar date. Immutable once published;
// IsActive gates visibility.
type DailyQuiz struct {
	ID         string         `json:"id"`
	QuizDate   string         `json:"quiz_date"` // YYYY-MM-DD
	Theme      *string        `json:"theme,omitempty"`
	Difficulty QuizDifficulty `json:"difficulty_level"`
	IsActive   bool           `json:"is_active"`
	CreatedAt  time.Time      `json:"created_at"`
}

type QuizQuestion struct {
	ID            string           `json:"id"`
	DailyQuizID   string           `json:"daily_quiz_id"`
	QuestionText  string           `json:"question_text"`
	QuestionOrder int              `json:"question_order"`
	Difficulty    QuizDifficulty   `json:"difficulty"`
	Explanation   *string          `json:"explanation,omitempty"`
	Options       []QuestionOption `json:"options"`
}

// QuestionOption: IsCorrect is the canonical answer key and is never
// serialized to clients. Scoring recomputes correctness from it server-side.
type QuestionOption struct {
	ID          string `json:"id"`
	QuestionID  string `json:"question_id"`
	OptionText  string `json:"option_text"`
	OptionOrder int    `json:"option_order"`
	IsCorrect   bool   `json:"-"`
}

// UserQuizAttempt is one user's completed scoring record for one daily quiz.
// At most one exists per (user, daily_quiz); immutable once created.
type UserQuizAttempt struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	DailyQuizID    string     `json:"daily_quiz_id"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"total_questions"`
	TimeTaken      *int       `json:"time_taken,omitempty"` // seconds
	CompletedAt    time.Time  `json:"completed_at"`
	Quiz           *DailyQuiz `json:"daily_quiz,omitempty"` // For history display
}

// UserQuestionAnswer records the selected option and the server-computed
// correctness for one (attempt, question) pair.
type UserQuestionAnswer struct {
	ID               string    `json:"id"`
	AttemptID        string    `json:"attempt_id"`
	QuestionID       string    `json:"question_id"`
	SelectedOptionID string    `json:"selected_option_id"`
	IsCorrect        bool      `json:"is_correct"`
	TimeTaken        *int      `json:"time_taken,omitempty"`
	AnsweredAt       time.Time `json:"answered_at"`
}
