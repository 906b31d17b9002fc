package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quizleague/internal/common"
	"quizleague/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type QuizRepository interface {
	FindActiveByDate(ctx context.Context, date string) (*model.DailyQuiz, error)
	FindActiveByID(ctx context.Context, id string) (*model.DailyQuiz, error)
	GetQuestionsWithOptions(ctx context.Context, quizID string) ([]model.QuizQuestion, error)

	FindAttempt(ctx context.Context, userID, quizID string) (*model.UserQuizAttempt, error)
	CreateAttempt(ctx context.Context, tx *sql.Tx, attempt *model.UserQuizAttempt) error
	CreateAnswers(ctx context.Context, tx *sql.Tx, answers []model.UserQuestionAnswer) error
	ListAttemptsByUser(ctx context.Context, userID string, limit int) ([]model.UserQuizAttempt, error)
	FindAttemptByID(ctx context.Context, attemptID string) (*model.UserQuizAttempt, error)
	ListAnswersByAttempt(ctx context.Context, attemptID string) ([]model.UserQuestionAnswer, error)
}

type pgQuizRepository struct {
	db *sql.DB
}

func NewPgQuizRepository(db *sql.DB) QuizRepository {
	return &pgQuizRepository{db: db}
}

func (r *pgQuizRepository) FindActiveByDate(ctx context.Context, date string) (*model.DailyQuiz, error) {
	query := `SELECT id, quiz_date, theme, difficulty_level, is_active, created_at
	          FROM daily_quizzes
	          WHERE quiz_date = $1 AND is_active = TRUE`
	quiz := &model.DailyQuiz{}
	err := r.db.QueryRowContext(ctx, query, date).Scan(
		&quiz.ID, &quiz.QuizDate, &quiz.Theme, &quiz.Difficulty, &quiz.IsActive, &quiz.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgQuizRepository.FindActiveByDate: %w", err)
	}
	return quiz, nil
}

func (r *pgQuizRepository) FindActiveByID(ctx context.Context, id string) (*model.DailyQuiz, error) {
	query := `SELECT id, quiz_date, theme, difficulty_level, is_active, created_at
	          FROM daily_quizzes
	          WHERE id = $1 AND is_active = TRUE`
	quiz := &model.DailyQuiz{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&quiz.ID, &quiz.QuizDate, &quiz.Theme, &quiz.Difficulty, &quiz.IsActive, &quiz.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgQuizRepository.FindActiveByID: %w", err)
	}
	return quiz, nil
}

// GetQuestionsWithOptions returns the canonical question set for a quiz in
// question order, each question carrying its options (answer key included).
func (r *pgQuizRepository) GetQuestionsWithOptions(ctx context.Context, quizID string) ([]model.QuizQuestion, error) {
	query := `SELECT q.id, q.daily_quiz_id, q.question_text, q.question_order, q.difficulty, q.explanation,
	                 o.id, o.question_id, o.option_text, o.option_order, o.is_correct
	          FROM quiz_questions q
	          JOIN question_options o ON o.question_id = q.id
	          WHERE q.daily_quiz_id = $1
	          ORDER BY q.question_order, o.option_order`
	rows, err := r.db.QueryContext(ctx, query, quizID)
	if err != nil {
		return nil, fmt.Errorf("pgQuizRepository.GetQuestionsWithOptions: %w", err)
	}
	defer rows.Close()

	var questions []model.QuizQuestion
	index := make(map[string]int) // question id -> position in questions
	for rows.Next() {
		var q model.QuizQuestion
		var o model.QuestionOption
		err := rows.Scan(
			&q.ID, &q.DailyQuizID, &q.QuestionText, &q.QuestionOrder, &q.Difficulty, &q.Explanation,
			&o.ID, &o.QuestionID, &o.OptionText, &o.OptionOrder, &o.IsCorrect,
		)
		if err != nil {
			return nil, fmt.Errorf("pgQuizRepository.GetQuestionsWithOptions: %w", err)
		}
		pos, ok := index[q.ID]
		if !ok {
			pos = len(questions)
			index[q.ID] = pos
			questions = append(questions, q)
		}
		questions[pos].Options = append(questions[pos].Options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgQuizRepository.GetQuestionsWithOptions: %w", err)
	}
	return questions, nil
}

func (r *pgQuizRepository) FindAttempt(ctx context.Context, userID, quizID string) (*model.UserQuizAttempt, error) {
	query := `SELECT id, user_id, daily_quiz_id, score, total_questions, time_taken, completed_at
	          FROM user_quiz_attempts
	          WHERE user_id = $1 AND daily_quiz_id = $2`
	attempt := &model.UserQuizAttempt{}
	err := r.db.QueryRowContext(ctx, query, userID, quizID).Scan(
		&attempt.ID, &attempt.UserID, &attempt.DailyQuizID,
		&attempt.Score, &attempt.TotalQuestions, &attempt.TimeTaken, &attempt.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgQuizRepository.FindAttempt: %w", err)
	}
	return attempt, nil
}

// CreateAttempt relies on the unique (user_id, daily_quiz_id) index to close
// the check-then-insert race on concurrent submissions.
func (r *pgQuizRepository) CreateAttempt(ctx context.Context, tx *sql.Tx, attempt *model.UserQuizAttempt) error {
	query := `INSERT INTO user_quiz_attempts (id, user_id, daily_quiz_id, score, total_questions, time_taken)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING completed_at`
	var row *sql.Row
	if tx != nil {
		row = tx.QueryRowContext(ctx, query, attempt.ID, attempt.UserID, attempt.DailyQuizID, attempt.Score, attempt.TotalQuestions, attempt.TimeTaken)
	} else {
		row = r.db.QueryRowContext(ctx, query, attempt.ID, attempt.UserID, attempt.DailyQuizID, attempt.Score, attempt.TotalQuestions, attempt.TimeTaken)
	}
	if err := row.Scan(&attempt.CompletedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("attempt already recorded for this quiz: %w", common.ErrAlreadyCompleted)
		}
		return fmt.Errorf("pgQuizRepository.CreateAttempt: %w", err)
	}
	return nil
}

func (r *pgQuizRepository) CreateAnswers(ctx context.Context, tx *sql.Tx, answers []model.UserQuestionAnswer) error {
	query := `INSERT INTO user_question_answers (id, attempt_id, question_id, selected_option_id, is_correct, time_taken)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range answers {
		a := &answers[i]
		var err error
		if tx != nil {
			_, err = tx.ExecContext(ctx, query, a.ID, a.AttemptID, a.QuestionID, a.SelectedOptionID, a.IsCorrect, a.TimeTaken)
		} else {
			_, err = r.db.ExecContext(ctx, query, a.ID, a.AttemptID, a.QuestionID, a.SelectedOptionID, a.IsCorrect, a.TimeTaken)
		}
		if err != nil {
			return fmt.Errorf("pgQuizRepository.CreateAnswers: %w", err)
		}
	}
	return nil
}

func (r *pgQuizRepository) ListAttemptsByUser(ctx context.Context, userID string, limit int) ([]model.UserQuizAttempt, error) {
	query := `SELECT a.id, a.user_id, a.daily_quiz_id, a.score, a.total_questions, a.time_taken, a.completed_at,
	                 d.id, d.quiz_date, d.theme, d.difficulty_level, d.is_active, d.created_at
	          FROM user_quiz_attempts a
	          JOIN daily_quizzes d ON d.id = a.daily_quiz_id
	          WHERE a.user_id = $1
	          ORDER BY a.completed_at DESC
	          LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("pgQuizRepository.ListAttemptsByUser: %w", err)
	}
	defer rows.Close()

	var attempts []model.UserQuizAttempt
	for rows.Next() {
		var a model.UserQuizAttempt
		var d model.DailyQuiz
		err := rows.Scan(
			&a.ID, &a.UserID, &a.DailyQuizID, &a.Score, &a.TotalQuestions, &a.TimeTaken, &a.CompletedAt,
			&d.ID, &d.QuizDate, &d.Theme, &d.Difficulty, &d.IsActive, &d.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("pgQuizRepository.ListAttemptsByUser: %w", err)
		}
		a.Quiz = &d
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgQuizRepository.ListAttemptsByUser: %w", err)
	}
	return attempts, nil
}

func (r *pgQuizRepository) FindAttemptByID(ctx context.Context, attemptID string) (*model.UserQuizAttempt, error) {
	query := `SELECT id, user_id, daily_quiz_id, score, total_questions, time_taken, completed_at
	          FROM user_quiz_attempts
	          WHERE id = $1`
	attempt := &model.UserQuizAttempt{}
	err := r.db.QueryRowContext(ctx, query, attemptID).Scan(
		&attempt.ID, &attempt.UserID, &attempt.DailyQuizID,
		&attempt.Score, &attempt.TotalQuestions, &attempt.TimeTaken, &attempt.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgQuizRepository.FindAttemptByID: %w", err)
	}
	return attempt, nil
}

func (r *pgQuizRepository) ListAnswersByAttempt(ctx context.Context, attemptID string) ([]model.UserQuestionAnswer, error) {
	query := `SELECT id, attempt_id, question_id, selected_option_id, is_correct, time_taken, answered_at
	          FROM user_question_answers
	          WHERE attempt_id = $1
	          ORDER BY answered_at`
	rows, err := r.db.QueryContext(ctx, query, attemptID)
	if err != nil {
		return nil, fmt.Errorf("pgQuizRepository.ListAnswersByAttempt: %w", err)
	}
	defer rows.Close()

	var answers []model.UserQuestionAnswer
	for rows.Next() {
		var a model.UserQuestionAnswer
		err := rows.Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.SelectedOptionID, &a.IsCorrect, &a.TimeTaken, &a.AnsweredAt)
		if err != nil {
			return nil, fmt.Errorf("pgQuizRepository.ListAnswersByAttempt: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgQuizRepository.ListAnswersByAttempt: %w", err)
	}
	return answers, nil
}
