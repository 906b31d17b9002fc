package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizleague/internal/common"
	"quizleague/internal/domain/repository"
	"quizleague/internal/platform/logger"
	"quizleague/internal/platform/queue"
)

type stubStatsQueue struct {
	enqueued []string
}

func (s *stubStatsQueue) EnqueueRefresh(_ context.Context, userID string) error {
	s.enqueued = append(s.enqueued, userID)
	return nil
}

type stubEventBus struct {
	published []queue.Event
}

func (s *stubEventBus) Publish(_ context.Context, _ string, event queue.Event) error {
	s.published = append(s.published, event)
	return nil
}

func newQuizServiceForTest(t *testing.T) (*QuizService, sqlmock.Sqlmock, *stubStatsQueue, *stubEventBus) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	statsQueue := &stubStatsQueue{}
	events := &stubEventBus{}
	svc := NewQuizService(
		repository.NewPgQuizRepository(db),
		repository.NewPgProfileRepository(db),
		repository.NewPgActivityRepository(db),
		statsQueue,
		events,
		db,
		logger.New("test"),
	)
	return svc, mock, statsQueue, events
}

const (
	testUserID = "user-1"
	testQuizID = "quiz-1"
)

func attemptColumns() []string {
	return []string{"id", "user_id", "daily_quiz_id", "score", "total_questions", "time_taken", "completed_at"}
}

func quizColumns() []string {
	return []string{"id", "quiz_date", "theme", "difficulty_level", "is_active", "created_at"}
}

func questionColumns() []string {
	return []string{"id", "daily_quiz_id", "question_text", "question_order", "difficulty", "explanation",
		"opt_id", "opt_question_id", "option_text", "option_order", "is_correct"}
}

func profileColumnsForTest() []string {
	return []string{"id", "username", "display_name", "avatar_url", "level", "total_points",
		"current_streak", "longest_streak", "perfect_scores", "total_quizzes", "created_at", "updated_at"}
}

// questionRows builds n questions of two options each, with option "q<i>-a"
// always the correct one.
func questionRows(n int) *sqlmock.Rows {
	rows := sqlmock.NewRows(questionColumns())
	for i := 1; i <= n; i++ {
		qID := questionID(i)
		rows.AddRow(qID, testQuizID, "question text", i, "medium", nil, qID+"-a", qID, "right", 1, true)
		rows.AddRow(qID, testQuizID, "question text", i, "medium", nil, qID+"-b", qID, "wrong", 2, false)
	}
	return rows
}

func questionID(i int) string {
	return "q" + string(rune('0'+i))
}

func expectNoAttemptAndActiveQuiz(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT id, user_id, daily_quiz_id, score, total_questions").
		WithArgs(testUserID, testQuizID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT id, quiz_date, theme, difficulty_level").
		WithArgs(testQuizID).
		WillReturnRows(sqlmock.NewRows(quizColumns()).
			AddRow(testQuizID, "2026-09-01", nil, "medium", true, time.Now()))
}

func TestQuizService_SubmitQuiz(t *testing.T) {
	ctx := context.Background()

	t.Run("AlreadyCompleted", func(t *testing.T) {
		svc, mock, _, _ := newQuizServiceForTest(t)

		mock.ExpectQuery("SELECT id, user_id, daily_quiz_id, score, total_questions").
			WithArgs(testUserID, testQuizID).
			WillReturnRows(sqlmock.NewRows(attemptColumns()).
				AddRow("attempt-1", testUserID, testQuizID, 4, 5, nil, time.Now()))

		_, err := svc.SubmitQuiz(ctx, testUserID, testQuizID, SubmitQuizRequest{
			Answers: []SubmittedAnswer{{QuestionID: "q1", SelectedOptionID: "q1-a"}},
		})
		assert.ErrorIs(t, err, common.ErrAlreadyCompleted)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("QuizNotFound", func(t *testing.T) {
		svc, mock, _, _ := newQuizServiceForTest(t)

		mock.ExpectQuery("SELECT id, user_id, daily_quiz_id, score, total_questions").
			WithArgs(testUserID, testQuizID).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT id, quiz_date, theme, difficulty_level").
			WithArgs(testQuizID).
			WillReturnError(sql.ErrNoRows)

		_, err := svc.SubmitQuiz(ctx, testUserID, testQuizID, SubmitQuizRequest{
			Answers: []SubmittedAnswer{{QuestionID: "q1", SelectedOptionID: "q1-a"}},
		})
		assert.ErrorIs(t, err, common.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmptySubmissionRejected", func(t *testing.T) {
		svc, _, _, _ := newQuizServiceForTest(t)

		_, err := svc.SubmitQuiz(ctx, testUserID, testQuizID, SubmitQuizRequest{})
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("CorruptAnswerKey", func(t *testing.T) {
		svc, mock, _, _ := newQuizServiceForTest(t)

		expectNoAttemptAndActiveQuiz(mock)
		rows := sqlmock.NewRows(questionColumns()).
			AddRow("q1", testQuizID, "question text", 1, "medium", nil, "q1-a", "q1", "right", 1, true).
			AddRow("q1", testQuizID, "question text", 1, "medium", nil, "q1-b", "q1", "also right", 2, true)
		mock.ExpectQuery("SELECT q.id, q.daily_quiz_id, q.question_text").
			WithArgs(testQuizID).
			WillReturnRows(rows)

		_, err := svc.SubmitQuiz(ctx, testUserID, testQuizID, SubmitQuizRequest{
			Answers: []SubmittedAnswer{{QuestionID: "q1", SelectedOptionID: "q1-a"}},
		})
		assert.ErrorIs(t, err, common.ErrDataIntegrity)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("IncompleteSubmissionScoredAgainstFullSet", func(t *testing.T) {
		svc, mock, statsQueue, events := newQuizServiceForTest(t)

		expectNoAttemptAndActiveQuiz(mock)
		mock.ExpectQuery("SELECT q.id, q.daily_quiz_id, q.question_text").
			WithArgs(testQuizID).
			WillReturnRows(questionRows(5))

		mock.ExpectBegin()
		// score 2 of 5: two correct answers, one wrong, one for an unknown
		// question that must be ignored
		mock.ExpectQuery("INSERT INTO user_quiz_attempts").
			WithArgs(sqlmock.AnyArg(), testUserID, testQuizID, 2, 5, nil).
			WillReturnRows(sqlmock.NewRows([]string{"completed_at"}).AddRow(time.Now()))
		for i := 0; i < 3; i++ {
			mock.ExpectExec("INSERT INTO user_question_answers").
				WillReturnResult(sqlmock.NewResult(0, 1))
		}
		mock.ExpectQuery("SELECT id, username, display_name").
			WithArgs(testUserID).
			WillReturnRows(sqlmock.NewRows(profileColumnsForTest()).
				AddRow(testUserID, "alice", "Alice", nil, 1, 10, 2, 4, 0, 3, time.Now(), time.Now()))
		mock.ExpectExec("UPDATE user_profiles").
			WithArgs(12, 3, 4, 0, 4, testUserID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		mock.ExpectQuery("INSERT INTO user_activities").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		attempt, err := svc.SubmitQuiz(ctx, testUserID, testQuizID, SubmitQuizRequest{
			Answers: []SubmittedAnswer{
				{QuestionID: "q1", SelectedOptionID: "q1-a"},
				{QuestionID: "q2", SelectedOptionID: "q2-b"},
				{QuestionID: "q3", SelectedOptionID: "q3-a"},
				{QuestionID: "not-in-quiz", SelectedOptionID: "whatever"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, attempt.Score)
		assert.Equal(t, 5, attempt.TotalQuestions)
		assert.Equal(t, []string{testUserID}, statsQueue.enqueued)
		require.Len(t, events.published, 1)
		assert.Equal(t, "quiz_completed", events.published[0].Type)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("PerfectScore", func(t *testing.T) {
		svc, mock, _, events := newQuizServiceForTest(t)

		expectNoAttemptAndActiveQuiz(mock)
		mock.ExpectQuery("SELECT q.id, q.daily_quiz_id, q.question_text").
			WithArgs(testQuizID).
			WillReturnRows(questionRows(2))

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO user_quiz_attempts").
			WithArgs(sqlmock.AnyArg(), testUserID, testQuizID, 2, 2, nil).
			WillReturnRows(sqlmock.NewRows([]string{"completed_at"}).AddRow(time.Now()))
		for i := 0; i < 2; i++ {
			mock.ExpectExec("INSERT INTO user_question_answers").
				WillReturnResult(sqlmock.NewResult(0, 1))
		}
		mock.ExpectQuery("SELECT id, username, display_name").
			WithArgs(testUserID).
			WillReturnRows(sqlmock.NewRows(profileColumnsForTest()).
				AddRow(testUserID, "alice", "Alice", nil, 1, 0, 0, 0, 0, 0, time.Now(), time.Now()))
		mock.ExpectExec("UPDATE user_profiles").
			WithArgs(2, 1, 1, 1, 1, testUserID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		mock.ExpectQuery("INSERT INTO user_activities").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		attempt, err := svc.SubmitQuiz(ctx, testUserID, testQuizID, SubmitQuizRequest{
			Answers: []SubmittedAnswer{
				{QuestionID: "q1", SelectedOptionID: "q1-a"},
				{QuestionID: "q2", SelectedOptionID: "q2-a"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, attempt.TotalQuestions, attempt.Score)
		require.Len(t, events.published, 1)
		assert.Equal(t, "perfect_score", events.published[0].Type)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQuizService_GetAttemptAnswers(t *testing.T) {
	ctx := context.Background()

	t.Run("ForeignAttemptForbidden", func(t *testing.T) {
		svc, mock, _, _ := newQuizServiceForTest(t)

		mock.ExpectQuery("SELECT id, user_id, daily_quiz_id, score, total_questions").
			WithArgs("attempt-1").
			WillReturnRows(sqlmock.NewRows(attemptColumns()).
				AddRow("attempt-1", "someone-else", testQuizID, 4, 5, nil, time.Now()))

		_, err := svc.GetAttemptAnswers(ctx, testUserID, "attempt-1")
		assert.ErrorIs(t, err, common.ErrForbidden)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
