package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quizleague/internal/common"
	"quizleague/internal/domain/model"
	"quizleague/internal/domain/repository"
	"quizleague/internal/platform/logger"
	"quizleague/internal/platform/queue"

	"github.com/google/uuid"
)

type QuizService struct {
	quizRepo     repository.QuizRepository
	profileRepo  repository.ProfileRepository
	activityRepo repository.ActivityRepository
	statsQueue   StatsRefreshQueue
	events       EventPublisher
	db           *sql.DB // For transactions
	log          *logger.Logger
}

func NewQuizService(
	quizRepo repository.QuizRepository,
	profileRepo repository.ProfileRepository,
	activityRepo repository.ActivityRepository,
	statsQueue StatsRefreshQueue,
	events EventPublisher,
	db *sql.DB,
	log *logger.Logger,
) *QuizService {
	return &QuizService{
		quizRepo:     quizRepo,
		profileRepo:  profileRepo,
		activityRepo: activityRepo,
		statsQueue:   statsQueue,
		events:       events,
		db:           db,
		log:          log,
	}
}

type SubmittedAnswer struct {
	QuestionID       string `json:"question_id" validate:"required"`
	SelectedOptionID string `json:"selected_option_id" validate:"required"`
	TimeTaken        *int   `json:"time_taken,omitempty"`
}

type SubmitQuizRequest struct {
	Answers        []SubmittedAnswer `json:"answers" validate:"required,min=1,dive"`
	TotalTimeTaken *int              `json:"total_time_taken,omitempty"`
}

func (s *QuizService) GetTodaysQuiz(ctx context.Context) (*model.DailyQuiz, error) {
	today := time.Now().UTC().Format("2006-01-02")
	quiz, err := s.quizRepo.FindActiveByDate(ctx, today)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("no quiz published for %s: %w", today, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load today's quiz: %w", err)
	}
	return quiz, nil
}

// GetQuizQuestions returns the question set with options. The answer key is
// carried on the model but never serialized, so handlers can pass this
// straight through.
func (s *QuizService) GetQuizQuestions(ctx context.Context, quizID string) ([]model.QuizQuestion, error) {
	if _, err := s.quizRepo.FindActiveByID(ctx, quizID); err != nil {
		return nil, fmt.Errorf("quiz not found: %w", err)
	}
	questions, err := s.quizRepo.GetQuestionsWithOptions(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	return questions, nil
}

func (s *QuizService) GetUserQuizAttempt(ctx context.Context, userID, quizID string) (*model.UserQuizAttempt, error) {
	attempt, err := s.quizRepo.FindAttempt(ctx, userID, quizID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}
	return attempt, nil
}

// SubmitQuiz scores a submission against the canonical answer key and folds
// the result into the user's stats, all in one transaction. Correctness is
// always recomputed server-side; nothing in the request is trusted beyond
// the selected option ids.
//
// score counts submitted answers matching the correct option. Answers for
// unknown question ids are ignored rather than rejected, and total_questions
// is the canonical question count, so an incomplete submission is scored
// against the full set.
func (s *QuizService) SubmitQuiz(ctx context.Context, userID, quizID string, req SubmitQuizRequest) (*model.UserQuizAttempt, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	// Fast-path duplicate check. The unique (user_id, daily_quiz_id) index
	// backstops the race where two submissions pass this check together.
	if _, err := s.quizRepo.FindAttempt(ctx, userID, quizID); err == nil {
		return nil, common.Errorf("quiz already completed for today: %w", common.ErrAlreadyCompleted)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing attempt: %w", err)
	}

	if _, err := s.quizRepo.FindActiveByID(ctx, quizID); err != nil {
		return nil, fmt.Errorf("quiz not found: %w", err)
	}
	questions, err := s.quizRepo.GetQuestionsWithOptions(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, common.Errorf("quiz has no questions: %w", common.ErrNotFound)
	}

	correctOptionByQuestion := make(map[string]string, len(questions))
	for _, q := range questions {
		correctID := ""
		correctCount := 0
		for _, opt := range q.Options {
			if opt.IsCorrect {
				correctID = opt.ID
				correctCount++
			}
		}
		if correctCount != 1 {
			return nil, common.Errorf("question %s has %d options marked correct: %w", q.ID, correctCount, common.ErrDataIntegrity)
		}
		correctOptionByQuestion[q.ID] = correctID
	}

	attempt := &model.UserQuizAttempt{
		ID:             uuid.NewString(),
		UserID:         userID,
		DailyQuizID:    quizID,
		TotalQuestions: len(questions),
		TimeTaken:      req.TotalTimeTaken,
	}

	score := 0
	answers := make([]model.UserQuestionAnswer, 0, len(req.Answers))
	for _, submitted := range req.Answers {
		correctID, ok := correctOptionByQuestion[submitted.QuestionID]
		if !ok {
			continue // not a question of this quiz; not counted
		}
		isCorrect := submitted.SelectedOptionID == correctID
		if isCorrect {
			score++
		}
		answers = append(answers, model.UserQuestionAnswer{
			ID:               uuid.NewString(),
			AttemptID:        attempt.ID,
			QuestionID:       submitted.QuestionID,
			SelectedOptionID: submitted.SelectedOptionID,
			IsCorrect:        isCorrect,
			TimeTaken:        submitted.TimeTaken,
		})
	}
	attempt.Score = score

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.quizRepo.CreateAttempt(ctx, tx, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}
	if err := s.quizRepo.CreateAnswers(ctx, tx, answers); err != nil {
		return nil, fmt.Errorf("failed to save answers: %w", err)
	}

	profile, err := s.profileRepo.FindByIDForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for stats update: %w", err)
	}
	profile.ApplyQuizResult(score, attempt.TotalQuestions)
	err = s.profileRepo.UpdateStats(ctx, tx, userID, repository.ProfileStatsPatch{
		TotalPoints:   profile.TotalPoints,
		CurrentStreak: profile.CurrentStreak,
		LongestStreak: profile.LongestStreak,
		PerfectScores: profile.PerfectScores,
		TotalQuizzes:  profile.TotalQuizzes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	s.afterSubmit(ctx, profile, attempt)
	return attempt, nil
}

// afterSubmit runs the best-effort fan-out: leaderboard refresh, feed
// activity, realtime event. The worker re-derives leaderboards from profile
// truth, so a lost job here is repaired by the next refresh.
func (s *QuizService) afterSubmit(ctx context.Context, profile *model.UserProfile, attempt *model.UserQuizAttempt) {
	if err := s.statsQueue.EnqueueRefresh(ctx, attempt.UserID); err != nil {
		s.log.WithUserID(attempt.UserID).Warnf("failed to enqueue leaderboard refresh: %v", err)
	}

	activityType := model.ActivityQuizCompleted
	content := fmt.Sprintf("%s scored %d/%d on today's quiz", profile.DisplayName, attempt.Score, attempt.TotalQuestions)
	if attempt.Score == attempt.TotalQuestions {
		activityType = model.ActivityPerfectScore
		content = fmt.Sprintf("%s got a perfect score on today's quiz!", profile.DisplayName)
	}
	activity := &model.UserActivity{
		ID:           uuid.NewString(),
		UserID:       attempt.UserID,
		ActivityType: activityType,
		Content:      content,
		IsPublic:     true,
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.log.WithUserID(attempt.UserID).Warnf("failed to record quiz activity: %v", err)
		return
	}
	if err := s.events.Publish(ctx, "activities:"+attempt.UserID, queue.Event{
		Type:   string(activityType),
		UserID: attempt.UserID,
	}); err != nil {
		s.log.WithUserID(attempt.UserID).Warnf("failed to publish activity event: %v", err)
	}
}

func (s *QuizService) GetQuizHistory(ctx context.Context, userID string, limit int) ([]model.UserQuizAttempt, error) {
	attempts, err := s.quizRepo.ListAttemptsByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz history: %w", err)
	}
	return attempts, nil
}

// GetAttemptAnswers returns the per-question answer records for one of the
// caller's own attempts.
func (s *QuizService) GetAttemptAnswers(ctx context.Context, userID, attemptID string) ([]model.UserQuestionAnswer, error) {
	attempt, err := s.quizRepo.FindAttemptByID(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("attempt not found: %w", err)
	}
	if attempt.UserID != userID {
		return nil, common.ErrForbidden
	}
	answers, err := s.quizRepo.ListAnswersByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	return answers, nil
}
