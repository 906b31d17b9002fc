package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserProfile_ApplyQuizResult(t *testing.T) {
	t.Run("PerfectScore", func(t *testing.T) {
		p := &UserProfile{TotalPoints: 10, CurrentStreak: 2, LongestStreak: 4, PerfectScores: 1, TotalQuizzes: 3}

		p.ApplyQuizResult(5, 5)

		assert.Equal(t, 15, p.TotalPoints)
		assert.Equal(t, 4, p.TotalQuizzes)
		assert.Equal(t, 2, p.PerfectScores)
		assert.Equal(t, 3, p.CurrentStreak)
		assert.Equal(t, 4, p.LongestStreak)
	})

	t.Run("PartialScore", func(t *testing.T) {
		p := &UserProfile{}

		p.ApplyQuizResult(3, 5)

		assert.Equal(t, 3, p.TotalPoints)
		assert.Equal(t, 1, p.TotalQuizzes)
		assert.Equal(t, 0, p.PerfectScores)
		assert.Equal(t, 1, p.CurrentStreak)
		assert.Equal(t, 1, p.LongestStreak)
	})

	t.Run("ZeroScoreResetsStreak", func(t *testing.T) {
		p := &UserProfile{CurrentStreak: 7, LongestStreak: 7}

		p.ApplyQuizResult(0, 5)

		assert.Equal(t, 0, p.CurrentStreak)
		assert.Equal(t, 7, p.LongestStreak, "longest streak survives the reset")
		assert.Equal(t, 1, p.TotalQuizzes, "zero-score attempts still count as played")
		assert.Equal(t, 0, p.PerfectScores)
	})

	t.Run("LongestStreakOnlyGrows", func(t *testing.T) {
		p := &UserProfile{}

		for i := 0; i < 3; i++ {
			p.ApplyQuizResult(4, 5)
		}
		assert.Equal(t, 3, p.LongestStreak)

		p.ApplyQuizResult(0, 5)
		p.ApplyQuizResult(5, 5)
		assert.Equal(t, 1, p.CurrentStreak)
		assert.Equal(t, 3, p.LongestStreak)
	})

	t.Run("SingleQuestionQuizIsPerfect", func(t *testing.T) {
		p := &UserProfile{}

		p.ApplyQuizResult(1, 1)

		assert.Equal(t, 1, p.PerfectScores)
		assert.Equal(t, 1, p.CurrentStreak)
	})
}
