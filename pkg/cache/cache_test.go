package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamification-engine/pkg/domain"
)

func TestGoalEvaluationCache(t *testing.T) {
	c := NewGoalEvaluationCache()

	assert.Nil(t, c.Get(1, 7))

	c.Set(&domain.GoalEvaluation{GoalID: 1, UserID: 7, Value: 3, Achieved: false})
	ev := c.Get(1, 7)
	require.NotNil(t, ev)
	assert.Equal(t, 3.0, ev.Value)

	// Returned copy must not alias the cached entry.
	ev.Value = 99
	assert.Equal(t, 3.0, c.Get(1, 7).Value)

	c.Set(&domain.GoalEvaluation{GoalID: 2, UserID: 7, Value: 1, Achieved: true})
	c.Set(&domain.GoalEvaluation{GoalID: 1, UserID: 8, Value: 5, Achieved: true})

	c.Delete(7, []int64{1})
	assert.Nil(t, c.Get(1, 7))
	assert.NotNil(t, c.Get(2, 7))
	assert.NotNil(t, c.Get(1, 8))

	c.DeleteUser(7)
	assert.Nil(t, c.Get(2, 7))
	assert.NotNil(t, c.Get(1, 8))
	assert.Equal(t, 1, c.Len())
}

func TestSerializedAchievementCache(t *testing.T) {
	c := NewSerializedAchievementCache()

	assert.Nil(t, c.Get(1, 7))

	c.Set(1, 7, []byte(`{"achievement_id":1}`))
	c.Set(1, 8, []byte(`{"achievement_id":1}`))
	c.Set(2, 7, []byte(`{"achievement_id":2}`))

	assert.Equal(t, []byte(`{"achievement_id":1}`), c.Get(1, 7))

	c.Invalidate(1, 7)
	assert.Nil(t, c.Get(1, 7))
	assert.NotNil(t, c.Get(1, 8))

	c.InvalidateUsers(1, []int64{8})
	assert.Nil(t, c.Get(1, 8))
	assert.NotNil(t, c.Get(2, 7))

	c.InvalidateUser(7)
	assert.Nil(t, c.Get(2, 7))
	assert.Equal(t, 0, c.Len())
}

func TestLevelCache_EmptyTrailIsNotAMiss(t *testing.T) {
	c := NewLevelCache()

	_, ok := c.Get(1, 7)
	assert.False(t, ok)

	c.Set(1, 7, nil)
	levels, ok := c.Get(1, 7)
	assert.True(t, ok)
	assert.Empty(t, levels)

	c.Set(1, 8, []*domain.AchievementLevel{{UserID: 8, AchievementID: 1, Level: 1}})
	c.InvalidateUser(8)
	_, ok = c.Get(1, 8)
	assert.False(t, ok)

	c.Invalidate(1, 7)
	_, ok = c.Get(1, 7)
	assert.False(t, ok)
}

func TestTodayCache_Expiry(t *testing.T) {
	c := NewTodayCache()
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	midnight := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	c.Set(7, []byte("listing"), midnight)

	assert.Equal(t, []byte("listing"), c.Get(7, now))
	assert.Nil(t, c.Get(7, midnight), "entry expires exactly at the deadline")
	assert.Nil(t, c.Get(7, midnight.Add(time.Hour)))
}

func TestTodayCache_Prune(t *testing.T) {
	c := NewTodayCache()
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	c.Set(1, []byte("a"), now.Add(-time.Minute))
	c.Set(2, []byte("b"), now.Add(time.Minute))

	dropped := c.Prune(now)
	assert.Equal(t, 1, dropped)
	assert.Nil(t, c.Get(1, now))
	assert.NotNil(t, c.Get(2, now))
}

func TestVariableCache(t *testing.T) {
	c := NewVariableCache()

	assert.Nil(t, c.Get("invite_users"))

	c.Set(&domain.Variable{ID: 3, Name: "invite_users", Group: domain.GroupNone, IncreasePermission: domain.IncreaseOwn})
	v := c.Get("invite_users")
	require.NotNil(t, v)
	assert.Equal(t, int64(3), v.ID)
}
