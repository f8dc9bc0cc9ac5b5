package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
)

func TestSubscriptionIndex_Reset(t *testing.T) {
	x := NewSubscriptionIndex()
	x.Reset([]domain.AgentSubscriptions{
		{AgentID: 7, CategoryIDs: []int64{1, 2}},
		{AgentID: 9, CategoryIDs: []int64{1}},
		{AgentID: 11},
	})

	assert.Equal(t, []int64{7, 9}, x.Candidates(1))
	assert.Equal(t, []int64{7}, x.Candidates(2))
	assert.Nil(t, x.Candidates(3))
	assert.Equal(t, 2, x.Len())
}

func TestSubscriptionIndex_AddRemoveRestoresPool(t *testing.T) {
	x := NewSubscriptionIndex()
	x.Add(1, 7)
	before := x.Candidates(1)

	assert.True(t, x.Add(1, 9))
	assert.False(t, x.Add(1, 9))
	assert.Equal(t, []int64{7, 9}, x.Candidates(1))

	assert.True(t, x.Remove(1, 9))
	assert.False(t, x.Remove(1, 9))
	assert.Equal(t, before, x.Candidates(1))
}

func TestSubscriptionIndex_RemoveLastKeepsCategory(t *testing.T) {
	x := NewSubscriptionIndex()
	x.Add(5, 1)
	assert.Equal(t, 1, x.Len())
	assert.True(t, x.Remove(5, 1))
	assert.Equal(t, 1, x.Len())
	assert.Nil(t, x.Candidates(5))

	assert.False(t, x.Remove(6, 1))
	assert.Equal(t, 1, x.Len())

	x.Reset(nil)
	assert.Equal(t, 0, x.Len())
}

func TestSubscriptionIndex_CandidatesIsACopy(t *testing.T) {
	x := NewSubscriptionIndex()
	x.Add(1, 7)
	got := x.Candidates(1)
	got[0] = 100
	assert.Equal(t, []int64{7}, x.Candidates(1))
}
