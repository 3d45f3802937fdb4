package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicProgress(t *testing.T) {
	topics := sampleTopics()

	p := TopicProgress(topics[0], answeredStore(11))
	assert.Equal(t, Progress{Answered: 1, Total: 2, Percentage: 50}, p)

	p = TopicProgress(topics[0], answeredStore(11, 12))
	assert.Equal(t, Progress{Answered: 2, Total: 2, Percentage: 100}, p)

	p = TopicProgress(topics[0], NewAnswerStore())
	assert.Equal(t, Progress{Answered: 0, Total: 2, Percentage: 0}, p)
}

func TestEmptyTopicIsCompleteWithZeroPercentage(t *testing.T) {
	empty := Topic{ID: 9, Title: "empty"}
	store := NewAnswerStore()

	p := TopicProgress(empty, store)
	assert.Equal(t, Progress{Answered: 0, Total: 0, Percentage: 0}, p)
	assert.True(t, TopicComplete(empty, store))

	// 空话题不能让整体卡在未完成
	topics := []Topic{empty, {ID: 10, Questions: []Question{{ID: 101, Type: FreeText}}}}
	assert.False(t, AllTopicsCompleted(topics, store))
	assert.True(t, AllTopicsCompleted(topics, answeredStore(101)))
}

func TestOverallProgressSumsTopics(t *testing.T) {
	topics := sampleTopics()

	// A.q1, A.q2, B.q1 全部作答 → 3/3, 100%
	p := OverallProgress(topics, answeredStore(11, 12, 21))
	assert.Equal(t, Progress{Answered: 3, Total: 3, Percentage: 100}, p)
	assert.True(t, AllTopicsCompleted(topics, answeredStore(11, 12, 21)))

	// 只答 A.q1 → 1/3
	p = OverallProgress(topics, answeredStore(11))
	assert.Equal(t, 1, p.Answered)
	assert.Equal(t, 3, p.Total)
	assert.InDelta(t, 100.0/3, p.Percentage, 0.001)
	assert.False(t, AllTopicsCompleted(topics, answeredStore(11)))
}

func TestOverallProgressNoTopics(t *testing.T) {
	p := OverallProgress(nil, NewAnswerStore())
	assert.Equal(t, Progress{}, p)
	assert.True(t, AllTopicsCompleted(nil, NewAnswerStore()))
}
