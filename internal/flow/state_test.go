package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyNavigation(t *testing.T) {
	topics := sampleTopics()
	store := NewAnswerStore()

	tests := []struct {
		name  string
		state State
		event Event
		want  State
	}{
		{
			name:  "select topic enters answering at first question",
			state: State{View: ViewTopics},
			event: SelectTopic(0),
			want:  State{View: ViewAnswering, TopicIndex: 0, QuestionIndex: 0},
		},
		{
			name:  "next within topic",
			state: State{View: ViewAnswering, TopicIndex: 0, QuestionIndex: 0},
			event: Next(),
			want:  State{View: ViewAnswering, TopicIndex: 0, QuestionIndex: 1},
		},
		{
			name:  "next crosses topic boundary",
			state: State{View: ViewAnswering, TopicIndex: 0, QuestionIndex: 1},
			event: Next(),
			want:  State{View: ViewAnswering, TopicIndex: 1, QuestionIndex: 0},
		},
		{
			name:  "next at last question of last topic is a no-op",
			state: State{View: ViewAnswering, TopicIndex: 1, QuestionIndex: 0},
			event: Next(),
			want:  State{View: ViewAnswering, TopicIndex: 1, QuestionIndex: 0},
		},
		{
			name:  "previous within topic",
			state: State{View: ViewAnswering, TopicIndex: 0, QuestionIndex: 1},
			event: Previous(),
			want:  State{View: ViewAnswering, TopicIndex: 0, QuestionIndex: 0},
		},
		{
			name:  "previous crosses to last question of previous topic",
			state: State{View: ViewAnswering, TopicIndex: 1, QuestionIndex: 0},
			event: Previous(),
			want:  State{View: ViewAnswering, TopicIndex: 0, QuestionIndex: 1},
		},
		{
			name:  "previous at very first question is a no-op",
			state: State{View: ViewAnswering, TopicIndex: 0, QuestionIndex: 0},
			event: Previous(),
			want:  State{View: ViewAnswering, TopicIndex: 0, QuestionIndex: 0},
		},
		{
			name:  "back to topics overview",
			state: State{View: ViewAnswering, TopicIndex: 1, QuestionIndex: 0},
			event: BackToTopics(),
			want:  State{View: ViewTopics},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(topics, store, tt.state, tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplySelectTopicOutOfRange(t *testing.T) {
	topics := sampleTopics()
	store := NewAnswerStore()

	_, err := Apply(topics, store, InitialState(), SelectTopic(5))
	assert.ErrorIs(t, err, ErrInvalidTopic)

	_, err = Apply(topics, store, InitialState(), SelectTopic(-1))
	assert.ErrorIs(t, err, ErrInvalidTopic)
}

func TestApplySkipsEmptyTopics(t *testing.T) {
	topics := []Topic{
		{ID: 1, Sequence: 1, Questions: []Question{{ID: 11, Type: FreeText}}},
		{ID: 2, Sequence: 2}, // 空话题
		{ID: 3, Sequence: 3, Questions: []Question{{ID: 31, Type: FreeText}}},
	}
	store := NewAnswerStore()

	// next 跳过空话题
	got, err := Apply(topics, store, State{View: ViewAnswering, TopicIndex: 0, QuestionIndex: 0}, Next())
	require.NoError(t, err)
	assert.Equal(t, State{View: ViewAnswering, TopicIndex: 2, QuestionIndex: 0}, got)

	// previous 同样跳过
	got, err = Apply(topics, store, got, Previous())
	require.NoError(t, err)
	assert.Equal(t, State{View: ViewAnswering, TopicIndex: 0, QuestionIndex: 0}, got)

	// 选中空话题停留在总览
	got, err = Apply(topics, store, InitialState(), SelectTopic(1))
	require.NoError(t, err)
	assert.Equal(t, InitialState(), got)
}

func TestApplyFallsBackWhenPositionNoLongerExists(t *testing.T) {
	// 只剩一个话题，但恢复的位置还指向第二个（话题中途被停用）
	topics := sampleTopics()[:1]
	store := NewAnswerStore()

	got, err := Apply(topics, store, State{View: ViewAnswering, TopicIndex: 1}, Next())
	require.NoError(t, err)
	assert.Equal(t, State{View: ViewTopics}, got)

	// 题目下标越界同样回退到总览
	got, err = Apply(topics, store, State{View: ViewAnswering, TopicIndex: 0, QuestionIndex: 9}, Previous())
	require.NoError(t, err)
	assert.Equal(t, State{View: ViewTopics}, got)
}

func TestNormalizeState(t *testing.T) {
	topics := sampleTopics()

	valid := State{View: ViewAnswering, TopicIndex: 1, QuestionIndex: 0}
	assert.Equal(t, valid, NormalizeState(topics, valid))
	assert.Equal(t, InitialState(), NormalizeState(topics, InitialState()))

	assert.Equal(t, State{View: ViewTopics}, NormalizeState(topics, State{View: ViewAnswering, TopicIndex: 5}))
	assert.Equal(t, State{View: ViewTopics}, NormalizeState(topics, State{View: ViewAnswering, TopicIndex: 1, QuestionIndex: 3}))
	assert.Equal(t, State{View: ViewTopics}, NormalizeState(nil, valid))
}

func TestApplyComplete(t *testing.T) {
	topics := sampleTopics()

	// 未答完时 complete 被拒绝，状态不变
	partial := answeredStore(11)
	state := InitialState()
	got, err := Apply(topics, partial, state, Complete())
	assert.ErrorIs(t, err, ErrTopicsIncomplete)
	assert.Equal(t, state, got)

	// 全部答完后允许
	full := answeredStore(11, 12, 21)
	got, err = Apply(topics, full, state, Complete())
	require.NoError(t, err)
	assert.Equal(t, ViewCompleted, got.View)

	// completed 状态吞掉后续事件
	for _, ev := range []Event{Next(), Previous(), SelectTopic(0), BackToTopics(), Complete()} {
		after, err := Apply(topics, full, got, ev)
		require.NoError(t, err)
		assert.Equal(t, got, after)
	}
}

func TestEventFromName(t *testing.T) {
	ev, ok := EventFromName("select_topic", 2)
	require.True(t, ok)
	assert.Equal(t, SelectTopic(2), ev)

	for _, name := range []string{"next", "previous", "back_to_topics", "complete"} {
		_, ok := EventFromName(name, 0)
		assert.True(t, ok, name)
	}

	_, ok = EventFromName("bogus", 0)
	assert.False(t, ok)
}
