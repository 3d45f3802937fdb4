package flow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePersister struct {
	answers       map[uint]Selection
	scores        map[uint]float64
	topicStatuses map[uint]string
	position      State
	positionSaved bool

	submissionDone    bool
	submissionTotal   float64
	submissionMax     float64
	assignmentDone    bool
	completeCalls     int
	failSaveAnswer    error
	failSubmission    error
	failAssignment    error
	failTopicStatus   error
	saveAnswerHistory []uint
}

func newFakePersister() *fakePersister {
	return &fakePersister{
		answers:       make(map[uint]Selection),
		scores:        make(map[uint]float64),
		topicStatuses: make(map[uint]string),
	}
}

func (f *fakePersister) SaveAnswer(submissionID, questionID uint, sel Selection, score float64) error {
	if f.failSaveAnswer != nil {
		return f.failSaveAnswer
	}
	f.answers[questionID] = sel
	f.scores[questionID] = score
	f.saveAnswerHistory = append(f.saveAnswerHistory, questionID)
	return nil
}

func (f *fakePersister) SaveTopicStatus(submissionID, topicID uint, status string) error {
	if f.failTopicStatus != nil {
		return f.failTopicStatus
	}
	f.topicStatuses[topicID] = status
	return nil
}

func (f *fakePersister) SavePosition(submissionID uint, s State) error {
	f.position = s
	f.positionSaved = true
	return nil
}

func (f *fakePersister) CompleteSubmission(submissionID uint, total, max float64) error {
	if f.failSubmission != nil {
		return f.failSubmission
	}
	f.completeCalls++
	f.submissionDone = true
	f.submissionTotal = total
	f.submissionMax = max
	return nil
}

func (f *fakePersister) CompleteAssignment(assignmentID uint) error {
	if f.failAssignment != nil {
		return f.failAssignment
	}
	f.assignmentDone = true
	return nil
}

func newTestController(p Persister) *Controller {
	return NewController(7, 3, 5, sampleTopics(), p)
}

func TestRecordAnswerPersistsAndTracksTopicStatus(t *testing.T) {
	p := newFakePersister()
	c := newTestController(p)

	require.NoError(t, c.RecordAnswer(11, Selection{OptionID: 113}))
	assert.Equal(t, Selection{OptionID: 113}, p.answers[11])
	assert.Equal(t, 3.0, p.scores[11])
	assert.Equal(t, StatusInProgress, p.topicStatuses[1])

	require.NoError(t, c.RecordAnswer(12, Selection{OptionID: 121}))
	assert.Equal(t, StatusCompleted, p.topicStatuses[1])
}

func TestRecordAnswerValidation(t *testing.T) {
	p := newFakePersister()
	c := newTestController(p)

	assert.ErrorIs(t, c.RecordAnswer(11, Selection{}), ErrEmptySelection)
	assert.ErrorIs(t, c.RecordAnswer(999, Selection{Text: "x"}), ErrUnknownQuestion)
}

func TestRecordAnswerKeepsLocalStateOnPersistFailure(t *testing.T) {
	p := newFakePersister()
	p.failSaveAnswer = errors.New("network down")
	c := newTestController(p)

	err := c.RecordAnswer(11, Selection{OptionID: 113})
	require.Error(t, err)

	// 本地保留，dirty 未清除，导航不受影响
	sel, ok := c.Answers.Get(11)
	assert.True(t, ok)
	assert.Equal(t, uint(113), sel.OptionID)
	assert.Equal(t, []uint{11}, c.Answers.Dirty())
	require.NoError(t, c.Navigate(SelectTopic(0)))

	// 恢复后补偿重放
	p.failSaveAnswer = nil
	require.NoError(t, c.SyncDirty())
	assert.Empty(t, c.Answers.Dirty())
	assert.Equal(t, 3.0, p.scores[11])
}

func TestNavigatePersistsPosition(t *testing.T) {
	p := newFakePersister()
	c := newTestController(p)

	require.NoError(t, c.Navigate(SelectTopic(1)))
	assert.Equal(t, State{View: ViewAnswering, TopicIndex: 1}, c.State)
	assert.Equal(t, c.State, p.position)

	q, ok := c.CurrentQuestion()
	require.True(t, ok)
	assert.Equal(t, uint(21), q.ID)
}

func answerAll(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.RecordAnswer(11, Selection{OptionID: 113}))
	require.NoError(t, c.RecordAnswer(12, Selection{OptionID: 121}))
	require.NoError(t, c.RecordAnswer(21, Selection{Text: "free"}))
}

func TestCompleteHappyPath(t *testing.T) {
	p := newFakePersister()
	c := newTestController(p)
	answerAll(t, c)

	require.NoError(t, c.Complete())

	assert.True(t, p.submissionDone)
	assert.True(t, p.assignmentDone)
	assert.Equal(t, 6.0, p.submissionTotal)
	assert.Equal(t, 8.0, p.submissionMax)
	assert.Equal(t, ViewCompleted, c.State.View)
	assert.True(t, c.Completed())

	// 完成后拒绝继续作答
	assert.ErrorIs(t, c.RecordAnswer(11, Selection{OptionID: 111}), ErrCompleted)
}

func TestCompleteIsIdempotent(t *testing.T) {
	p := newFakePersister()
	c := newTestController(p)
	answerAll(t, c)

	require.NoError(t, c.Complete())
	total, max := p.submissionTotal, p.submissionMax

	// 第二次调用是 no-op：分数、状态都不变，也不报错
	require.NoError(t, c.Complete())
	assert.Equal(t, 1, p.completeCalls)
	assert.Equal(t, total, p.submissionTotal)
	assert.Equal(t, max, p.submissionMax)
}

func TestCompleteRejectedWhenTopicsIncomplete(t *testing.T) {
	p := newFakePersister()
	c := newTestController(p)

	require.NoError(t, c.RecordAnswer(11, Selection{OptionID: 113}))

	err := c.Complete()
	assert.ErrorIs(t, err, ErrTopicsIncomplete)
	assert.False(t, p.submissionDone)
	assert.False(t, c.Completed())
}

func TestCompleteAbortsWithoutRollbackOnFailure(t *testing.T) {
	p := newFakePersister()
	p.failSubmission = errors.New("write failed")
	c := newTestController(p)
	answerAll(t, c)

	err := c.Complete()
	require.Error(t, err)

	// 逐题分数已写入（不回滚），但提交/指派未完成，可以重试
	assert.Len(t, p.answers, 3)
	assert.False(t, p.submissionDone)
	assert.False(t, p.assignmentDone)
	assert.False(t, c.Completed())

	p.failSubmission = nil
	require.NoError(t, c.Complete())
	assert.True(t, p.submissionDone)
	assert.True(t, p.assignmentDone)
}

func TestResumeRebuildsAnswerState(t *testing.T) {
	p := newFakePersister()
	c := newTestController(p)

	saved := map[uint]Selection{
		11: {OptionID: 113},
		12: {OptionID: 121},
	}
	c.Resume(saved, State{View: ViewAnswering, TopicIndex: 1}, false)

	for qid, want := range saved {
		got, ok := c.Answers.Get(qid)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	p2 := c.OverallProgress()
	assert.Equal(t, 2, p2.Answered)
	assert.Equal(t, 3, p2.Total)
	assert.InDelta(t, 200.0/3, p2.Percentage, 0.001)
	assert.Equal(t, State{View: ViewAnswering, TopicIndex: 1}, c.State)
}

func TestResumeAfterTopicRemovedFallsBackToOverview(t *testing.T) {
	p := newFakePersister()
	// 结构只剩第一个话题，持久化位置仍指向第二个
	c := NewController(7, 3, 5, sampleTopics()[:1], p)

	c.Resume(map[uint]Selection{11: {OptionID: 113}}, State{View: ViewAnswering, TopicIndex: 1}, false)

	assert.Equal(t, State{View: ViewTopics}, c.State)
	require.NoError(t, c.Navigate(Next()))
	assert.Equal(t, State{View: ViewTopics}, c.State)

	// 剩下的结构仍可正常作答
	require.NoError(t, c.Navigate(SelectTopic(0)))
	q, ok := c.CurrentQuestion()
	require.True(t, ok)
	assert.Equal(t, uint(11), q.ID)
}

func TestResumeCompletedSubmissionForcesCompletedView(t *testing.T) {
	p := newFakePersister()
	c := newTestController(p)

	c.Resume(map[uint]Selection{11: {OptionID: 113}}, State{View: ViewTopics}, true)

	assert.True(t, c.Completed())
	assert.Equal(t, ViewCompleted, c.State.View)
	assert.ErrorIs(t, c.RecordAnswer(12, Selection{OptionID: 121}), ErrCompleted)
	require.NoError(t, c.Complete())
	assert.False(t, p.submissionDone)
}
