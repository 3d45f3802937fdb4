package flow

import "fmt"

// 话题进度标记，与 topic_statuses 表的取值一致
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Persister 流程引擎对外的持久化协作方。实现方负责按
// (submission, question) / (submission, topic) 做幂等 upsert。
type Persister interface {
	SaveAnswer(submissionID, questionID uint, sel Selection, score float64) error
	SaveTopicStatus(submissionID, topicID uint, status string) error
	SavePosition(submissionID uint, s State) error
	CompleteSubmission(submissionID uint, total, max float64) error
	CompleteAssignment(assignmentID uint) error
}

// Controller 驱动一次作答：导航、增量持久化、进度与提交。
// 用户与提交的上下文显式注入，不依赖任何环境查找。
type Controller struct {
	UserID       uint
	AssignmentID uint
	SubmissionID uint
	Topics       []Topic
	Answers      *AnswerStore
	State        State

	persister Persister
	completed bool
}

func NewController(userID, assignmentID, submissionID uint, topics []Topic, persister Persister) *Controller {
	SortTopics(topics)
	return &Controller{
		UserID:       userID,
		AssignmentID: assignmentID,
		SubmissionID: submissionID,
		Topics:       topics,
		Answers:      NewAnswerStore(),
		State:        InitialState(),
		persister:    persister,
	}
}

// Resume 从已持久化的作答和导航位置恢复。恢复的位置按当前结构校验，
// 话题中途被停用时回退到总览而不是带着越界下标继续。
func (c *Controller) Resume(saved map[uint]Selection, state State, completed bool) {
	c.Answers.Seed(saved)
	c.State = NormalizeState(c.Topics, state)
	c.completed = completed
	if completed {
		c.State = State{View: ViewCompleted}
	}
}

func (c *Controller) Completed() bool {
	return c.completed
}

func (c *Controller) findQuestion(questionID uint) (Topic, Question, bool) {
	for _, t := range c.Topics {
		for _, q := range t.Questions {
			if q.ID == questionID {
				return t, q, true
			}
		}
	}
	return Topic{}, Question{}, false
}

// CurrentQuestion 当前作答位置的题目，仅在 answering 视图下存在
func (c *Controller) CurrentQuestion() (Question, bool) {
	if c.State.View != ViewAnswering {
		return Question{}, false
	}
	if c.State.TopicIndex >= len(c.Topics) {
		return Question{}, false
	}
	t := c.Topics[c.State.TopicIndex]
	if c.State.QuestionIndex >= len(t.Questions) {
		return Question{}, false
	}
	return t.Questions[c.State.QuestionIndex], true
}

// RecordAnswer 本地记录并立即持久化。持久化失败时本地作答保留、
// dirty 标记不清除，导航可以继续（可用性优先，错误上抛供界面提示）。
func (c *Controller) RecordAnswer(questionID uint, sel Selection) error {
	if c.completed {
		return ErrCompleted
	}
	if sel.Empty() {
		return ErrEmptySelection
	}

	t, q, ok := c.findQuestion(questionID)
	if !ok {
		return ErrUnknownQuestion
	}

	c.Answers.Record(questionID, sel)

	score := QuestionScore(q, sel)
	if err := c.persister.SaveAnswer(c.SubmissionID, questionID, sel, score); err != nil {
		return fmt.Errorf("save answer %d: %w", questionID, err)
	}
	c.Answers.MarkClean(questionID)

	status := StatusInProgress
	if TopicComplete(t, c.Answers) {
		status = StatusCompleted
	}
	if err := c.persister.SaveTopicStatus(c.SubmissionID, t.ID, status); err != nil {
		return fmt.Errorf("save topic status %d: %w", t.ID, err)
	}
	return nil
}

// SyncDirty 补偿重放：把持久化失败留下的 dirty 作答重新写入
func (c *Controller) SyncDirty() error {
	for _, qid := range c.Answers.Dirty() {
		sel, ok := c.Answers.Get(qid)
		if !ok {
			c.Answers.MarkClean(qid)
			continue
		}
		_, q, found := c.findQuestion(qid)
		if !found {
			c.Answers.MarkClean(qid)
			continue
		}
		if err := c.persister.SaveAnswer(c.SubmissionID, qid, sel, QuestionScore(q, sel)); err != nil {
			return fmt.Errorf("sync answer %d: %w", qid, err)
		}
		c.Answers.MarkClean(qid)
	}
	return nil
}

// Navigate 应用导航事件并持久化新位置
func (c *Controller) Navigate(ev Event) error {
	next, err := Apply(c.Topics, c.Answers, c.State, ev)
	if err != nil {
		return err
	}
	c.State = next
	return c.persister.SavePosition(c.SubmissionID, c.State)
}

// TopicProgressList 各话题进度，按展示顺序
func (c *Controller) TopicProgressList() []Progress {
	out := make([]Progress, len(c.Topics))
	for i, t := range c.Topics {
		out[i] = TopicProgress(t, c.Answers)
	}
	return out
}

func (c *Controller) OverallProgress() Progress {
	return OverallProgress(c.Topics, c.Answers)
}

// Complete 终结一次作答：校验全部话题完成，逐题落分，然后依次更新
// 提交与指派状态。任一步失败即中止，已写入的步骤不回滚；所有写入
// 均为幂等 upsert，重试安全。成功后再次调用是 no-op。
func (c *Controller) Complete() error {
	if c.completed {
		return nil
	}
	if !AllTopicsCompleted(c.Topics, c.Answers) {
		return ErrTopicsIncomplete
	}

	for _, t := range c.Topics {
		for _, q := range t.Questions {
			sel, _ := c.Answers.Get(q.ID)
			if err := c.persister.SaveAnswer(c.SubmissionID, q.ID, sel, QuestionScore(q, sel)); err != nil {
				return fmt.Errorf("persist score for question %d: %w", q.ID, err)
			}
			c.Answers.MarkClean(q.ID)
		}
	}

	total, max := Score(c.Topics, c.Answers)
	if err := c.persister.CompleteSubmission(c.SubmissionID, total, max); err != nil {
		return fmt.Errorf("complete submission: %w", err)
	}
	if err := c.persister.CompleteAssignment(c.AssignmentID); err != nil {
		return fmt.Errorf("complete assignment: %w", err)
	}

	c.completed = true
	c.State = State{View: ViewCompleted}
	// 位置写入失败不影响完成结果
	_ = c.persister.SavePosition(c.SubmissionID, c.State)
	return nil
}
