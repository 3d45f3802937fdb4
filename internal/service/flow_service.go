package service

import (
	"assessflow_backend/internal/flow"
	"assessflow_backend/internal/model"
	"assessflow_backend/internal/repository"
	"assessflow_backend/internal/util"
	"assessflow_backend/pkg/logger"
	"assessflow_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 测评结构读多写少，短期缓存足以吸收作答期间的重复加载
const structureCacheTTL = 10 * time.Minute

type AssessmentFlowService struct {
	AssessmentRepo *repository.AssessmentRepository
	AssignmentRepo *repository.AssignmentRepository
	SubmissionRepo *repository.SubmissionRepository
	Redis          *redis.Client
}

func NewAssessmentFlowService(
	assessmentRepo *repository.AssessmentRepository,
	assignmentRepo *repository.AssignmentRepository,
	submissionRepo *repository.SubmissionRepository,
	rdb *redis.Client,
) *AssessmentFlowService {
	return &AssessmentFlowService{
		AssessmentRepo: assessmentRepo,
		AssignmentRepo: assignmentRepo,
		SubmissionRepo: submissionRepo,
		Redis:          rdb,
	}
}

// flowPersister 把流程引擎的持久化回调落到仓储层。
// 选项作答映射为 answer_id，自由文本映射为 text_answer。
type flowPersister struct {
	submissions *repository.SubmissionRepository
	assignments *repository.AssignmentRepository
}

func (p *flowPersister) SaveAnswer(submissionID, questionID uint, sel flow.Selection, score float64) error {
	var answerID *uint
	if sel.OptionID != 0 {
		id := sel.OptionID
		answerID = &id
	}
	return p.submissions.UpsertAnswer(submissionID, questionID, answerID, sel.Text, score)
}

func (p *flowPersister) SaveTopicStatus(submissionID, topicID uint, status string) error {
	return p.submissions.UpsertTopicStatus(submissionID, topicID, status)
}

func (p *flowPersister) SavePosition(submissionID uint, s flow.State) error {
	return p.submissions.SavePosition(submissionID, s)
}

func (p *flowPersister) CompleteSubmission(submissionID uint, total, max float64) error {
	return p.submissions.Complete(submissionID, total, max)
}

func (p *flowPersister) CompleteAssignment(assignmentID uint) error {
	return p.assignments.UpdateStatus(assignmentID, model.AssignmentCompleted)
}

// loadTopics 加载作答用的测评结构（仅启用的话题和题目），优先走 Redis 缓存
func (s *AssessmentFlowService) loadTopics(ctx context.Context, assessmentID uint) ([]flow.Topic, error) {
	key := structureCacheKey(assessmentID)
	if s.Redis != nil {
		if raw, err := s.Redis.Get(ctx, key).Result(); err == nil {
			var topics []flow.Topic
			if json.Unmarshal([]byte(raw), &topics) == nil {
				return topics, nil
			}
		}
	}

	modelTopics, err := s.AssessmentRepo.ListTopics(assessmentID, true)
	if err != nil {
		return nil, err
	}

	topicIDs := make([]uint, len(modelTopics))
	for i, t := range modelTopics {
		topicIDs[i] = t.ID
	}
	questions, err := s.AssessmentRepo.ListQuestionsByTopicIDs(topicIDs, true)
	if err != nil {
		return nil, err
	}

	questionIDs := make([]uint, len(questions))
	for i, q := range questions {
		questionIDs[i] = q.ID
	}
	options, err := s.AssessmentRepo.ListOptionsByQuestionIDs(questionIDs)
	if err != nil {
		return nil, err
	}

	optionsByQuestion := make(map[uint][]flow.Option)
	for _, o := range options {
		optionsByQuestion[o.QuestionID] = append(optionsByQuestion[o.QuestionID], flow.Option{
			ID:        o.ID,
			Text:      o.Text,
			Marks:     o.Marks,
			IsCorrect: o.IsCorrect,
			Comment:   o.Comment,
		})
	}

	questionsByTopic := make(map[uint][]flow.Question)
	for _, q := range questions {
		questionsByTopic[q.TopicID] = append(questionsByTopic[q.TopicID], flow.Question{
			ID:       q.ID,
			Text:     q.Text,
			Type:     flow.QuestionType(q.Type),
			Sequence: q.Sequence,
			Options:  optionsByQuestion[q.ID],
		})
	}

	topics := make([]flow.Topic, len(modelTopics))
	for i, t := range modelTopics {
		topics[i] = flow.Topic{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Sequence:    t.Sequence,
			Questions:   questionsByTopic[t.ID],
		}
	}
	flow.SortTopics(topics)

	if s.Redis != nil {
		if raw, err := json.Marshal(topics); err == nil {
			if err := s.Redis.Set(ctx, key, raw, structureCacheTTL).Err(); err != nil {
				logger.Log.Warn("缓存测评结构失败", zap.Uint("assessmentId", assessmentID), zap.Error(err))
			}
		}
	}
	return topics, nil
}

type flowSession struct {
	Assessment *model.Assessment
	Assignment *model.Assignment
	Submission *model.Submission
	Controller *flow.Controller
}

// buildController 每次请求重建流程控制器：校验指派、找到或创建提交、
// 从已落库的作答和导航位置恢复内存状态。
func (s *AssessmentFlowService) buildController(ctx context.Context, userID, assessmentID uint) (*flowSession, error) {
	assessment, err := s.AssessmentRepo.FindAssessmentByID(assessmentID)
	if err != nil {
		return nil, util.ErrAssessmentNotFound
	}

	assignment, err := s.AssignmentRepo.FindByUserAndAssessment(userID, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAssignmentNotFound
		}
		return nil, err
	}

	if !assessment.IsActive {
		return nil, util.ErrAssessmentInactive
	}

	topics, err := s.loadTopics(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	sub, err := s.SubmissionRepo.FindByUserAndAssessment(userID, assessmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sub = &model.Submission{
			AssignmentID: assignment.ID,
			AssessmentID: assessmentID,
			UserID:       userID,
			Status:       model.SubmissionInProgress,
			View:         string(flow.ViewTopics),
			StartedAt:    time.Now(),
		}
		if err := s.SubmissionRepo.Create(sub); err != nil {
			return nil, err
		}
		if assignment.Status == model.AssignmentAssigned {
			_ = s.AssignmentRepo.UpdateStatus(assignment.ID, model.AssignmentStarted)
		}
	} else if err != nil {
		return nil, err
	}

	ctrl := flow.NewController(userID, assignment.ID, sub.ID, topics, &flowPersister{
		submissions: s.SubmissionRepo,
		assignments: s.AssignmentRepo,
	})

	answers, err := s.SubmissionRepo.ListAnswers(sub.ID)
	if err != nil {
		return nil, err
	}
	saved := make(map[uint]flow.Selection, len(answers))
	for _, a := range answers {
		sel := flow.Selection{Text: a.TextAnswer}
		if a.AnswerID != nil {
			sel.OptionID = *a.AnswerID
		}
		saved[a.QuestionID] = sel
	}

	state := flow.State{
		View:          flow.View(sub.View),
		TopicIndex:    sub.TopicIndex,
		QuestionIndex: sub.QuestionIndex,
	}
	ctrl.Resume(saved, state, sub.Status == model.SubmissionCompleted)

	return &flowSession{
		Assessment: assessment,
		Assignment: assignment,
		Submission: sub,
		Controller: ctrl,
	}, nil
}

// 客户端视图不暴露分值与正误，评分细节只在服务端可见

type OptionView struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type QuestionView struct {
	ID      uint            `json:"id"`
	Text    string          `json:"text"`
	Type    string          `json:"type"`
	Options []OptionView    `json:"options,omitempty"`
	Answer  *flow.Selection `json:"answer,omitempty"`
}

type TopicView struct {
	ID          uint           `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	Progress    flow.Progress  `json:"progress"`
	Questions   []QuestionView `json:"questions"`
}

type FlowView struct {
	AssessmentID    uint          `json:"assessmentId"`
	Title           string        `json:"title"`
	State           flow.State    `json:"state"`
	Completed       bool          `json:"completed"`
	Topics          []TopicView   `json:"topics"`
	Overall         flow.Progress `json:"overall"`
	CurrentQuestion *QuestionView `json:"currentQuestion,omitempty"`
}

func questionView(q flow.Question, ctrl *flow.Controller) QuestionView {
	qv := QuestionView{
		ID:   q.ID,
		Text: q.Text,
		Type: string(q.Type),
	}
	for _, o := range q.Options {
		qv.Options = append(qv.Options, OptionView{ID: o.ID, Text: o.Text})
	}
	if sel, ok := ctrl.Answers.Get(q.ID); ok {
		qv.Answer = &sel
	}
	return qv
}

func (s *AssessmentFlowService) flowView(sess *flowSession) *FlowView {
	ctrl := sess.Controller
	view := &FlowView{
		AssessmentID: sess.Assessment.ID,
		Title:        sess.Assessment.Title,
		State:        ctrl.State,
		Completed:    ctrl.Completed(),
		Overall:      ctrl.OverallProgress(),
	}

	for _, t := range ctrl.Topics {
		p := flow.TopicProgress(t, ctrl.Answers)
		status := model.TopicNotStarted
		if flow.TopicComplete(t, ctrl.Answers) {
			status = model.TopicCompleted
		} else if p.Answered > 0 {
			status = model.TopicInProgress
		}

		tv := TopicView{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Status:      status,
			Progress:    p,
		}
		for _, q := range t.Questions {
			tv.Questions = append(tv.Questions, questionView(q, ctrl))
		}
		view.Topics = append(view.Topics, tv)
	}

	if q, ok := ctrl.CurrentQuestion(); ok {
		qv := questionView(q, ctrl)
		view.CurrentQuestion = &qv
	}
	return view
}

// GetFlow 作答主入口：首次访问创建提交，之后恢复到上次位置
func (s *AssessmentFlowService) GetFlow(ctx context.Context, userID, assessmentID uint) (*FlowView, error) {
	sess, err := s.buildController(ctx, userID, assessmentID)
	if err != nil {
		return nil, err
	}
	return s.flowView(sess), nil
}

type AnswerRequest struct {
	QuestionID uint   `json:"questionId" binding:"required"`
	OptionID   uint   `json:"optionId"`
	Text       string `json:"text"`
}

type AnswerResult struct {
	State   flow.State      `json:"state"`
	Topics  []flow.Progress `json:"topics"`
	Overall flow.Progress   `json:"overall"`
}

func mapFlowErr(err error) error {
	switch {
	case errors.Is(err, flow.ErrCompleted):
		return util.ErrAlreadyCompleted
	case errors.Is(err, flow.ErrEmptySelection):
		return util.ErrEmptySelection
	case errors.Is(err, flow.ErrUnknownQuestion):
		return util.ErrQuestionNotInTopic
	case errors.Is(err, flow.ErrTopicsIncomplete):
		return util.ErrTopicsIncomplete
	}
	return err
}

// RecordAnswer 记录一道题的作答并立即落库，返回最新进度
func (s *AssessmentFlowService) RecordAnswer(ctx context.Context, userID, assessmentID uint, req AnswerRequest) (*AnswerResult, error) {
	sess, err := s.buildController(ctx, userID, assessmentID)
	if err != nil {
		return nil, err
	}

	ctrl := sess.Controller
	sel := flow.Selection{OptionID: req.OptionID, Text: req.Text}
	if err := ctrl.RecordAnswer(req.QuestionID, sel); err != nil {
		return nil, mapFlowErr(err)
	}

	return &AnswerResult{
		State:   ctrl.State,
		Topics:  ctrl.TopicProgressList(),
		Overall: ctrl.OverallProgress(),
	}, nil
}

type NavigateRequest struct {
	Event      string `json:"event" binding:"required"`
	TopicIndex int    `json:"topicIndex"`
}

// Navigate 应用导航事件（select_topic/next/previous/back_to_topics/complete）
func (s *AssessmentFlowService) Navigate(ctx context.Context, userID, assessmentID uint, req NavigateRequest) (*FlowView, error) {
	sess, err := s.buildController(ctx, userID, assessmentID)
	if err != nil {
		return nil, err
	}

	ev, ok := flow.EventFromName(req.Event, req.TopicIndex)
	if !ok {
		return nil, fmt.Errorf("unknown navigation event %q", req.Event)
	}

	if err := sess.Controller.Navigate(ev); err != nil {
		return nil, mapFlowErr(err)
	}
	return s.flowView(sess), nil
}

type ResultView struct {
	AssessmentID uint       `json:"assessmentId"`
	Title        string     `json:"title"`
	Completed    bool       `json:"completed"`
	Score        float64    `json:"score"`
	MaxScore     float64    `json:"maxScore"`
	Percentage   float64    `json:"percentage"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

func resultView(assessment *model.Assessment, sub *model.Submission) *ResultView {
	rv := &ResultView{
		AssessmentID: assessment.ID,
		Title:        assessment.Title,
		Completed:    sub.Status == model.SubmissionCompleted,
		Score:        sub.Score,
		MaxScore:     sub.MaxScore,
		CompletedAt:  sub.CompletedAt,
	}
	if sub.MaxScore > 0 {
		rv.Percentage = sub.Score / sub.MaxScore * 100
	}
	return rv
}

// Complete 提交整个测评。全部话题完成才允许；重复调用返回已有结果。
func (s *AssessmentFlowService) Complete(ctx context.Context, userID, assessmentID uint) (*ResultView, error) {
	sess, err := s.buildController(ctx, userID, assessmentID)
	if err != nil {
		return nil, err
	}

	ctrl := sess.Controller
	alreadyDone := ctrl.Completed()
	if err := ctrl.Complete(); err != nil {
		return nil, mapFlowErr(err)
	}

	if !alreadyDone {
		monitoring.CompletionCounter.WithLabelValues(strconv.FormatUint(uint64(assessmentID), 10)).Inc()
		logger.Log.Info("测评提交完成",
			zap.Uint("userId", userID),
			zap.Uint("assessmentId", assessmentID),
			zap.Uint("submissionId", sess.Submission.ID),
		)
	}

	// 分数由 Complete 落库，重新读取拿最终值
	sub, err := s.SubmissionRepo.FindByID(sess.Submission.ID)
	if err != nil {
		return nil, err
	}
	return resultView(sess.Assessment, sub), nil
}

// Result 完成后的成绩页数据；未完成时返回当前快照，Completed 为 false
func (s *AssessmentFlowService) Result(ctx context.Context, userID, assessmentID uint) (*ResultView, error) {
	assessment, err := s.AssessmentRepo.FindAssessmentByID(assessmentID)
	if err != nil {
		return nil, util.ErrAssessmentNotFound
	}
	sub, err := s.SubmissionRepo.FindByUserAndAssessment(userID, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubmissionNotFound
		}
		return nil, err
	}
	return resultView(assessment, sub), nil
}

// ListSubmissions 管理端查看某测评的提交列表
func (s *AssessmentFlowService) ListSubmissions(assessmentID uint, page, limit int, studentName, status string) ([]repository.SubmissionListRow, int64, error) {
	return s.SubmissionRepo.ListByAssessment(assessmentID, page, limit, studentName, status)
}

// SubmissionDetail 管理端查看单次提交的逐题作答与得分
func (s *AssessmentFlowService) SubmissionDetail(submissionID uint) (*model.Submission, []model.SubmittedAnswer, error) {
	sub, answers, err := s.SubmissionRepo.GetDetail(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrSubmissionNotFound
		}
		return nil, nil, err
	}
	return sub, answers, nil
}
