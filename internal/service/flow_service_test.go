package service

import (
	"assessflow_backend/internal/model"
	"assessflow_backend/internal/repository"
	"assessflow_backend/internal/util"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	applogger "assessflow_backend/pkg/logger"
)

func init() {
	applogger.Log = zap.NewNop()
}

type flowFixture struct {
	db         *gorm.DB
	svc        *AssessmentFlowService
	user       *model.User
	assessment *model.Assessment
	// questionID → 选项文本 → 选项ID
	options map[uint]map[string]uint
	q1, q2  uint
	q3      uint
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Assessment{},
		&model.Topic{},
		&model.Question{},
		&model.AnswerOption{},
		&model.Assignment{},
		&model.Submission{},
		&model.SubmittedAnswer{},
		&model.TopicStatus{},
	))
	return db
}

// 两个话题：话题一是两道选择题（分值 1..5 和 2/0），话题二是一道自由文本题
func setupFlow(t *testing.T) *flowFixture {
	t.Helper()
	db := openTestDB(t)

	admin := &model.User{Name: "管理员", Email: "admin@test.local", Password: "x", Role: model.Admin}
	require.NoError(t, db.Create(admin).Error)
	user := &model.User{Name: "张三", Email: "client@test.local", Password: "x", Role: model.Client}
	require.NoError(t, db.Create(user).Error)

	assessment := &model.Assessment{Title: "入职能力测评", IsActive: true, OwnerID: admin.ID}
	require.NoError(t, db.Create(assessment).Error)

	t1 := &model.Topic{AssessmentID: assessment.ID, Title: "基础", Sequence: 1, IsActive: true}
	t2 := &model.Topic{AssessmentID: assessment.ID, Title: "进阶", Sequence: 2, IsActive: true}
	require.NoError(t, db.Create(t1).Error)
	require.NoError(t, db.Create(t2).Error)

	q1 := &model.Question{TopicID: t1.ID, Text: "选择题一", Type: model.QuestionMultipleChoice, Sequence: 1, IsActive: true}
	q2 := &model.Question{TopicID: t1.ID, Text: "判断题", Type: model.QuestionYesNo, Sequence: 2, IsActive: true}
	q3 := &model.Question{TopicID: t2.ID, Text: "简答题", Type: model.QuestionFreeText, Sequence: 1, IsActive: true}
	require.NoError(t, db.Create(q1).Error)
	require.NoError(t, db.Create(q2).Error)
	require.NoError(t, db.Create(q3).Error)

	options := map[uint]map[string]uint{q1.ID: {}, q2.ID: {}}
	for i := 1; i <= 5; i++ {
		o := &model.AnswerOption{QuestionID: q1.ID, Text: fmt.Sprintf("选项%d", i), Marks: fmt.Sprintf("%d", i)}
		require.NoError(t, db.Create(o).Error)
		options[q1.ID][o.Marks] = o.ID
	}
	yes := &model.AnswerOption{QuestionID: q2.ID, Text: "是", Marks: "2"}
	no := &model.AnswerOption{QuestionID: q2.ID, Text: "否", Marks: "0"}
	require.NoError(t, db.Create(yes).Error)
	require.NoError(t, db.Create(no).Error)
	options[q2.ID]["2"] = yes.ID
	options[q2.ID]["0"] = no.ID

	require.NoError(t, db.Create(&model.Assignment{
		AssessmentID: assessment.ID,
		UserID:       user.ID,
		Status:       model.AssignmentAssigned,
		AssignedAt:   time.Now(),
	}).Error)

	svc := NewAssessmentFlowService(
		repository.NewAssessmentRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewSubmissionRepository(db),
		nil,
	)

	return &flowFixture{
		db:         db,
		svc:        svc,
		user:       user,
		assessment: assessment,
		options:    options,
		q1:         q1.ID,
		q2:         q2.ID,
		q3:         q3.ID,
	}
}

func TestGetFlowCreatesSubmissionAndStartsAssignment(t *testing.T) {
	f := setupFlow(t)
	ctx := context.Background()

	view, err := f.svc.GetFlow(ctx, f.user.ID, f.assessment.ID)
	require.NoError(t, err)

	assert.Equal(t, "topics", string(view.State.View))
	assert.False(t, view.Completed)
	require.Len(t, view.Topics, 2)
	assert.Equal(t, "基础", view.Topics[0].Title)
	assert.Equal(t, model.TopicNotStarted, view.Topics[0].Status)
	assert.Equal(t, 3, view.Overall.Total)
	assert.Equal(t, 0, view.Overall.Answered)

	var sub model.Submission
	require.NoError(t, f.db.Where("user_id = ?", f.user.ID).First(&sub).Error)
	assert.Equal(t, model.SubmissionInProgress, sub.Status)

	var assignment model.Assignment
	require.NoError(t, f.db.Where("user_id = ?", f.user.ID).First(&assignment).Error)
	assert.Equal(t, model.AssignmentStarted, assignment.Status)

	// 再次访问复用同一条提交
	_, err = f.svc.GetFlow(ctx, f.user.ID, f.assessment.ID)
	require.NoError(t, err)
	var count int64
	f.db.Model(&model.Submission{}).Where("user_id = ?", f.user.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestGetFlowRequiresAssignment(t *testing.T) {
	f := setupFlow(t)
	stranger := &model.User{Name: "李四", Email: "other@test.local", Password: "x", Role: model.Client}
	require.NoError(t, f.db.Create(stranger).Error)

	_, err := f.svc.GetFlow(context.Background(), stranger.ID, f.assessment.ID)
	assert.ErrorIs(t, err, util.ErrAssignmentNotFound)
}

func TestGetFlowRejectsInactiveAssessment(t *testing.T) {
	f := setupFlow(t)
	require.NoError(t, f.db.Model(&model.Assessment{}).Where("id = ?", f.assessment.ID).Update("is_active", false).Error)

	_, err := f.svc.GetFlow(context.Background(), f.user.ID, f.assessment.ID)
	assert.ErrorIs(t, err, util.ErrAssessmentInactive)
}

func TestRecordAnswerPersistsAndResumes(t *testing.T) {
	f := setupFlow(t)
	ctx := context.Background()

	res, err := f.svc.RecordAnswer(ctx, f.user.ID, f.assessment.ID, AnswerRequest{
		QuestionID: f.q1,
		OptionID:   f.options[f.q1]["3"],
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Overall.Answered)

	_, err = f.svc.RecordAnswer(ctx, f.user.ID, f.assessment.ID, AnswerRequest{
		QuestionID: f.q3,
		Text:       "用文字作答",
	})
	require.NoError(t, err)

	// 模拟刷新：重新进入流程，作答应从数据库恢复
	view, err := f.svc.GetFlow(ctx, f.user.ID, f.assessment.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Overall.Answered)
	assert.Equal(t, 3, view.Overall.Total)

	require.Len(t, view.Topics[0].Questions, 2)
	answered := view.Topics[0].Questions[0]
	require.NotNil(t, answered.Answer)
	assert.Equal(t, f.options[f.q1]["3"], answered.Answer.OptionID)
	assert.Equal(t, model.TopicInProgress, view.Topics[0].Status)
	assert.Equal(t, model.TopicCompleted, view.Topics[1].Status)
}

func TestRecordAnswerLastWriteWins(t *testing.T) {
	f := setupFlow(t)
	ctx := context.Background()

	first := f.options[f.q1]["1"]
	second := f.options[f.q1]["5"]
	_, err := f.svc.RecordAnswer(ctx, f.user.ID, f.assessment.ID, AnswerRequest{QuestionID: f.q1, OptionID: first})
	require.NoError(t, err)
	_, err = f.svc.RecordAnswer(ctx, f.user.ID, f.assessment.ID, AnswerRequest{QuestionID: f.q1, OptionID: second})
	require.NoError(t, err)

	var answers []model.SubmittedAnswer
	require.NoError(t, f.db.Find(&answers).Error)
	require.Len(t, answers, 1)
	require.NotNil(t, answers[0].AnswerID)
	assert.Equal(t, second, *answers[0].AnswerID)
	assert.Equal(t, 5.0, answers[0].Score)
}

func TestRecordAnswerValidation(t *testing.T) {
	f := setupFlow(t)
	ctx := context.Background()

	_, err := f.svc.RecordAnswer(ctx, f.user.ID, f.assessment.ID, AnswerRequest{QuestionID: f.q1})
	assert.ErrorIs(t, err, util.ErrEmptySelection)

	_, err = f.svc.RecordAnswer(ctx, f.user.ID, f.assessment.ID, AnswerRequest{QuestionID: 9999, OptionID: 1})
	assert.ErrorIs(t, err, util.ErrQuestionNotInTopic)
}

func TestNavigatePersistsPosition(t *testing.T) {
	f := setupFlow(t)
	ctx := context.Background()

	view, err := f.svc.Navigate(ctx, f.user.ID, f.assessment.ID, NavigateRequest{Event: "select_topic", TopicIndex: 0})
	require.NoError(t, err)
	assert.Equal(t, "answering", string(view.State.View))
	require.NotNil(t, view.CurrentQuestion)
	assert.Equal(t, f.q1, view.CurrentQuestion.ID)

	view, err = f.svc.Navigate(ctx, f.user.ID, f.assessment.ID, NavigateRequest{Event: "next"})
	require.NoError(t, err)
	assert.Equal(t, 1, view.State.QuestionIndex)

	// 位置落库，重新进入恢复到同一题
	resumed, err := f.svc.GetFlow(ctx, f.user.ID, f.assessment.ID)
	require.NoError(t, err)
	assert.Equal(t, "answering", string(resumed.State.View))
	assert.Equal(t, 1, resumed.State.QuestionIndex)
	require.NotNil(t, resumed.CurrentQuestion)
	assert.Equal(t, f.q2, resumed.CurrentQuestion.ID)

	_, err = f.svc.Navigate(ctx, f.user.ID, f.assessment.ID, NavigateRequest{Event: "teleport"})
	assert.Error(t, err)
}

func TestNavigateAfterTopicDeactivatedMidSubmission(t *testing.T) {
	f := setupFlow(t)
	ctx := context.Background()

	// 答到第二个话题并停在那里
	_, err := f.svc.Navigate(ctx, f.user.ID, f.assessment.ID, NavigateRequest{Event: "select_topic", TopicIndex: 1})
	require.NoError(t, err)
	_, err = f.svc.RecordAnswer(ctx, f.user.ID, f.assessment.ID, AnswerRequest{QuestionID: f.q3, Text: "中途作答"})
	require.NoError(t, err)

	// 管理端停用第二个话题，落库的位置随之失效
	require.NoError(t, f.db.Model(&model.Topic{}).
		Where("title = ?", "进阶").Update("is_active", false).Error)

	// 回退到总览而不是越界，剩余结构仍可继续作答
	view, err := f.svc.Navigate(ctx, f.user.ID, f.assessment.ID, NavigateRequest{Event: "next"})
	require.NoError(t, err)
	assert.Equal(t, "topics", string(view.State.View))
	require.Len(t, view.Topics, 1)
	assert.Equal(t, 2, view.Overall.Total)

	view, err = f.svc.Navigate(ctx, f.user.ID, f.assessment.ID, NavigateRequest{Event: "select_topic", TopicIndex: 0})
	require.NoError(t, err)
	assert.Equal(t, "answering", string(view.State.View))
	require.NotNil(t, view.CurrentQuestion)
	assert.Equal(t, f.q1, view.CurrentQuestion.ID)
}

func answerAll(t *testing.T, f *flowFixture) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.RecordAnswer(ctx, f.user.ID, f.assessment.ID, AnswerRequest{QuestionID: f.q1, OptionID: f.options[f.q1]["3"]})
	require.NoError(t, err)
	_, err = f.svc.RecordAnswer(ctx, f.user.ID, f.assessment.ID, AnswerRequest{QuestionID: f.q2, OptionID: f.options[f.q2]["2"]})
	require.NoError(t, err)
	_, err = f.svc.RecordAnswer(ctx, f.user.ID, f.assessment.ID, AnswerRequest{QuestionID: f.q3, Text: "完成"})
	require.NoError(t, err)
}

func TestCompleteScoresAndIsIdempotent(t *testing.T) {
	f := setupFlow(t)
	ctx := context.Background()
	answerAll(t, f)

	// 3 + 2 + 1（自由文本按默认分值计 1 分），满分 5 + 2 + 1
	result, err := f.svc.Complete(ctx, f.user.ID, f.assessment.ID)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, 6.0, result.Score)
	assert.Equal(t, 8.0, result.MaxScore)
	assert.InDelta(t, 75.0, result.Percentage, 0.001)
	require.NotNil(t, result.CompletedAt)

	var assignment model.Assignment
	require.NoError(t, f.db.Where("user_id = ?", f.user.ID).First(&assignment).Error)
	assert.Equal(t, model.AssignmentCompleted, assignment.Status)

	// 重复提交返回同一结果，不改变已记录的分数
	again, err := f.svc.Complete(ctx, f.user.ID, f.assessment.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Score, again.Score)
	assert.Equal(t, result.CompletedAt.Unix(), again.CompletedAt.Unix())

	// 完成后拒绝继续作答
	_, err = f.svc.RecordAnswer(ctx, f.user.ID, f.assessment.ID, AnswerRequest{QuestionID: f.q1, OptionID: f.options[f.q1]["1"]})
	assert.ErrorIs(t, err, util.ErrAlreadyCompleted)
}

func TestCompleteRejectedWhenTopicsIncomplete(t *testing.T) {
	f := setupFlow(t)
	ctx := context.Background()

	_, err := f.svc.RecordAnswer(ctx, f.user.ID, f.assessment.ID, AnswerRequest{QuestionID: f.q1, OptionID: f.options[f.q1]["3"]})
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, f.user.ID, f.assessment.ID)
	assert.ErrorIs(t, err, util.ErrTopicsIncomplete)
}

func TestResult(t *testing.T) {
	f := setupFlow(t)
	ctx := context.Background()

	_, err := f.svc.Result(ctx, f.user.ID, f.assessment.ID)
	assert.ErrorIs(t, err, util.ErrSubmissionNotFound)

	answerAll(t, f)
	_, err = f.svc.Complete(ctx, f.user.ID, f.assessment.ID)
	require.NoError(t, err)

	result, err := f.svc.Result(ctx, f.user.ID, f.assessment.ID)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, 6.0, result.Score)

	rows, total, err := f.svc.ListSubmissions(f.assessment.ID, 1, 10, "", "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "张三", rows[0].UserName)

	sub, answers, err := f.svc.SubmissionDetail(rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionCompleted, sub.Status)
	assert.Len(t, answers, 3)
}

func TestCompletedViewIsForced(t *testing.T) {
	f := setupFlow(t)
	ctx := context.Background()
	answerAll(t, f)
	_, err := f.svc.Complete(ctx, f.user.ID, f.assessment.ID)
	require.NoError(t, err)

	view, err := f.svc.GetFlow(ctx, f.user.ID, f.assessment.ID)
	require.NoError(t, err)
	assert.True(t, view.Completed)
	assert.Equal(t, "completed", string(view.State.View))

	// completed 状态下导航事件全部吞掉
	view, err = f.svc.Navigate(ctx, f.user.ID, f.assessment.ID, NavigateRequest{Event: "select_topic", TopicIndex: 0})
	require.NoError(t, err)
	assert.Equal(t, "completed", string(view.State.View))
}
