package repository

import (
	"assessflow_backend/internal/flow"
	"assessflow_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) Create(s *model.Submission) error {
	return r.DB.Create(s).Error
}

func (r *SubmissionRepository) FindByID(id uint) (*model.Submission, error) {
	var s model.Submission
	err := r.DB.First(&s, id).Error
	return &s, err
}

func (r *SubmissionRepository) FindByUserAndAssessment(userID, assessmentID uint) (*model.Submission, error) {
	var s model.Submission
	err := r.DB.Where("user_id = ? AND assessment_id = ?", userID, assessmentID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertAnswer 按 (submission, question) 幂等写入，重试安全
func (r *SubmissionRepository) UpsertAnswer(submissionID, questionID uint, answerID *uint, textAnswer string, score float64) error {
	ans := model.SubmittedAnswer{
		SubmissionID: submissionID,
		QuestionID:   questionID,
		AnswerID:     answerID,
		TextAnswer:   textAnswer,
		Score:        score,
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answer_id", "text_answer", "score", "updated_at"}),
	}).Create(&ans).Error
}

func (r *SubmissionRepository) ListAnswers(submissionID uint) ([]model.SubmittedAnswer, error) {
	var answers []model.SubmittedAnswer
	err := r.DB.Where("submission_id = ?", submissionID).Order("question_id asc").Find(&answers).Error
	return answers, err
}

// UpsertTopicStatus 按 (submission, topic) 幂等写入
func (r *SubmissionRepository) UpsertTopicStatus(submissionID, topicID uint, status string) error {
	ts := model.TopicStatus{
		SubmissionID: submissionID,
		TopicID:      topicID,
		Status:       status,
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}, {Name: "topic_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&ts).Error
}

func (r *SubmissionRepository) ListTopicStatuses(submissionID uint) ([]model.TopicStatus, error) {
	var statuses []model.TopicStatus
	err := r.DB.Where("submission_id = ?", submissionID).Find(&statuses).Error
	return statuses, err
}

func (r *SubmissionRepository) SavePosition(submissionID uint, state flow.State) error {
	return r.DB.Model(&model.Submission{}).
		Where("id = ?", submissionID).
		Updates(map[string]interface{}{
			"view":           string(state.View),
			"topic_index":    state.TopicIndex,
			"question_index": state.QuestionIndex,
		}).Error
}

// Complete 状态、得分与完成时间一次写入；重复执行结果不变
func (r *SubmissionRepository) Complete(submissionID uint, total, max float64) error {
	now := time.Now()
	return r.DB.Model(&model.Submission{}).
		Where("id = ?", submissionID).
		Updates(map[string]interface{}{
			"status":       model.SubmissionCompleted,
			"score":        total,
			"max_score":    max,
			"completed_at": &now,
		}).Error
}

type SubmissionListRow struct {
	model.Submission
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

func (r *SubmissionRepository) ListByAssessment(assessmentID uint, page, limit int, studentName, status string) ([]SubmissionListRow, int64, error) {
	query := r.DB.Table("submissions s").
		Select("s.*, u.name as user_name, u.email as user_email").
		Joins("JOIN users u ON s.user_id = u.id").
		Where("s.assessment_id = ? AND s.deleted_at IS NULL", assessmentID)

	if studentName != "" {
		query = query.Where("u.name LIKE ?", "%"+studentName+"%")
	}
	if status != "" {
		query = query.Where("s.status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []SubmissionListRow
	offset := (page - 1) * limit
	err := query.Order("s.created_at desc").Offset(offset).Limit(limit).Scan(&rows).Error
	return rows, total, err
}

func (r *SubmissionRepository) GetDetail(submissionID uint) (*model.Submission, []model.SubmittedAnswer, error) {
	var s model.Submission
	if err := r.DB.First(&s, submissionID).Error; err != nil {
		return nil, nil, err
	}

	answers, err := r.ListAnswers(submissionID)
	if err != nil {
		return nil, nil, err
	}
	return &s, answers, nil
}
