package repository

import (
	"assessflow_backend/internal/model"

	"gorm.io/gorm"
)

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

func (r *AssessmentRepository) CreateAssessment(a *model.Assessment) error {
	return r.DB.Create(a).Error
}

func (r *AssessmentRepository) FindAssessmentByID(id uint) (*model.Assessment, error) {
	var a model.Assessment
	err := r.DB.First(&a, id).Error
	return &a, err
}

func (r *AssessmentRepository) UpdateAssessment(a *model.Assessment) error {
	return r.DB.Save(a).Error
}

// DeleteAssessment 级联软删话题、题目和选项
func (r *AssessmentRepository) DeleteAssessment(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var topicIDs []uint
		if err := tx.Model(&model.Topic{}).Where("assessment_id = ?", id).Pluck("id", &topicIDs).Error; err != nil {
			return err
		}
		if len(topicIDs) > 0 {
			var questionIDs []uint
			if err := tx.Model(&model.Question{}).Where("topic_id IN ?", topicIDs).Pluck("id", &questionIDs).Error; err != nil {
				return err
			}
			if len(questionIDs) > 0 {
				if err := tx.Where("question_id IN ?", questionIDs).Delete(&model.AnswerOption{}).Error; err != nil {
					return err
				}
				if err := tx.Where("topic_id IN ?", topicIDs).Delete(&model.Question{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("assessment_id = ?", id).Delete(&model.Topic{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Assessment{}, id).Error
	})
}

type AssessmentListRow struct {
	model.Assessment
	TopicCount    int `json:"topicCount"`
	QuestionCount int `json:"questionCount"`
}

func (r *AssessmentRepository) ListAssessments(page, limit int) ([]AssessmentListRow, int64, error) {
	var total int64
	if err := r.DB.Model(&model.Assessment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []AssessmentListRow
	query := r.DB.Table("assessments a").
		Select("a.*, " +
			"(SELECT COUNT(*) FROM topics t WHERE t.assessment_id = a.id AND t.deleted_at IS NULL) as topic_count, " +
			"(SELECT COUNT(*) FROM questions q JOIN topics t ON q.topic_id = t.id WHERE t.assessment_id = a.id AND q.deleted_at IS NULL AND t.deleted_at IS NULL) as question_count").
		Where("a.deleted_at IS NULL")

	if limit > 0 {
		offset := (page - 1) * limit
		query = query.Offset(offset).Limit(limit)
	}

	err := query.Order("a.created_at desc").Scan(&rows).Error
	return rows, total, err
}

func (r *AssessmentRepository) CreateTopic(t *model.Topic) error {
	return r.DB.Create(t).Error
}

func (r *AssessmentRepository) FindTopicByID(id uint) (*model.Topic, error) {
	var t model.Topic
	err := r.DB.First(&t, id).Error
	return &t, err
}

func (r *AssessmentRepository) UpdateTopic(t *model.Topic) error {
	return r.DB.Save(t).Error
}

func (r *AssessmentRepository) DeleteTopic(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var questionIDs []uint
		if err := tx.Model(&model.Question{}).Where("topic_id = ?", id).Pluck("id", &questionIDs).Error; err != nil {
			return err
		}
		if len(questionIDs) > 0 {
			if err := tx.Where("question_id IN ?", questionIDs).Delete(&model.AnswerOption{}).Error; err != nil {
				return err
			}
			if err := tx.Where("topic_id = ?", id).Delete(&model.Question{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Topic{}, id).Error
	})
}

// ListTopics 展示顺序：sequence 升序，并列按创建顺序
func (r *AssessmentRepository) ListTopics(assessmentID uint, activeOnly bool) ([]model.Topic, error) {
	query := r.DB.Where("assessment_id = ?", assessmentID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var topics []model.Topic
	err := query.Order("sequence asc, id asc").Find(&topics).Error
	return topics, err
}

func (r *AssessmentRepository) CreateQuestion(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *AssessmentRepository) FindQuestionByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.First(&q, id).Error
	return &q, err
}

func (r *AssessmentRepository) UpdateQuestion(q *model.Question) error {
	return r.DB.Save(q).Error
}

func (r *AssessmentRepository) DeleteQuestion(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&model.AnswerOption{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Question{}, id).Error
	})
}

func (r *AssessmentRepository) ListQuestions(topicID uint, activeOnly bool) ([]model.Question, error) {
	query := r.DB.Where("topic_id = ?", topicID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var qs []model.Question
	err := query.Order("sequence asc, id asc").Find(&qs).Error
	return qs, err
}

func (r *AssessmentRepository) ListQuestionsByTopicIDs(topicIDs []uint, activeOnly bool) ([]model.Question, error) {
	if len(topicIDs) == 0 {
		return nil, nil
	}
	query := r.DB.Where("topic_id IN ?", topicIDs)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var qs []model.Question
	err := query.Order("sequence asc, id asc").Find(&qs).Error
	return qs, err
}

func (r *AssessmentRepository) ListOptions(questionID uint) ([]model.AnswerOption, error) {
	var opts []model.AnswerOption
	err := r.DB.Where("question_id = ?", questionID).Order("id asc").Find(&opts).Error
	return opts, err
}

func (r *AssessmentRepository) ListOptionsByQuestionIDs(questionIDs []uint) ([]model.AnswerOption, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	var opts []model.AnswerOption
	err := r.DB.Where("question_id IN ?", questionIDs).Order("id asc").Find(&opts).Error
	return opts, err
}

// ReplaceOptions 全量替换一道题的选项
func (r *AssessmentRepository) ReplaceOptions(questionID uint, options []model.AnswerOption) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", questionID).Delete(&model.AnswerOption{}).Error; err != nil {
			return err
		}
		for i := range options {
			options[i].ID = 0
			options[i].QuestionID = questionID
			if err := tx.Create(&options[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
