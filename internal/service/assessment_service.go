package service

import (
	"assessflow_backend/internal/model"
	"assessflow_backend/internal/repository"
	"assessflow_backend/internal/util"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/go-redis/redis/v8"
)

type AssessmentService struct {
	Repo    *repository.AssessmentRepository
	Storage *StorageService
	Redis   *redis.Client
}

func NewAssessmentService(repo *repository.AssessmentRepository, storage *StorageService, rdb *redis.Client) *AssessmentService {
	return &AssessmentService{Repo: repo, Storage: storage, Redis: rdb}
}

// structureCacheKey 下发给客户端的测评结构缓存键，作答流程读取、创作侧失效
func structureCacheKey(assessmentID uint) string {
	return fmt.Sprintf("assessment:structure:%d", assessmentID)
}

func (s *AssessmentService) invalidateStructure(assessmentID uint) {
	if s.Redis == nil {
		return
	}
	s.Redis.Del(context.Background(), structureCacheKey(assessmentID))
}

type AssessmentRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

func (s *AssessmentService) CreateAssessment(ownerID uint, req AssessmentRequest) (*model.Assessment, error) {
	if req.Title == nil || *req.Title == "" {
		return nil, fmt.Errorf("title is required")
	}

	a := &model.Assessment{
		Title:   *req.Title,
		OwnerID: ownerID,
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	a.IsActive = true
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}

	if err := s.Repo.CreateAssessment(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AssessmentService) UpdateAssessment(id uint, req AssessmentRequest) (*model.Assessment, error) {
	a, err := s.Repo.FindAssessmentByID(id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}

	if err := s.Repo.UpdateAssessment(a); err != nil {
		return nil, err
	}
	s.invalidateStructure(id)
	return a, nil
}

func (s *AssessmentService) DeleteAssessment(id uint) error {
	if err := s.Repo.DeleteAssessment(id); err != nil {
		return err
	}
	s.invalidateStructure(id)
	return nil
}

func (s *AssessmentService) GetAssessment(id uint) (*model.Assessment, error) {
	return s.Repo.FindAssessmentByID(id)
}

func (s *AssessmentService) ListAssessments(page, limit int) ([]repository.AssessmentListRow, int64, error) {
	return s.Repo.ListAssessments(page, limit)
}

type TopicRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Sequence    *int    `json:"sequence"`
	IsActive    *bool   `json:"isActive"`
}

func (s *AssessmentService) CreateTopic(assessmentID uint, req TopicRequest) (*model.Topic, error) {
	if req.Title == nil || *req.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if _, err := s.Repo.FindAssessmentByID(assessmentID); err != nil {
		return nil, util.ErrAssessmentNotFound
	}

	t := &model.Topic{
		AssessmentID: assessmentID,
		Title:        *req.Title,
		IsActive:     true,
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Sequence != nil {
		t.Sequence = *req.Sequence
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	if err := s.Repo.CreateTopic(t); err != nil {
		return nil, err
	}
	s.invalidateStructure(assessmentID)
	return t, nil
}

func (s *AssessmentService) UpdateTopic(id uint, req TopicRequest) (*model.Topic, error) {
	t, err := s.Repo.FindTopicByID(id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Sequence != nil {
		t.Sequence = *req.Sequence
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	if err := s.Repo.UpdateTopic(t); err != nil {
		return nil, err
	}
	s.invalidateStructure(t.AssessmentID)
	return t, nil
}

func (s *AssessmentService) DeleteTopic(id uint) error {
	t, err := s.Repo.FindTopicByID(id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteTopic(id); err != nil {
		return err
	}
	s.invalidateStructure(t.AssessmentID)
	return nil
}

func (s *AssessmentService) ListTopics(assessmentID uint) ([]model.Topic, error) {
	return s.Repo.ListTopics(assessmentID, false)
}

type AnswerOptionRequest struct {
	Text      string `json:"text" binding:"required"`
	Marks     string `json:"marks"`
	IsCorrect *bool  `json:"isCorrect"`
	Comment   string `json:"comment"`
}

type QuestionRequest struct {
	Text       *string                `json:"text"`
	Type       *string                `json:"type"`
	Sequence   *int                   `json:"sequence"`
	IsActive   *bool                  `json:"isActive"`
	Attachment *string                `json:"attachment"`
	Options    *[]AnswerOptionRequest `json:"options"`
}

// validateQuestionOptions 创作侧校验：自由文本题不带选项，选择题至少
// 一个选项，分值要么全部给出且可解析、要么全部留空。
func validateQuestionOptions(questionType string, options []AnswerOptionRequest) error {
	switch questionType {
	case model.QuestionFreeText:
		if len(options) > 0 {
			return util.ErrOptionsNotAllowed
		}
		return nil
	case model.QuestionMultipleChoice, model.QuestionYesNo:
		if len(options) == 0 {
			return util.ErrOptionsRequired
		}
		marked := 0
		for _, o := range options {
			if o.Marks == "" {
				continue
			}
			if _, err := strconv.ParseFloat(o.Marks, 64); err != nil {
				return fmt.Errorf("invalid mark value %q", o.Marks)
			}
			marked++
		}
		if marked != 0 && marked != len(options) {
			return util.ErrPartialMarks
		}
		return nil
	}
	return fmt.Errorf("unknown question type %q", questionType)
}

func (s *AssessmentService) CreateQuestion(topicID uint, req QuestionRequest) (*model.Question, error) {
	if req.Text == nil || *req.Text == "" {
		return nil, fmt.Errorf("text is required")
	}
	qType := model.QuestionMultipleChoice
	if req.Type != nil {
		qType = *req.Type
	}

	var options []AnswerOptionRequest
	if req.Options != nil {
		options = *req.Options
	}
	if err := validateQuestionOptions(qType, options); err != nil {
		return nil, err
	}

	t, err := s.Repo.FindTopicByID(topicID)
	if err != nil {
		return nil, err
	}

	q := &model.Question{
		TopicID:  topicID,
		Text:     *req.Text,
		Type:     qType,
		IsActive: true,
	}
	if req.Sequence != nil {
		q.Sequence = *req.Sequence
	}
	if req.IsActive != nil {
		q.IsActive = *req.IsActive
	}
	if req.Attachment != nil {
		q.Attachment = *req.Attachment
	}

	if err := s.Repo.CreateQuestion(q); err != nil {
		return nil, err
	}

	if len(options) > 0 {
		if err := s.Repo.ReplaceOptions(q.ID, optionModels(options)); err != nil {
			return nil, err
		}
	}

	s.invalidateStructure(t.AssessmentID)
	return q, nil
}

func (s *AssessmentService) UpdateQuestion(id uint, req QuestionRequest) (*model.Question, error) {
	q, err := s.Repo.FindQuestionByID(id)
	if err != nil {
		return nil, err
	}

	if req.Text != nil {
		q.Text = *req.Text
	}
	if req.Type != nil {
		q.Type = *req.Type
	}
	if req.Sequence != nil {
		q.Sequence = *req.Sequence
	}
	if req.IsActive != nil {
		q.IsActive = *req.IsActive
	}
	if req.Attachment != nil {
		q.Attachment = *req.Attachment
	}

	if req.Options != nil {
		if err := validateQuestionOptions(q.Type, *req.Options); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.UpdateQuestion(q); err != nil {
		return nil, err
	}

	if req.Options != nil {
		if err := s.Repo.ReplaceOptions(q.ID, optionModels(*req.Options)); err != nil {
			return nil, err
		}
	}

	if t, err := s.Repo.FindTopicByID(q.TopicID); err == nil {
		s.invalidateStructure(t.AssessmentID)
	}
	return q, nil
}

func (s *AssessmentService) DeleteQuestion(id uint) error {
	q, err := s.Repo.FindQuestionByID(id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteQuestion(id); err != nil {
		return err
	}
	if t, err := s.Repo.FindTopicByID(q.TopicID); err == nil {
		s.invalidateStructure(t.AssessmentID)
	}
	return nil
}

// UploadAttachment 上传题目附件并写入附件地址
func (s *AssessmentService) UploadAttachment(ctx context.Context, questionID uint, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	q, err := s.Repo.FindQuestionByID(questionID)
	if err != nil {
		return "", err
	}

	url, err := s.Storage.UploadTimestamped(ctx, "attachments", filename, reader, size, contentType)
	if err != nil {
		return "", err
	}

	q.Attachment = url
	if err := s.Repo.UpdateQuestion(q); err != nil {
		return "", err
	}

	if t, err := s.Repo.FindTopicByID(q.TopicID); err == nil {
		s.invalidateStructure(t.AssessmentID)
	}
	return url, nil
}

func (s *AssessmentService) GetQuestion(id uint) (*model.Question, []model.AnswerOption, error) {
	q, err := s.Repo.FindQuestionByID(id)
	if err != nil {
		return nil, nil, err
	}
	opts, err := s.Repo.ListOptions(id)
	return q, opts, err
}

func (s *AssessmentService) ListQuestions(topicID uint) ([]model.Question, error) {
	return s.Repo.ListQuestions(topicID, false)
}

func optionModels(reqs []AnswerOptionRequest) []model.AnswerOption {
	out := make([]model.AnswerOption, len(reqs))
	for i, o := range reqs {
		out[i] = model.AnswerOption{
			Text:      o.Text,
			Marks:     o.Marks,
			IsCorrect: o.IsCorrect,
			Comment:   o.Comment,
		}
	}
	return out
}
