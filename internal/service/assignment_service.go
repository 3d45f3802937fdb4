package service

import (
	"assessflow_backend/internal/model"
	"assessflow_backend/internal/repository"
	"assessflow_backend/internal/util"
	"errors"
	"time"

	"gorm.io/gorm"
)

type AssignmentService struct {
	AssignmentRepo *repository.AssignmentRepository
	AssessmentRepo *repository.AssessmentRepository
	UserRepo       *repository.UserRepository
}

func NewAssignmentService(assignmentRepo *repository.AssignmentRepository, assessmentRepo *repository.AssessmentRepository, userRepo *repository.UserRepository) *AssignmentService {
	return &AssignmentService{
		AssignmentRepo: assignmentRepo,
		AssessmentRepo: assessmentRepo,
		UserRepo:       userRepo,
	}
}

type AssignRequest struct {
	UserID uint       `json:"userId" binding:"required"`
	Scope  string     `json:"scope"`
	DueAt  *time.Time `json:"dueAt"`
}

// Assign 把测评指派给客户端用户，每个 (user, assessment) 只允许一条
func (s *AssignmentService) Assign(assessmentID uint, req AssignRequest) (*model.Assignment, error) {
	if _, err := s.AssessmentRepo.FindAssessmentByID(assessmentID); err != nil {
		return nil, util.ErrAssessmentNotFound
	}
	if _, err := s.UserRepo.FindByID(req.UserID); err != nil {
		return nil, util.ErrUserNotFound
	}

	if _, err := s.AssignmentRepo.FindByUserAndAssessment(req.UserID, assessmentID); err == nil {
		return nil, util.ErrAlreadyAssigned
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	a := &model.Assignment{
		AssessmentID: assessmentID,
		UserID:       req.UserID,
		Status:       model.AssignmentAssigned,
		Scope:        req.Scope,
		AssignedAt:   time.Now(),
		DueAt:        req.DueAt,
	}
	if err := s.AssignmentRepo.Create(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AssignmentService) Revoke(id uint) error {
	if _, err := s.AssignmentRepo.FindByID(id); err != nil {
		return util.ErrAssignmentNotFound
	}
	return s.AssignmentRepo.Delete(id)
}

// ListMine 客户端首页的待办列表，只含启用中的测评
func (s *AssignmentService) ListMine(userID uint) ([]repository.AssignmentListRow, error) {
	return s.AssignmentRepo.ListByUser(userID)
}

func (s *AssignmentService) ListByAssessment(assessmentID uint, page, limit int) ([]repository.AssignmentListRow, int64, error) {
	return s.AssignmentRepo.ListByAssessment(assessmentID, page, limit)
}
