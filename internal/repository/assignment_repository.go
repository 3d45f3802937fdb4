package repository

import (
	"assessflow_backend/internal/model"

	"gorm.io/gorm"
)

type AssignmentRepository struct {
	DB *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

func (r *AssignmentRepository) Create(a *model.Assignment) error {
	return r.DB.Create(a).Error
}

func (r *AssignmentRepository) FindByID(id uint) (*model.Assignment, error) {
	var a model.Assignment
	err := r.DB.First(&a, id).Error
	return &a, err
}

func (r *AssignmentRepository) FindByUserAndAssessment(userID, assessmentID uint) (*model.Assignment, error) {
	var a model.Assignment
	err := r.DB.Where("user_id = ? AND assessment_id = ?", userID, assessmentID).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AssignmentRepository) UpdateStatus(id uint, status string) error {
	return r.DB.Model(&model.Assignment{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

type AssignmentListRow struct {
	model.Assignment
	AssessmentTitle string `json:"assessmentTitle"`
	UserName        string `json:"userName"`
	UserEmail       string `json:"userEmail"`
}

func (r *AssignmentRepository) ListByUser(userID uint) ([]AssignmentListRow, error) {
	var rows []AssignmentListRow
	err := r.DB.Table("assignments g").
		Select("g.*, a.title as assessment_title").
		Joins("JOIN assessments a ON g.assessment_id = a.id").
		Where("g.user_id = ? AND g.deleted_at IS NULL AND a.deleted_at IS NULL AND a.is_active = ?", userID, true).
		Order("g.assigned_at desc").
		Scan(&rows).Error
	return rows, err
}

func (r *AssignmentRepository) ListByAssessment(assessmentID uint, page, limit int) ([]AssignmentListRow, int64, error) {
	query := r.DB.Table("assignments g").
		Select("g.*, u.name as user_name, u.email as user_email").
		Joins("JOIN users u ON g.user_id = u.id").
		Where("g.assessment_id = ? AND g.deleted_at IS NULL", assessmentID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []AssignmentListRow
	offset := (page - 1) * limit
	err := query.Order("g.created_at desc").Offset(offset).Limit(limit).Scan(&rows).Error
	return rows, total, err
}

func (r *AssignmentRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Assignment{}, id).Error
}
