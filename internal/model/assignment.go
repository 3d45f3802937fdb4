package model

import "time"

const (
	AssignmentAssigned  = "assigned"
	AssignmentStarted   = "started"
	AssignmentCompleted = "completed"
)

// Assignment 用户与测评的关联，每个 (user, assessment) 唯一
type Assignment struct {
	BaseModel
	AssessmentID uint       `gorm:"index;not null;uniqueIndex:idx_assignment_user" json:"assessmentId"`
	UserID       uint       `gorm:"index;not null;uniqueIndex:idx_assignment_user" json:"userId"`
	Status       string     `gorm:"size:20;default:'assigned'" json:"status"`
	Scope        string     `gorm:"size:100" json:"scope"`
	AssignedAt   time.Time  `json:"assignedAt"`
	DueAt        *time.Time `json:"dueAt,omitempty"`
}

func (Assignment) TableName() string {
	return "assignments"
}
