package model

import "time"

const (
	SubmissionInProgress = "in_progress"
	SubmissionCompleted  = "completed"
)

const (
	TopicNotStarted = "not_started"
	TopicInProgress = "in_progress"
	TopicCompleted  = "completed"
)

// Submission 一次作答记录，稳态下每个 (assessment, user) 唯一。
// view/topic_index/question_index 保存导航位置，刷新后可以恢复。
type Submission struct {
	BaseModel
	AssignmentID  uint       `gorm:"index;not null" json:"assignmentId"`
	AssessmentID  uint       `gorm:"index;not null;uniqueIndex:idx_submission_user" json:"assessmentId"`
	UserID        uint       `gorm:"index;not null;uniqueIndex:idx_submission_user" json:"userId"`
	Status        string     `gorm:"size:20;default:'in_progress'" json:"status"`
	Score         float64    `gorm:"default:0" json:"score"`
	MaxScore      float64    `gorm:"default:0" json:"maxScore"`
	View          string     `gorm:"size:20;default:'topics'" json:"view"`
	TopicIndex    int        `gorm:"default:0" json:"topicIndex"`
	QuestionIndex int        `gorm:"default:0" json:"questionIndex"`
	StartedAt     time.Time  `json:"startedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

// SubmittedAnswer 按 (submission, question) 幂等写入
type SubmittedAnswer struct {
	BaseModel
	SubmissionID uint    `gorm:"not null;uniqueIndex:idx_submission_question" json:"submissionId"`
	QuestionID   uint    `gorm:"not null;uniqueIndex:idx_submission_question" json:"questionId"`
	AnswerID     *uint   `json:"answerId,omitempty"`
	TextAnswer   string  `gorm:"type:text" json:"textAnswer,omitempty"`
	Score        float64 `gorm:"default:0" json:"score"`
}

func (SubmittedAnswer) TableName() string {
	return "submitted_answers"
}

// TopicStatus 话题级进度标记，避免每次从原始答案重算
type TopicStatus struct {
	BaseModel
	SubmissionID uint   `gorm:"not null;uniqueIndex:idx_submission_topic" json:"submissionId"`
	TopicID      uint   `gorm:"not null;uniqueIndex:idx_submission_topic" json:"topicId"`
	Status       string `gorm:"size:20;default:'not_started'" json:"status"`
}

func (TopicStatus) TableName() string {
	return "topic_statuses"
}
