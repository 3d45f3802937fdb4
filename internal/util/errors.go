package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrAssessmentInactive = errors.New("assessment not active or not accessible")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrAlreadyAssigned    = errors.New("user already assigned to this assessment")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadyCompleted   = errors.New("assessment already completed")
	ErrTopicsIncomplete   = errors.New("all topics must be completed before submitting")
	ErrPartialMarks       = errors.New("marks must be set on all options of a question or on none")
	ErrOptionsNotAllowed  = errors.New("free text questions cannot carry answer options")
	ErrOptionsRequired    = errors.New("choice questions require at least one answer option")
	ErrEmptySelection     = errors.New("answer selection is empty")
	ErrQuestionNotInTopic = errors.New("question does not belong to this assessment")
)
