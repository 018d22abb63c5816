package service

import "errors"

// 业务错误（Handler 层据此映射 HTTP 状态码）
var (
	ErrInvalidCheckIn    = errors.New("invalid check-in")
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrPatientIDRequired = errors.New("patient_id is required")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrPlanNotFound      = errors.New("treatment plan not found")
	ErrAlertNotFound     = errors.New("alert not found")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrInvalidPlan       = errors.New("invalid treatment plan")
)
