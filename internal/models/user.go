package models

// 用户角色
const (
	RolePatient = "PATIENT"
	RoleDoctor  = "DOCTOR"
	RoleAdmin   = "ADMIN"
)

// User 用户（只读引用；认证由外部服务负责）
type User struct {
	UserID string  `json:"user_id" db:"user_id"`
	Name   string  `json:"name" db:"name"`
	Email  *string `json:"email,omitempty" db:"email"`
	Role   string  `json:"role" db:"role"`
}
