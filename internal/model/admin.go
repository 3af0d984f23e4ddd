package model

import (
	"time"
)

// Admin is a staff account with a role granting permission codes.
type Admin struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	RoleID       int       `json:"role_id"`
	RoleName     string    `json:"role_name,omitempty"`
	Permissions  []string  `json:"permissions,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// AdminLoginRequest is the login payload for staff.
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=64"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}

// Permission codes gate staff actions through the RBAC middleware.
type Permission string

const (
	PermissionContestsRead     Permission = "contests:read"
	PermissionContestsWrite    Permission = "contests:write"
	PermissionQuestionsWrite   Permission = "questions:write"
	PermissionParticipantsRead Permission = "participants:read"
	PermissionParticipantsWrite Permission = "participants:write"
	PermissionProctoringRead   Permission = "proctoring:read"
	PermissionProctoringWrite  Permission = "proctoring:write"
	PermissionMonitorRead      Permission = "monitor:read"
)

// AllPermissions lists every known permission code, used by seeding.
var AllPermissions = []Permission{
	PermissionContestsRead,
	PermissionContestsWrite,
	PermissionQuestionsWrite,
	PermissionParticipantsRead,
	PermissionParticipantsWrite,
	PermissionProctoringRead,
	PermissionProctoringWrite,
	PermissionMonitorRead,
}
