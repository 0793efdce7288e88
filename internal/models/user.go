package models

import "gorm.io/gorm"

type UserRole string

const (
	RoleAdmin          UserRole = "admin"
	RoleCreator        UserRole = "creator"
	RoleEngineer       UserRole = "engineer"
	RoleSecondReviewer UserRole = "second_reviewer"
	RoleThirdReviewer  UserRole = "third_reviewer"
	RoleArchiver       UserRole = "archiver"
	RoleViewer         UserRole = "viewer"
)

var allRoles = []UserRole{
	RoleAdmin,
	RoleCreator,
	RoleEngineer,
	RoleSecondReviewer,
	RoleThirdReviewer,
	RoleArchiver,
	RoleViewer,
}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

type User struct {
	gorm.Model
	Username     string   `gorm:"uniqueIndex;size:50;not null" json:"username"`
	NickName     string   `gorm:"size:30" json:"nickName"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         UserRole `gorm:"type:varchar(20);not null" json:"role"`
}

// DisplayName is what gets written into operator_name columns.
func (u User) DisplayName() string {
	if u.NickName != "" {
		return u.NickName
	}
	return u.Username
}
