package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleStudent = "Student"
	RoleAdmin   = "Admin"
)

type Profile struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	FullName    string    `gorm:"column:full_name;size:150;not null" json:"full_name"`
	Email       string    `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	Phone       *string   `gorm:"column:phone;size:30" json:"phone"`
	Course      *string   `gorm:"column:course;size:150" json:"course"`
	Role        string    `gorm:"column:role;size:20;not null;default:'Student';index" json:"role"`
	JoiningDate *string   `gorm:"column:joining_date;type:date" json:"joining_date,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// ProfileUpdate lists the editable profile columns. Email is immutable after
// account creation.
type ProfileUpdate struct {
	FullName *string `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Course   *string `json:"course,omitempty"`
}

// Empty reports whether the update would not change any column.
func (u ProfileUpdate) Empty() bool {
	return u.FullName == nil && u.Phone == nil && u.Course == nil
}
