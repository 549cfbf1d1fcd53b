package models

import (
	"time"

	"github.com/google/uuid"
)

type RoomAllocation struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RoomID      int64     `gorm:"column:room_id;not null;index" json:"room_id"`
	StudentID   uuid.UUID `gorm:"column:student_id;type:uuid;not null;index;uniqueIndex:ux_room_allocations_active_student,where:is_active = true" json:"student_id"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	AllocatedAt time.Time `gorm:"column:allocated_at;autoCreateTime" json:"allocated_at"`

	Student *Profile `gorm:"foreignKey:StudentID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (RoomAllocation) TableName() string {
	return "room_allocations"
}

// ProfileName is the embedded projection of profiles(full_name).
type ProfileName struct {
	FullName string `json:"full_name"`
}

// ActiveAllocation is one active room_allocations row joined to its profile.
// Profile is nil when the referenced profile no longer exists.
type ActiveAllocation struct {
	RoomID    int64        `json:"room_id"`
	StudentID uuid.UUID    `json:"student_id"`
	Profile   *ProfileName `json:"profiles"`
}
