package models

import "time"

type RoomType string

const (
	RoomSingle RoomType = "Single"
	RoomDouble RoomType = "Double"
	RoomTriple RoomType = "Triple"
)

type RoomStatus string

const (
	RoomVacant      RoomStatus = "Vacant"
	RoomOccupied    RoomStatus = "Occupied"
	RoomMaintenance RoomStatus = "Maintenance"
)

// Capacity returns the number of beds for a room type. Unknown types count as Single.
func (t RoomType) Capacity() int {
	switch t {
	case RoomTriple:
		return 3
	case RoomDouble:
		return 2
	default:
		return 1
	}
}

func (t RoomType) Valid() bool {
	return t == RoomSingle || t == RoomDouble || t == RoomTriple
}

func (s RoomStatus) Valid() bool {
	return s == RoomVacant || s == RoomOccupied || s == RoomMaintenance
}

// Room.Occupants holds the capacity derived from Type, not the live head count.
type Room struct {
	ID         int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RoomNumber string     `gorm:"column:room_number;size:20;not null;uniqueIndex" json:"room_number"`
	Type       RoomType   `gorm:"column:type;size:10;not null;default:'Single'" json:"type"`
	Status     RoomStatus `gorm:"column:status;size:20;not null;default:'Vacant'" json:"status"`
	Occupants  int        `gorm:"column:occupants;not null;default:1" json:"occupants"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Allocations []RoomAllocation `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Room) TableName() string {
	return "rooms"
}

// RoomUpdate is the full set of columns an edit may write.
type RoomUpdate struct {
	RoomNumber string     `json:"room_number"`
	Type       RoomType   `json:"type"`
	Status     RoomStatus `json:"status"`
	Occupants  int        `json:"occupants"`
}
