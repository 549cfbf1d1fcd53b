package models

import (
	"time"

	"github.com/google/uuid"
)

type MaintenanceStatus string

const (
	MaintenancePending    MaintenanceStatus = "Pending"
	MaintenanceInProgress MaintenanceStatus = "In Progress"
	MaintenanceResolved   MaintenanceStatus = "Resolved"
)

type MaintenanceRequest struct {
	ID           int64             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Issue        string            `gorm:"column:issue;type:text;not null" json:"issue"`
	RoomNumber   string            `gorm:"column:room_number;size:20" json:"room_number"`
	ReportedByID *uuid.UUID        `gorm:"column:reported_by_id;type:uuid;index" json:"reported_by_id"`
	Status       MaintenanceStatus `gorm:"column:status;size:20;not null;default:'Pending'" json:"status"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (MaintenanceRequest) TableName() string {
	return "maintenance_requests"
}
