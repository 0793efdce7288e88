package models

import (
	"time"

	"gorm.io/gorm"
)

// PrefectOpinion is an append-only review comment. NodeCode is the status
// the project was in when the comment was written.
type PrefectOpinion struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"createTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ProjectID      uint          `gorm:"not null;index" json:"projectId"`
	PrefectID      uint          `gorm:"not null" json:"prefectId"`
	NodeCode       PrefectStatus `gorm:"type:varchar(2);not null" json:"nodeCode"`
	NodeName       string        `gorm:"size:255;not null" json:"nodeName"`
	OpinionContent string        `gorm:"type:text" json:"opinionContent"`

	OperatorID   uint     `gorm:"not null" json:"operatorId"`
	OperatorName string   `gorm:"size:30;not null" json:"operatorName"`
	OperatorRole UserRole `gorm:"size:30;not null" json:"operatorRole"`
}
