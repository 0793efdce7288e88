package models

import (
	"fmt"

	"gorm.io/gorm"
)

// PrefectStatus is the two-character code of a workflow node.
type PrefectStatus string

const (
	StatusCreate         PrefectStatus = "01"
	StatusEngineerEdit   PrefectStatus = "02"
	StatusSecondReview   PrefectStatus = "03"
	StatusThirdReview    PrefectStatus = "04"
	StatusToArchive      PrefectStatus = "05"
	StatusArchived       PrefectStatus = "06"
	StatusRejectEngineer PrefectStatus = "12"
)

var statusNames = map[PrefectStatus]string{
	StatusCreate:         "CREATE",
	StatusEngineerEdit:   "ENGINEER_EDIT",
	StatusSecondReview:   "SECOND_REVIEW",
	StatusThirdReview:    "THIRD_REVIEW",
	StatusToArchive:      "TO_ARCHIVE",
	StatusArchived:       "ARCHIVED",
	StatusRejectEngineer: "REJECT_ENGINEER",
}

// ParseStatus accepts a status code ("03") or its name ("SECOND_REVIEW").
func ParseStatus(s string) (PrefectStatus, error) {
	if _, ok := statusNames[PrefectStatus(s)]; ok {
		return PrefectStatus(s), nil
	}
	for code, name := range statusNames {
		if name == s {
			return code, nil
		}
	}
	return "", fmt.Errorf("unknown prefect status %q", s)
}

func (s PrefectStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s PrefectStatus) Name() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "UNKNOWN"
}

func (s PrefectStatus) String() string { return string(s) }

// ShowsInvoiceSeal is the only source of the show_invoice_seal flag:
// the invoice/seal actions are offered during the two review stages.
func (s PrefectStatus) ShowsInvoiceSeal() bool {
	return s == StatusSecondReview || s == StatusThirdReview
}

// ProjectPrefect is the current workflow state of a project.
// Exactly one live row exists per live project.
type ProjectPrefect struct {
	gorm.Model
	ProjectID       uint          `gorm:"not null;index" json:"projectId"`
	CurrentStatus   PrefectStatus `gorm:"type:varchar(2);not null;index" json:"currentStatus"`
	ShowInvoiceSeal bool          `gorm:"not null;default:false" json:"showInvoiceSeal"`
	OperatorID      uint          `gorm:"not null" json:"operatorId"`
	OperatorName    string        `gorm:"size:30;not null" json:"operatorName"`
}
