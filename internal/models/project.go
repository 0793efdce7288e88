package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectState string

const (
	ProjectNormal     ProjectState = "0"
	ProjectPaused     ProjectState = "1"
	ProjectTerminated ProjectState = "2"
)

type Project struct {
	gorm.Model

	ProjectCode string `gorm:"size:50;uniqueIndex;not null" json:"projectCode"`
	ProjectName string `gorm:"size:255;not null" json:"projectName"`
	ProjectType string `gorm:"size:20" json:"projectType"`

	EnterpriseID   uint   `gorm:"index" json:"enterpriseId"`
	EnterpriseName string `gorm:"size:200" json:"enterpriseName"`

	ServiceContent string `gorm:"size:100" json:"serviceContent"`
	UserCompany    string `gorm:"size:100" json:"userCompany"`
	ProjectManager string `gorm:"size:50" json:"projectManager"`
	Coordinator    string `gorm:"size:100" json:"coordinator"`

	ContractAmount        float64 `json:"contractAmount"`
	InvoiceShouldAmount   float64 `json:"invoiceShouldAmount"`
	InvoiceIssuedAmount   float64 `json:"invoiceIssuedAmount"`
	PaymentReceived       string  `gorm:"size:20" json:"paymentReceived"`
	PaymentReceivedAmount float64 `json:"paymentReceivedAmount"`

	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	ProjectDesc string     `gorm:"type:text" json:"projectDesc"`
	Remarks     string     `gorm:"size:500" json:"remarks"`

	Status        ProjectState  `gorm:"type:varchar(1);not null;default:'0'" json:"status"`
	PrefectStatus PrefectStatus `gorm:"type:varchar(2);not null;default:'01';index" json:"prefectStatus"`

	CreateBy   uint   `json:"createBy"`
	CreateName string `gorm:"size:30" json:"createName"`
	UpdateBy   uint   `json:"updateBy"`
	UpdateName string `gorm:"size:30" json:"updateName"`
}
