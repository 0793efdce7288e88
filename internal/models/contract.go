package models

import (
	"time"

	"gorm.io/gorm"
)

type Contract struct {
	gorm.Model
	Name          string     `gorm:"column:contract_name;size:255;not null;index" json:"contractName"`
	Type          string     `gorm:"column:contract_type;size:255;not null;index" json:"contractType"`
	Amount        float64    `gorm:"column:contract_amount" json:"contractAmount"`
	Status        string     `gorm:"column:contract_status;size:255" json:"contractStatus"`
	SignDate      *time.Time `json:"contractSignDate"`
	EffectiveDate *time.Time `json:"contractEffectiveDate"`
	ExpireDate    *time.Time `json:"contractExpireDate"`
	TerminateDate *time.Time `json:"contractTerminateDate"`
	Operator      string     `gorm:"size:255" json:"contractOperator"`

	CreateBy   uint   `json:"createBy"`
	CreateName string `gorm:"size:30" json:"createName"`
	UpdateBy   uint   `json:"updateBy"`
	UpdateName string `gorm:"size:30" json:"updateName"`
}
