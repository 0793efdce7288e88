package models

import "gorm.io/gorm"

type Enterprise struct {
	gorm.Model
	Name          string `gorm:"size:200;not null;index" json:"enterpriseName"`
	TaxpayerID    string `gorm:"size:20;uniqueIndex;not null" json:"taxpayerId"` // unified social credit code
	EntType       int    `gorm:"not null;default:1" json:"entType"`
	Address       string `gorm:"size:500" json:"address"`
	ContactPerson string `gorm:"size:50" json:"contactPerson"`
	ContactPhone  string `gorm:"size:20" json:"contactPhone"`
	BankName      string `gorm:"size:100" json:"bankName"`
	BankAccount   string `gorm:"size:50" json:"bankAccount"`
	Notes         string `gorm:"type:text" json:"notes"`
}
