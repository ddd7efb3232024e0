package models

import (
	"github.com/contractiq/backend/internal/domain/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContractModel is an uploaded contract. Rows are written by the upload
// pipeline; this service only reads them.
type ContractModel struct {
	BaseModel
	OwnerModel
	FileName     string         `gorm:"type:varchar(255);not null"`
	ContractType string         `gorm:"type:varchar(64)"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// ToRecord converts the model to the report read model
func (m *ContractModel) ToRecord() report.ContractRecord {
	return report.ContractRecord{
		ID:           m.ID,
		FileName:     m.FileName,
		ContractType: m.ContractType,
		CreatedAt:    m.CreatedAt,
	}
}

// AnalysisModel is one AI analysis run over a contract. Metric columns are
// nullable because failed or in-flight runs do not report them.
type AnalysisModel struct {
	BaseModel
	ContractID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	Status           string           `gorm:"type:varchar(20);not null;index"`
	ProcessingTimeMs *int64           `gorm:"type:bigint"`
	ConfidenceScore  *float64         `gorm:"type:double precision"`
	EstimatedCost    *decimal.Decimal `gorm:"type:decimal(18,6)"`
	TokensUsed       *int64           `gorm:"type:bigint"`
	RiskPayload      datatypes.JSON   `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (AnalysisModel) TableName() string {
	return "contract_analyses"
}

// ToRef converts the model to the minimal reference shown on a contract
func (m *AnalysisModel) ToRef() *report.AnalysisRef {
	return &report.AnalysisRef{
		ID:        m.ID,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
}
