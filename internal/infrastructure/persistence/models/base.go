package models

import (
	"time"

	"github.com/contractiq/backend/internal/domain/report"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// OwnerModel records who owns a row. Exactly one of the two is used for
// scoping: rows in an organization workspace carry OrganizationID (and the
// uploading user), personal rows carry only UserID.
type OwnerModel struct {
	UserID         *uuid.UUID `gorm:"type:uuid;index"`
	OrganizationID *uuid.UUID `gorm:"type:uuid;index"`
}

// SetOwner assigns ownership from a tenant reference
func (m *OwnerModel) SetOwner(tenant report.TenantRef) {
	id := tenant.ID
	switch tenant.Kind {
	case report.TenantOrganization:
		m.OrganizationID = &id
	default:
		m.UserID = &id
		m.OrganizationID = nil
	}
}

// Owner returns the tenant the row is scoped to
func (m *OwnerModel) Owner() report.TenantRef {
	if m.OrganizationID != nil {
		return report.OrganizationTenant(*m.OrganizationID)
	}
	if m.UserID != nil {
		return report.UserTenant(*m.UserID)
	}
	return report.TenantRef{}
}
