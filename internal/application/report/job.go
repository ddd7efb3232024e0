package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/contractiq/backend/internal/domain/report"
	"github.com/contractiq/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// GenerateJob is the input of a scheduled or background report run:
//
//	{"tenantRef": {"kind": "organization", "id": "..."}, "periodKey": "custom",
//	 "customStart": "2024-03-01T00:00:00Z", "customEnd": "2024-03-31T23:59:59Z"}
type GenerateJob struct {
	TenantRef   report.TenantRef `json:"tenantRef"`
	PeriodKey   string           `json:"periodKey"`
	CustomStart *time.Time       `json:"customStart,omitempty"`
	CustomEnd   *time.Time       `json:"customEnd,omitempty"`
}

// DecodeGenerateJob reads one job from r. Unknown fields are rejected.
func DecodeGenerateJob(r io.Reader) (GenerateJob, error) {
	var job GenerateJob
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&job); err != nil {
		return GenerateJob{}, shared.ErrInvalidInput.WithMessage("malformed job: " + err.Error())
	}
	return job, nil
}

// ParseTenantRef parses "user:<uuid>" or "organization:<uuid>"
func ParseTenantRef(s string) (report.TenantRef, error) {
	kind, id, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return report.TenantRef{}, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("tenant %q: expected kind:id", s))
	}
	tenant := report.TenantRef{Kind: report.TenantKind(kind)}
	if err := validateTenantKind(tenant.Kind); err != nil {
		return report.TenantRef{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return report.TenantRef{}, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("tenant %q: invalid id", s))
	}
	tenant.ID = parsed
	return tenant, nil
}

func validateTenantKind(kind report.TenantKind) error {
	switch kind {
	case report.TenantUser, report.TenantOrganization:
		return nil
	}
	return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown tenant kind %q", kind))
}

// WindowRequest validates the job's tenant and converts its window selector
func (j GenerateJob) WindowRequest() (report.WindowRequest, error) {
	if err := validateTenantKind(j.TenantRef.Kind); err != nil {
		return report.WindowRequest{}, err
	}
	period, err := report.ParsePeriodKey(j.PeriodKey)
	if err != nil {
		return report.WindowRequest{}, err
	}
	return report.WindowRequest{Period: period, Start: j.CustomStart, End: j.CustomEnd}, nil
}

// RunJob generates the aggregate a job describes
func (s *ReportAggregateService) RunJob(ctx context.Context, job GenerateJob) (*ReportAggregateResponse, error) {
	req, err := job.WindowRequest()
	if err != nil {
		return nil, err
	}
	return s.Generate(ctx, job.TenantRef, req)
}
