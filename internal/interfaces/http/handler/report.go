package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	reportapp "github.com/contractiq/backend/internal/application/report"
	"github.com/contractiq/backend/internal/domain/report"
	"github.com/contractiq/backend/internal/domain/shared"
	"github.com/contractiq/backend/internal/domain/usage"
	"github.com/contractiq/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ReportGenerator produces report aggregates for a tenant
type ReportGenerator interface {
	Generate(ctx context.Context, tenant report.TenantRef, req report.WindowRequest) (*reportapp.ReportAggregateResponse, error)
}

// UsageRecorder appends usage events without blocking the request
type UsageRecorder interface {
	Record(tenant report.TenantRef, action string, metadata map[string]any) bool
}

// ReportHandler handles report-related API endpoints
type ReportHandler struct {
	BaseHandler
	service        ReportGenerator
	recorder       UsageRecorder
	requestTimeout time.Duration
	location       *time.Location
}

// NewReportHandler creates a new ReportHandler. recorder may be nil.
func NewReportHandler(service ReportGenerator, recorder UsageRecorder, requestTimeout time.Duration) *ReportHandler {
	return &ReportHandler{
		service:        service,
		recorder:       recorder,
		requestTimeout: requestTimeout,
		location:       time.Local,
	}
}

// ReportAggregateQuery is the query string of GET /reports/aggregate
type ReportAggregateQuery struct {
	Period    string `form:"period" binding:"omitempty,period_key" example:"month"`
	StartDate string `form:"start_date" binding:"omitempty,isodate" example:"2024-03-01"`
	EndDate   string `form:"end_date" binding:"omitempty,isodate" example:"2024-03-31"`
}

// GetAggregate godoc
// @Summary      Get report aggregate
// @Description  Contracts, analyses, cost, risk and usage for the caller's tenant over one window
// @Tags         reports
// @Produce      json
// @Param        period query string false "week, month, quarter, year or custom" default(month)
// @Param        start_date query string false "Custom window start (YYYY-MM-DD)"
// @Param        end_date query string false "Custom window end (YYYY-MM-DD), inclusive"
// @Success      200 {object} dto.Response{data=reportapp.ReportAggregateResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      504 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reports/aggregate [get]
func (h *ReportHandler) GetAggregate(c *gin.Context) {
	tenant, ok := middleware.GetTenant(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var query ReportAggregateQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	req, err := h.windowRequest(query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	ctx := c.Request.Context()
	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}

	resp, err := h.service.Generate(ctx, tenant, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if h.recorder != nil {
		h.recorder.Record(tenant, usage.ActionReportGenerated, map[string]any{
			"period": resp.Window.Period,
		})
	}
	h.Success(c, resp)
}

// windowRequest converts the query to a WindowRequest. Dates are read in the
// handler's location and end_date covers the whole day. Dates without a
// period select a custom window; dates with any other period are rejected.
func (h *ReportHandler) windowRequest(q ReportAggregateQuery) (report.WindowRequest, error) {
	hasDates := q.StartDate != "" || q.EndDate != ""
	if hasDates && strings.TrimSpace(q.Period) == "" {
		q.Period = string(report.PeriodCustom)
	}
	period, err := report.ParsePeriodKey(q.Period)
	if err != nil {
		return report.WindowRequest{}, err
	}
	if hasDates && period != report.PeriodCustom {
		return report.WindowRequest{}, shared.ErrInvalidInput.WithMessage(
			fmt.Sprintf("start_date and end_date require period=custom, got period=%s", period))
	}
	req := report.WindowRequest{Period: period}

	if q.StartDate != "" {
		start, err := time.ParseInLocation(middleware.DateLayout, q.StartDate, h.location)
		if err != nil {
			return report.WindowRequest{}, shared.ErrInvalidWindow.WithMessage("start_date: expected YYYY-MM-DD")
		}
		req.Start = &start
	}
	if q.EndDate != "" {
		end, err := time.ParseInLocation(middleware.DateLayout, q.EndDate, h.location)
		if err != nil {
			return report.WindowRequest{}, shared.ErrInvalidWindow.WithMessage("end_date: expected YYYY-MM-DD")
		}
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		req.End = &end
	}
	return req, nil
}
