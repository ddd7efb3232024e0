package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/contractiq/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationQuery struct {
	Period    string `form:"period" binding:"omitempty,period_key"`
	StartDate string `form:"start_date" binding:"omitempty,isodate"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		var q validationQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func TestHandleValidationError(t *testing.T) {
	router := newValidationRouter()

	t.Run("reports each invalid field by its form name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test?period=decade&start_date=03/01/2024", nil)
		req.Header.Set(RequestIDKey, "req-validation")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-validation", resp.Error.RequestID)
		assert.ElementsMatch(t, []dto.ValidationDetail{
			{Field: "period", Message: "Must be one of: week month quarter year custom"},
			{Field: "start_date", Message: "Must be a date in YYYY-MM-DD format"},
		}, resp.Error.Details)
	})

	t.Run("accepts valid and omitted fields", func(t *testing.T) {
		for _, query := range []string{"", "?period=week", "?period=Quarter", "?start_date=2024-02-29"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test"+query, nil))
			assert.Equal(t, http.StatusOK, w.Code, query)
		}
	})
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}
