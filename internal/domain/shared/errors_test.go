package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := ErrInvalidWindow.WithMessage("start must not be after end")

	assert.Equal(t, "start must not be after end", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidWindow))
	assert.False(t, errors.Is(err, ErrInvalidInput))

	wrapped := fmt.Errorf("generate report: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInvalidWindow))

	var domainErr *DomainError
	assert.True(t, errors.As(wrapped, &domainErr))
	assert.Equal(t, "INVALID_WINDOW", domainErr.Code)
}

func TestDomainError_Wrap(t *testing.T) {
	err := ErrReportTimeout.Wrap(context.DeadlineExceeded)

	assert.True(t, errors.Is(err, ErrReportTimeout))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, ErrReportTimeout.Message, err.Error())
	assert.Nil(t, ErrReportTimeout.Unwrap())
}
