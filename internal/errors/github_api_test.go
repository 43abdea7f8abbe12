package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/dest-ash/bnncache/internal/logging"
	"github.com/dest-ash/bnncache/internal/utils"
)

func TestClassifyFetchError(t *testing.T) {
	logger := &logging.NoOpLogger{}

	tests := []struct {
		name      string
		status    int
		wantCode  string
		retryable bool
	}{
		{"forbidden is transient", 403, utils.ErrCodeFetchFailed, true},
		{"not found is transient", 404, utils.ErrCodeFetchFailed, true},
		{"unauthorized", 401, utils.ErrCodeAuthRequired, false},
		{"rate limited", 429, utils.ErrCodeRateLimited, false},
		{"server error", 502, utils.ErrCodeNetworkError, false},
		{"client error", 410, utils.ErrCodeFetchFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyFetchError(tt.status, "https://example.com/f", "trace-1", logger)
			if got := utils.ErrorCode(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
			if got := utils.IsRetryable(err); got != tt.retryable {
				t.Errorf("retryable = %v, want %v", got, tt.retryable)
			}
			if got := utils.HTTPStatus(err); got != tt.status {
				t.Errorf("status = %d, want %d", got, tt.status)
			}
		})
	}
}

func TestClassifyListingError(t *testing.T) {
	logger := &logging.NoOpLogger{}

	err := ClassifyListingError(500, "https://example.com/d", "trace-2", logger)
	if utils.ErrorCode(err) != utils.ErrCodeListingFailed {
		t.Errorf("code = %q, want %q", utils.ErrorCode(err), utils.ErrCodeListingFailed)
	}
	if utils.IsRetryable(err) {
		t.Error("listing errors should not be retryable")
	}

	err = ClassifyListingError(404, "https://example.com/d", "trace-2", logger)
	if utils.ErrorCode(err) != utils.ErrCodeFileNotFound {
		t.Errorf("code = %q, want %q", utils.ErrorCode(err), utils.ErrCodeFileNotFound)
	}
}

func TestClassifyTransportError(t *testing.T) {
	logger := &logging.NoOpLogger{}

	err := ClassifyTransportError(errors.New("connection refused"), "https://example.com", "t", logger)
	if utils.ErrorCode(err) != utils.ErrCodeNetworkError {
		t.Errorf("code = %q, want %q", utils.ErrorCode(err), utils.ErrCodeNetworkError)
	}
	if !utils.IsRetryable(err) {
		t.Error("transport errors should be retryable")
	}

	err = ClassifyTransportError(context.DeadlineExceeded, "https://example.com", "t", logger)
	if utils.ErrorCode(err) != utils.ErrCodeTimeout {
		t.Errorf("code = %q, want %q", utils.ErrorCode(err), utils.ErrCodeTimeout)
	}
}
