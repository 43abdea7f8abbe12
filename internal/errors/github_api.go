package errors

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/dest-ash/bnncache/internal/logging"
	"github.com/dest-ash/bnncache/internal/utils"
)

// ClassifyListingError maps a failed directory listing request to a
// stable error code. Listing failures are never retried in-run; the
// subtree is skipped instead.
func ClassifyListingError(status int, url string, traceID string, logger logging.Logger) error {
	code := utils.ErrCodeListingFailed
	switch status {
	case 401:
		code = utils.ErrCodeAuthRequired
	case 404:
		code = utils.ErrCodeFileNotFound
	}

	logger.Error("Listing request failed",
		logging.F("httpStatus", status),
		logging.F("errorCode", code),
		logging.F("url", url),
		logging.F("traceId", traceID),
	)

	return utils.NewAppError(utils.NewCLIError(code, fmt.Sprintf("listing %s returned HTTP %d", url, status)).
		WithHTTPStatus(status).
		WithRetryable(false).
		WithContext("url", url).
		WithContext("traceId", traceID).
		Build())
}

// ClassifyFetchError maps a failed file download to a stable error
// code. Only 403 and 404 are marked retryable: both are transient on
// the raw host while large objects propagate. Every other status
// fails the file outright.
func ClassifyFetchError(status int, url string, traceID string, logger logging.Logger) error {
	retryable := utils.RetryableFetchStatuses[status]

	var code string
	switch {
	case status == 401:
		code = utils.ErrCodeAuthRequired
	case status == 429:
		code = utils.ErrCodeRateLimited
	case status >= 500:
		code = utils.ErrCodeNetworkError
	default:
		code = utils.ErrCodeFetchFailed
	}

	logger.Warn("Fetch request failed",
		logging.F("httpStatus", status),
		logging.F("errorCode", code),
		logging.F("retryable", retryable),
		logging.F("url", url),
		logging.F("traceId", traceID),
	)

	return utils.NewAppError(utils.NewCLIError(code, fmt.Sprintf("fetching %s returned HTTP %d", url, status)).
		WithHTTPStatus(status).
		WithRetryable(retryable).
		WithContext("url", url).
		WithContext("traceId", traceID).
		Build())
}

// ClassifyTransportError wraps a connection-level failure. Transport
// errors are always retryable; timeouts get their own code so the exit
// status distinguishes them.
func ClassifyTransportError(err error, url string, traceID string, logger logging.Logger) error {
	code := utils.ErrCodeNetworkError
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		code = utils.ErrCodeTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		code = utils.ErrCodeTimeout
	}

	logger.Warn("Transport error",
		logging.F("errorCode", code),
		logging.F("error", err.Error()),
		logging.F("url", url),
		logging.F("traceId", traceID),
	)

	return utils.NewAppError(utils.NewCLIError(code, err.Error()).
		WithRetryable(true).
		WithContext("url", url).
		WithContext("traceId", traceID).
		Build())
}
