// Package retryhttp builds the retrying HTTP client shared by the outbound adapters.
package retryhttp

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultRetries = 3
	retryWaitMin   = 200 * time.Millisecond
	retryWaitMax   = 5 * time.Second
)

// NewClient returns an *http.Client that retries connection errors and 5xx
// responses with exponential backoff. timeout bounds each attempt. Retry
// attempts are logged at debug level through logger.
func NewClient(timeout time.Duration, retries int, logger *slog.Logger) *http.Client {
	if retries < 0 {
		retries = defaultRetries
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = timeout
	rc.RetryMax = retries
	rc.RetryWaitMin = retryWaitMin
	rc.RetryWaitMax = retryWaitMax
	rc.Logger = leveled{logger}
	return rc.StandardClient()
}

// leveled adapts slog to retryablehttp.LeveledLogger, demoting the client's
// per-request chatter to debug.
type leveled struct {
	logger *slog.Logger
}

func (l leveled) Error(msg string, kv ...interface{}) { l.logger.Warn(msg, kv...) }
func (l leveled) Info(msg string, kv ...interface{})  { l.logger.Debug(msg, kv...) }
func (l leveled) Debug(msg string, kv ...interface{}) { l.logger.Debug(msg, kv...) }
func (l leveled) Warn(msg string, kv ...interface{})  { l.logger.Warn(msg, kv...) }

var _ retryablehttp.LeveledLogger = leveled{}
