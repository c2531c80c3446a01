// Package webhook POSTs sensor exposure notifications to operator endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/sensor-warning-map/internal/adapter/retryhttp"
	"github.com/couchcryptid/sensor-warning-map/internal/domain"
)

// Payload is the JSON body sent for each exposure.
type Payload struct {
	SensorID   int       `json:"sensor_id"`
	SensorName string    `json:"sensor_name"`
	Status     string    `json:"status"`
	Warning    string    `json:"warning"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewPayload builds the notification body for an exposure.
func NewPayload(e domain.Exposure) Payload {
	return Payload{
		SensorID:   e.SensorID,
		SensorName: e.SensorName,
		Status:     string(e.Status),
		Warning:    e.Warning,
		Timestamp:  e.Timestamp,
	}
}

// Notifier sends every exposure to every configured URL.
// It implements pipeline.BatchLoader.
type Notifier struct {
	urls       []string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewNotifier creates a notifier for urls. Each attempt is bounded by timeout
// and transient failures are retried.
func NewNotifier(urls []string, timeout time.Duration, logger *slog.Logger) *Notifier {
	return &Notifier{
		urls:       urls,
		httpClient: retryhttp.NewClient(timeout, 3, logger),
		logger:     logger,
	}
}

// LoadBatch delivers the exposures. It keeps going past individual failures
// and returns them joined.
func (n *Notifier) LoadBatch(ctx context.Context, exposures []domain.Exposure) error {
	var errs []error
	for _, e := range exposures {
		body, err := json.Marshal(NewPayload(e))
		if err != nil {
			return fmt.Errorf("serialize webhook payload: %w", err)
		}
		for _, url := range n.urls {
			if err := n.post(ctx, url, body); err != nil {
				n.logger.Warn("webhook delivery failed", "url", url, "sensor_id", e.SensorID, "error", err)
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook %s responded with status %d", url, resp.StatusCode)
	}
	return nil
}
