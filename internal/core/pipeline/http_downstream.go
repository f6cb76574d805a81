package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/rx-intake/internal/common"
	"github.com/joseph-ayodele/rx-intake/internal/entity"
)

// HTTPDownstream posts accepted records as JSON to an ERP intake endpoint.
// The endpoint answers with {"prescription_id": "...", "quote_id": "..."}.
type HTTPDownstream struct {
	URL     string
	Headers map[string]string
	Client  *http.Client
	Logger  *slog.Logger
}

// NewHTTPDownstream returns a downstream with a client bounded by timeout.
func NewHTTPDownstream(url string, timeout time.Duration, headers map[string]string, logger *slog.Logger) *HTTPDownstream {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPDownstream{
		URL:     url,
		Headers: headers,
		Client:  &http.Client{Timeout: timeout},
		Logger:  logger,
	}
}

type downstreamResponse struct {
	PrescriptionID string `json:"prescription_id"`
	QuoteID        string `json:"quote_id"`
}

func (d *HTTPDownstream) Submit(ctx context.Context, record entity.ValidatedRecord) (Receipt, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	ctx, reqID := common.EnsureRequestID(ctx)
	start := time.Now()

	bs, err := json.Marshal(record)
	if err != nil {
		return Receipt{}, fmt.Errorf("encode record: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(bs))
	if err != nil {
		return Receipt{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	for k, v := range d.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("downstream request failed", "request_id", reqID, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return Receipt{}, fmt.Errorf("post %s: %w", d.URL, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger.Warn("failed to close downstream response body", "request_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	logger.Info("downstream response",
		"request_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode/100 != 2 {
		return Receipt{}, fmt.Errorf("downstream returned status %d", resp.StatusCode)
	}

	var out downstreamResponse
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return Receipt{}, fmt.Errorf("decode downstream response: %w", err)
		}
	}
	return Receipt{PrescriptionID: out.PrescriptionID, QuoteID: out.QuoteID}, nil
}
