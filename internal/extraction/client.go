package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lab-report-tracker/internal/common"
	"github.com/joseph-ayodele/lab-report-tracker/internal/entity"
)

// Config for the extraction client.
type Config struct {
	APIKey      string  // if empty, falls back to env EXTRACTION_API_KEY
	BaseURL     string  // default https://api.openai.com/v1
	Model       string  // vision-capable completion model
	Temperature float32 // 0..2
	Timeout     time.Duration
}

// Client calls an external vision-capable completion service and normalizes
// its output into a LabReport. Implements ReportExtractor.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("EXTRACTION_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Extract sends the report image plus the fixed extraction prompt to the
// vision service and returns the normalized report.
//
// Error classification: a missing file and an unparseable response are
// non-retryable (defective input); transport and service-level failures are
// retryable.
func (c *Client) Extract(ctx context.Context, filePath string) (*entity.LabReport, error) {
	rid := uuid.New().String()
	start := time.Now()

	dataURL, err := readAsDataURL(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.Error("extract.file_missing", "req_id", rid, "path", filePath)
			return nil, common.NonRetryable("FILE_MISSING", "file not found: "+filePath, err)
		}
		return nil, common.Retryable("FILE_READ", "failed to read file", err)
	}

	c.logger.Info("extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"path", filePath,
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": extractionPrompt},
					{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
				},
			},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.Retryable("EXTRACTION_TRANSPORT", "extraction service call failed", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("extract.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return nil, common.NonRetryable("EXTRACTION_DECODE", "decode completion response", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("extract.no_choices", "req_id", rid, "raw", string(raw))
		return nil, common.NonRetryable("EXTRACTION_DECODE", "no choices in completion response", nil)
	}

	content, err := ExtractJSONObject(cc.Choices[0].Message.Content)
	if err != nil {
		c.logger.Error("extract.no_json", "req_id", rid, "error", err)
		return nil, common.NonRetryable("EXTRACTION_DECODE", "response carries no JSON object", err)
	}

	payload := []byte(content)
	if err := json.Unmarshal(payload, new(map[string]any)); err != nil {
		c.logger.Error("extract.invalid_json", "req_id", rid, "error", err, "content", truncate(content, 200))
		return nil, common.NonRetryable("EXTRACTION_DECODE", "response is not valid JSON", err)
	}

	if err := ValidateJSONAgainstSchema(BuildLabReportJSONSchema(), payload); err != nil {
		c.logger.Error("extract.schema_validation_failed", "req_id", rid, "error", err, "content", truncate(content, 200))
		return nil, common.NonRetryable("EXTRACTION_SCHEMA", "response does not match lab report schema", err)
	}

	report, err := NormalizeReport(payload, c.logger)
	if err != nil {
		c.logger.Error("extract.normalize_failed", "req_id", rid, "error", err)
		return nil, common.NonRetryable("EXTRACTION_SCHEMA", "normalize report", err)
	}

	c.logger.Info("extract.ok",
		"req_id", rid,
		"hospital", report.HospitalInfo.Name,
		"patient", report.PatientInfo.Name,
		"sample_date", report.PatientInfo.SampleDate,
		"test_results", len(report.TestResults),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn("extraction response body close error", "error", err)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("extraction status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
