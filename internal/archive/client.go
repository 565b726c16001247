package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/lab-report-tracker/internal/common"
	"github.com/joseph-ayodele/lab-report-tracker/internal/entity"
)

// DocumentArchiver is the interface the processing pipeline depends on.
// Archival is best-effort: callers log failures and continue.
type DocumentArchiver interface {
	Upload(ctx context.Context, req UploadRequest) error
}

// UploadRequest carries the source document and the extracted metadata used
// to build a searchable title.
type UploadRequest struct {
	DocumentPath   string
	PatientName    string
	HospitalName   string
	CollectionDate string
	Report         *entity.LabReport
}

// Config for the archive client.
type Config struct {
	BaseURL         string
	APIToken        string
	Timeout         time.Duration
	CorrespondentID int
	DocumentTypeID  int
	TagIDs          []int
}

// Client uploads documents to a Paperless-style archive over authenticated
// HTTP multipart POST.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
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

func (c *Client) Upload(ctx context.Context, req UploadRequest) error {
	data, err := os.ReadFile(req.DocumentPath)
	if err != nil {
		return common.BestEffort("ARCHIVE_READ", "read document", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("document", filepath.Base(req.DocumentPath))
	if err != nil {
		return common.BestEffort("ARCHIVE_ENCODE", "create form file", err)
	}
	if _, err := part.Write(data); err != nil {
		return common.BestEffort("ARCHIVE_ENCODE", "write form file", err)
	}

	if err := w.WriteField("title", c.buildTitle(req)); err != nil {
		return common.BestEffort("ARCHIVE_ENCODE", "write title field", err)
	}
	if c.cfg.CorrespondentID > 0 {
		if err := w.WriteField("correspondent", strconv.Itoa(c.cfg.CorrespondentID)); err != nil {
			return common.BestEffort("ARCHIVE_ENCODE", "write correspondent field", err)
		}
	}
	if c.cfg.DocumentTypeID > 0 {
		if err := w.WriteField("document_type", strconv.Itoa(c.cfg.DocumentTypeID)); err != nil {
			return common.BestEffort("ARCHIVE_ENCODE", "write document_type field", err)
		}
	}
	for _, tag := range c.cfg.TagIDs {
		if err := w.WriteField("tags", strconv.Itoa(tag)); err != nil {
			return common.BestEffort("ARCHIVE_ENCODE", "write tags field", err)
		}
	}
	if err := w.Close(); err != nil {
		return common.BestEffort("ARCHIVE_ENCODE", "close multipart writer", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/documents/post_document/"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return common.BestEffort("ARCHIVE_REQUEST", "build request", err)
	}
	httpReq.Header.Set("Authorization", "Token "+c.cfg.APIToken)
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	c.logger.Info("archive.upload.start",
		"document", filepath.Base(req.DocumentPath),
		"patient", req.PatientName,
		"hospital", req.HospitalName,
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return common.BestEffort("ARCHIVE_TRANSPORT", "archive service call failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return common.BestEffort("ARCHIVE_STATUS",
			fmt.Sprintf("archive status %d: %s", resp.StatusCode, string(body)), nil)
	}

	c.logger.Info("archive.upload.ok", "document", filepath.Base(req.DocumentPath))
	return nil
}

// buildTitle composes a search-friendly title embedding patient, hospital,
// date, and the key extracted identifiers.
func (c *Client) buildTitle(req UploadRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Medical Report - %s - %s - %s", req.PatientName, req.HospitalName, req.CollectionDate)
	fmt.Fprintf(&b, "\n\nPatient: %s\nHospital: %s\nDate: %s", req.PatientName, req.HospitalName, req.CollectionDate)
	if req.Report != nil {
		if id := req.Report.PatientInfo.ID; id != "" {
			fmt.Fprintf(&b, "\nPatient ID: %s", id)
		}
		if rt := req.Report.HospitalInfo.ReportType; rt != "" {
			fmt.Fprintf(&b, "\nReport Type: %s", rt)
		}
	}
	return b.String()
}
