package archive

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/lab-report-tracker/internal/common"
	"github.com/joseph-ayodele/lab-report-tracker/internal/entity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTestDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.jpg")
	require.NoError(t, os.WriteFile(path, []byte("fake jpeg bytes"), 0o644))
	return path
}

func TestClientUpload(t *testing.T) {
	var (
		gotAuth     string
		gotTitle    string
		gotDocument []byte
		gotCorresp  string
		gotTags     []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/post_document/", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotTitle = r.FormValue("title")
		gotCorresp = r.FormValue("correspondent")
		gotTags = r.MultipartForm.Value["tags"]

		file, _, err := r.FormFile("document")
		require.NoError(t, err)
		defer file.Close()
		gotDocument, err = io.ReadAll(file)
		require.NoError(t, err)

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL:         srv.URL,
		APIToken:        "archive-token",
		CorrespondentID: 7,
		TagIDs:          []int{3, 12},
	}, discardLogger())

	err := client.Upload(context.Background(), UploadRequest{
		DocumentPath:   writeTestDocument(t),
		PatientName:    "Jane Roe",
		HospitalName:   "City Hospital",
		CollectionDate: "08-11-2025 03:17 PM",
		Report: &entity.LabReport{
			HospitalInfo: entity.HospitalInfo{Name: "City Hospital", ReportType: "Biochemistry"},
			PatientInfo:  entity.PatientInfo{Name: "Jane Roe", ID: "MRN-42"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Token archive-token", gotAuth)
	assert.Equal(t, []byte("fake jpeg bytes"), gotDocument)
	assert.Equal(t, "7", gotCorresp)
	assert.Equal(t, []string{"3", "12"}, gotTags)
	assert.Contains(t, gotTitle, "Medical Report - Jane Roe - City Hospital - 08-11-2025 03:17 PM")
	assert.Contains(t, gotTitle, "Patient ID: MRN-42")
	assert.Contains(t, gotTitle, "Report Type: Biochemistry")
}

func TestClientUploadServerErrorIsBestEffort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "archive unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIToken: "archive-token"}, discardLogger())

	err := client.Upload(context.Background(), UploadRequest{
		DocumentPath: writeTestDocument(t),
		PatientName:  "Jane Roe",
	})
	require.Error(t, err)
	assert.Equal(t, common.KindBestEffort, common.KindOf(err))
	assert.Equal(t, "ARCHIVE_STATUS", common.CodeOf(err))
}

func TestClientUploadMissingDocumentIsBestEffort(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", APIToken: "archive-token"}, discardLogger())

	err := client.Upload(context.Background(), UploadRequest{DocumentPath: "/nonexistent/report.jpg"})
	require.Error(t, err)
	assert.Equal(t, "ARCHIVE_READ", common.CodeOf(err))
}
