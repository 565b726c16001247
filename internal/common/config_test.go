package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigArchiveTagIDs(t *testing.T) {
	t.Setenv("ARCHIVE_TAG_IDS", "3, 7,12")
	cfg := LoadConfig()
	assert.Equal(t, []int{3, 7, 12}, cfg.Archive.TagIDs)
}

func TestLoadConfigArchiveTagIDsMalformed(t *testing.T) {
	t.Setenv("ARCHIVE_TAG_IDS", "3,x")
	cfg := LoadConfig()
	assert.Nil(t, cfg.Archive.TagIDs)
}

func TestLoadConfigArchiveTagIDsUnset(t *testing.T) {
	t.Setenv("ARCHIVE_TAG_IDS", "")
	cfg := LoadConfig()
	assert.Nil(t, cfg.Archive.TagIDs)
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "UPLOAD_DIR", "EXTRACTION_TIMEOUT", "WORKER_MAX_RETRIES"} {
		t.Setenv(key, "")
	}
	cfg := LoadConfig()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "uploads", cfg.Upload.Dir)
	assert.Equal(t, 45*time.Second, cfg.Extraction.Timeout)
	assert.Equal(t, 3, cfg.Worker.MaxRetries)
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{}
	cfg.Database.DSN = "postgres://localhost/labs"
	cfg.Extraction.APIKey = "key"
	assert.NoError(t, cfg.Validate())

	cfg.Archive.BaseURL = "https://paperless.local"
	assert.Error(t, cfg.Validate(), "archive URL without token must fail")

	cfg.Archive.APIToken = "token"
	assert.NoError(t, cfg.Validate())

	cfg.Database.DSN = ""
	assert.Error(t, cfg.Validate())
}
