package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindRetryable, KindOf(Retryable("X", "x", nil)))
	assert.Equal(t, KindNonRetryable, KindOf(NonRetryable("X", "x", nil)))
	assert.Equal(t, KindValidation, KindOf(Validation("X", "x")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("X", "x")))
	assert.Equal(t, KindConflict, KindOf(Conflict("X", "x")))
	assert.Equal(t, KindBestEffort, KindOf(BestEffort("X", "x", nil)))

	// Untagged errors default to retryable.
	assert.Equal(t, KindRetryable, KindOf(errors.New("boom")))
}

func TestKindOfWrapped(t *testing.T) {
	inner := NonRetryable("DATE_UNPARSEABLE", "bad date", nil)
	wrapped := fmt.Errorf("process task: %w", inner)

	assert.Equal(t, KindNonRetryable, KindOf(wrapped))
	assert.Equal(t, "DATE_UNPARSEABLE", CodeOf(wrapped))
}

func TestAppErrorMessage(t *testing.T) {
	err := NonRetryable("FILE_MISSING", "file not found", errors.New("stat failed"))
	assert.Equal(t, "FILE_MISSING: file not found: stat failed", err.Error())
	assert.EqualError(t, errors.Unwrap(err), "stat failed")

	bare := Validation("NAME_EMPTY", "name must not be empty")
	assert.Equal(t, "NAME_EMPTY: name must not be empty", bare.Error())
}

func TestCodeOfUntagged(t *testing.T) {
	assert.Equal(t, "", CodeOf(errors.New("boom")))
}
