package sweep

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatusCodes(t *testing.T) {
	assert.ErrorIs(t, Classify(forbiddenErr()), ErrPermissionDenied)
	assert.ErrorIs(t, Classify(notFoundErr()), ErrAssetNotFound)
	assert.NoError(t, Classify(nil))
}

func TestClassifyUnwrapsNestedResponseErrors(t *testing.T) {
	wrapped := fmt.Errorf("listing secrets: %w", forbiddenErr())
	assert.ErrorIs(t, Classify(wrapped), ErrPermissionDenied)
}

func TestClassifyLeavesUnknownErrorsAlone(t *testing.T) {
	err := errors.New("dial tcp: connection refused")
	assert.Equal(t, err, Classify(err))
}

func TestIsPermissionDenied(t *testing.T) {
	assert.True(t, IsPermissionDenied(forbiddenErr()))
	assert.False(t, IsPermissionDenied(notFoundErr()))
	assert.False(t, IsPermissionDenied(nil))
}
