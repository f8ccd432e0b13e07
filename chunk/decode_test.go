package chunk

import (
	"testing"

	"github.com/hellobertrand/zxc/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSectionsAccepts(t *testing.T) {
	payload := make([]byte, 10)

	err := validateSections(payload, 2, 3, 5)
	require.NoError(t, err)
}

func TestValidateSectionsRejectsOverflow(t *testing.T) {
	payload := make([]byte, 10)

	err := validateSections(payload, 2, 3, 6)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrSrcTooSmall)
}

func TestValidateSectionsRejectsNegativeSize(t *testing.T) {
	payload := make([]byte, 10)

	err := validateSections(payload, 0, -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrCorruptData)
}

func TestValidateSectionsStopsAtFirstOverflow(t *testing.T) {
	payload := make([]byte, 4)

	err := validateSections(payload, 0, 2, 2, 100)
	require.Error(t, err)

	err = validateSections(payload, 0, 2, 3)
	require.Error(t, err)
}
