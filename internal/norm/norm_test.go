package norm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/labeltagctl/internal/apperr"
)

func TestRequireNonEmpty(t *testing.T) {
	v, err := RequireNonEmpty("shipToName", "  Acme Co  ")
	require.NoError(t, err)
	assert.Equal(t, "Acme Co", v)

	_, err = RequireNonEmpty("shipToName", "   ")
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.ExitValidation, appErr.ExitCode)
}

func TestIntOrDefault(t *testing.T) {
	assert.Equal(t, 42, IntOrDefault("42", 0))
	assert.Equal(t, 7, IntOrDefault("", 7))
	assert.Equal(t, 7, IntOrDefault("not-a-number", 7))
}

func TestStripLeadingZeros(t *testing.T) {
	assert.Equal(t, "123", StripLeadingZeros("000123"))
	assert.Equal(t, "0", StripLeadingZeros("0000"))
	assert.Equal(t, "0", StripLeadingZeros(""))
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "10048500205641000", DigitsOnly("1004-8500-2056-41000"))
}

func TestOptionalStagingLocation(t *testing.T) {
	assert.Nil(t, OptionalStagingLocation("   "))
	require.NotNil(t, OptionalStagingLocation(" rossi "))
	assert.Equal(t, "ROSSI", *OptionalStagingLocation(" rossi "))
}
