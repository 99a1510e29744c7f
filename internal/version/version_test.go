package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVersionGreaterThan(t *testing.T) {
	tests := []struct {
		version string
		target  string
		want    bool
	}{
		{"0.3.2", "0.3.1", true},
		{"0.3.1", "0.3.1", false},
		{"0.2.9", "0.3.0", false},
		{"1.0.0", "0.9.9", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsVersionGreaterThan(tt.version, tt.target), "%s > %s", tt.version, tt.target)
	}
}

func TestIsVersionGreaterOrEqualThan(t *testing.T) {
	assert.True(t, IsVersionGreaterOrEqualThan("0.3.1", "0.3.1"))
	assert.True(t, IsVersionGreaterOrEqualThan("0.3.2", "0.3.1"))
	assert.False(t, IsVersionGreaterOrEqualThan("0.3.0", "0.3.1"))
}

func TestGetMinorVersion(t *testing.T) {
	assert.Equal(t, "0.3", GetMinorVersion("0.3.2"))
	assert.Equal(t, "", GetMinorVersion("7"))
}
