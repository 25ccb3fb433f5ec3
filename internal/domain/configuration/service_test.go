package configuration

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreError_Unwrap(t *testing.T) {
	timeout := errors.New("timeout")
	var err error = StoreError{Key: MockKey, Underlying: timeout}
	assert.True(t, errors.Is(err, timeout))
	assert.Equal(t, timeout, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "app/dev/db")
}

func TestErrors_Messages(t *testing.T) {
	version := Version("v2")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", NotFound{Key: MockKey}, "Configuration not found: [app/dev/db]"},
		{"version not found", NotFound{Key: MockKey, Version: &version}, "Configuration not found: [app/dev/db] version [v2]"},
		{"conflict", VersionConflict{Key: MockKey, Expected: "latest", Actual: "v1"}, "Version conflict for [app/dev/db]: expected [latest], actual [v1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
