package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:   "valid sqlite config",
			config: Config{Backend: BackendSQLite, Project: DefaultProject},
		},
		{
			name:   "valid snapshot config",
			config: Config{Backend: BackendSnapshot, DataDir: "/tmp/sf", Project: "P1"},
		},
		{
			name:    "empty backend",
			config:  Config{Project: "P1"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend",
			config:  Config{Backend: "dynamo", Project: "P1"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "empty project",
			config:  Config{Backend: BackendSQLite},
			wantErr: ErrProjectEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
