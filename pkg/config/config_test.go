package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Extra string `yaml:"extra"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}

	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("CONFIG_TEST_NAME", "bridge")

	tests := []struct {
		name    string
		content string
		want    sample
		wantErr string
	}{
		{
			name:    "expands env and keeps defaults",
			content: "name: ${CONFIG_TEST_NAME}\nport: 9000\n",
			want:    sample{Name: "bridge", Port: 9000, Extra: "default"},
		},
		{
			name:    "invalid yaml",
			content: "name: [unterminated\n",
			wantErr: "parse",
		},
		{
			name:    "validation",
			content: "port: 0\n",
			wantErr: "port must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sample{Extra: "default"}

			err := Load(writeFile(t, tt.content), &got)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var s sample

	err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &s)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOptional(t *testing.T) {
	s := sample{Port: 1}
	require.NoError(t, LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &s))

	s = sample{}
	require.Error(t, LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &s))

	require.NoError(t, LoadOptional(writeFile(t, "port: 3\n"), &s))
	assert.Equal(t, 3, s.Port)
}

func TestMustLoad(t *testing.T) {
	var s sample

	assert.Panics(t, func() { MustLoad(writeFile(t, "port: -1\n"), &s) })
	assert.NotPanics(t, func() { MustLoad(writeFile(t, "port: 1\n"), &s) })
}
