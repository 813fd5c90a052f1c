package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("DUEFLOW_TEST_DIR", "/var/lib/dueflow")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain", in: "/tmp/dueflow.db", want: "/tmp/dueflow.db"},
		{name: "tilde prefix", in: "~/data/dueflow.db", want: filepath.Join(home, "data", "dueflow.db")},
		{name: "bare tilde", in: "~", want: home},
		{name: "env var", in: "$DUEFLOW_TEST_DIR/dueflow.db", want: "/var/lib/dueflow/dueflow.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}
