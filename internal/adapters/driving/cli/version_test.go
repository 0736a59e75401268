package cli

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstore/internal/core/ports/driving"
)

func TestVersionCmd(t *testing.T) {
	old := version
	t.Cleanup(func() { version = old })

	tests := []struct {
		version string
		want    string
	}{
		{"dev", "docstore version dev\n"},
		{"1.4.0", "docstore version 1.4.0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			SetVersion(tt.version)
			out, err := execute(t, nil, "version")
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestVersionCmd_NeverOpensStore(t *testing.T) {
	clearServices(t)
	SetOpener(func(string) (driving.DocumentService, driving.MappingService, io.Closer, error) {
		t.Fatal("version opened the store")
		return nil, nil, nil, nil
	})

	_, err := execute(t, nil, "version")
	require.NoError(t, err)
}
