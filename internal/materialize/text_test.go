package materialize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteText_roundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "hasil.txt")
	text := "| A | B |\r\n|---|---|\nbaris tanpa newline di akhir ✓"

	require.NoError(t, WriteText(path, text))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, text, string(got))
}

func TestAvailablePath(t *testing.T) {
	base := filepath.Join(t.TempDir(), "laporan_parsed")

	first := AvailablePath(base, "xlsx")
	assert.Equal(t, base+".xlsx", first)
	require.NoError(t, os.WriteFile(first, nil, 0600))

	second := AvailablePath(base, "xlsx")
	assert.Equal(t, base+" (1).xlsx", second)
	require.NoError(t, os.WriteFile(second, nil, 0600))

	assert.Equal(t, base+" (2).xlsx", AvailablePath(base, "xlsx"))
	assert.Equal(t, base+".docx", AvailablePath(base, "docx"))
}
