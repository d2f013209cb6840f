package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/datawizard/internal/docx"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// fixtureExtensions are the source kinds built by writeFixture.
var fixtureExtensions = []string{".txt", ".md", ".csv", ".xlsx", ".docx"}

// writeFixture writes a minimal file of the given extension containing marker and returns
// its path.
func writeFixture(t *testing.T, dir, ext, marker string) string {
	t.Helper()
	path := filepath.Join(dir, "fixture"+ext)
	switch ext {
	case ".csv":
		require.NoError(t, os.WriteFile(path, []byte("kode,nilai\n"+marker+",1\n"), 0644))
	case ".xlsx":
		f := excelize.NewFile()
		defer f.Close()
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"kode", "nilai"}))
		require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{marker, 1}))
		require.NoError(t, f.SaveAs(path))
	case ".docx":
		d := docx.New()
		d.AddHeading("Laporan", 1)
		d.AddParagraph(docx.AlignLeft, docx.Text("Kode: "), docx.Bold(marker))
		require.NoError(t, d.Save(path))
	default:
		require.NoError(t, os.WriteFile(path, []byte("Catatan\n"+marker+"\n"), 0644))
	}
	return path
}
