package universe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	content := `# NIFTY50 snapshot
RELIANCE.NSE
TCS.NSE   # largest IT name

INFY.NSE
RELIANCE.NSE
`
	symbols := Parse(content)
	assert.Equal(t, []string{"RELIANCE.NSE", "TCS.NSE", "INFY.NSE"}, symbols,
		"comments stripped, blanks skipped, duplicates collapsed, order kept")
}

func TestParse_Empty(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("# only comments\n\n# more\n"))
}

func TestLoadWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe", "nifty50.txt")

	require.NoError(t, WriteFile(path, []string{"TCS.NSE", "INFY.NSE", "RELIANCE.NSE"}))

	symbols, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"INFY.NSE", "RELIANCE.NSE", "TCS.NSE"}, symbols, "file is written sorted")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# symbols")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestParseConstituents(t *testing.T) {
	html := `
<html><body>
<table>
  <tr><th>Symbol</th><th>Company</th><th>Weight</th></tr>
  <tr><td>RELIANCE</td><td>Reliance Industries Ltd.</td><td>9.1</td></tr>
  <tr><td>TCS</td><td>Tata Consultancy Services</td><td>4.2</td></tr>
  <tr><td>M&amp;M</td><td>Mahindra &amp; Mahindra</td><td>1.8</td></tr>
  <tr><td>Total</td><td></td><td>100</td></tr>
  <tr><td>RELIANCE</td><td>dup row</td><td>0</td></tr>
</table>
</body></html>`

	symbols := ParseConstituents(html)
	assert.Equal(t, []string{"RELIANCE.NSE", "TCS.NSE", "M&M.NSE"}, symbols)
}

func TestParseConstituents_NoTable(t *testing.T) {
	assert.Empty(t, ParseConstituents("<html><body><p>maintenance</p></body></html>"))
}
