package app

import (
	"os"
	"path/filepath"
	"testing"

	"esgdash/adapters/tabular"
	"esgdash/domain/table"
	"esgdash/internal/config"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// riskTable is the two-row climate risk example
func riskTable() *table.Table {
	t := table.New("risk_data", "Subcategory", "Risk_Category", "Probability", "Severity")
	t.Append(table.Row{
		"Subcategory":   table.String("Flood"),
		"Risk_Category": table.String("Physical"),
		"Probability":   table.Number(0.2),
		"Severity":      table.Number(1000000),
	})
	t.Append(table.Row{
		"Subcategory":   table.String("Drought"),
		"Risk_Category": table.String("Physical"),
		"Probability":   table.Number(0.1),
		"Severity":      table.Number(500000),
	})
	return t
}

func writeData(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func testCatalog(t *testing.T) *config.Catalog {
	t.Helper()
	c, err := config.DefaultCatalog()
	require.NoError(t, err)
	return c
}

func newTestLoader(t *testing.T, dir string) *Loader {
	t.Helper()
	return NewLoader(testCatalog(t), nil, nil, nil, tabular.NewFileReader(dir, nil))
}
