package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func setStaticEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("EXTRACT_PROVIDER", "static")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", filepath.Join(dir, "biodata.db"))
	t.Setenv("UPLOAD_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("EXTRACT_RPM", "0")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCommand()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "ingest", "extract", "export", "status", "db"})
}

func TestIngestInMemoryWritesReport(t *testing.T) {
	dir := setStaticEnv(t)
	good := filepath.Join(dir, "kavya.png")
	bad := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(good, pngHeader, 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("hello"), 0o644))
	report := filepath.Join(dir, "report.xlsx")

	out, err := run(t, "ingest", "--memory", "--poll", "10ms", "--report", report, good, bad)
	require.NoError(t, err)
	assert.Contains(t, out, "kavya.png")
	assert.Contains(t, out, string(constants.JobStatusPartial))
	assert.Contains(t, out, "unsupported file type")

	f, err := excelize.OpenFile(report)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Batch")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)
	assert.Equal(t, "kavya.png", rows[1][1])
	assert.Equal(t, string(constants.ItemStatusSucceeded), rows[1][2])
}

func TestIngestThenExportAndPing(t *testing.T) {
	dir := setStaticEnv(t)
	good := filepath.Join(dir, "arjun.png")
	require.NoError(t, os.WriteFile(good, pngHeader, 0o644))

	_, err := run(t, "ingest", "--poll", "10ms", good)
	require.NoError(t, err)

	out, err := run(t, "db", "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "DB health: OK")

	xlsxPath := filepath.Join(dir, "profiles.xlsx")
	_, err = run(t, "export", "--out", xlsxPath, "--status", "pending")
	require.NoError(t, err)

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Profiles")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestExtractPrintsJSON(t *testing.T) {
	dir := setStaticEnv(t)
	path := filepath.Join(dir, "meera.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o644))

	out, err := run(t, "extract", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"model": "static"`)
	assert.Contains(t, out, `"file": "meera.png"`)
}

func TestRenderJob(t *testing.T) {
	out := renderJob(entity.JobSnapshot{
		JobID:           "job-1",
		Status:          constants.JobStatusFailed,
		Total:           1,
		Processed:       1,
		Failed:          1,
		ProgressPercent: 100,
		Items: []entity.ItemView{
			{Index: 0, Filename: "a.pdf", Status: constants.ItemStatusFailed, Error: "file is empty"},
		},
	})
	assert.Contains(t, out, "a.pdf")
	assert.Contains(t, out, "file is empty")
	assert.Contains(t, out, "Job job-1: failed, 1/1 processed, 0 succeeded, 1 failed (100.0%)")
}

func TestSQLitePath(t *testing.T) {
	assert.Equal(t, "/tmp/x.db", sqlitePath("file:/tmp/x.db?_pragma=busy_timeout(5000)"))
	assert.Equal(t, "biodata.db", sqlitePath("biodata.db"))
}
