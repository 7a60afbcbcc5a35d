package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const specialistText = `POLICY NUMBER: PA-2001
Policyholder Name: Ada Obi
DATE OF LOSS: 2024-05-02
LOCATION OF LOSS: Harbour Rd
DESCRIPTION OF ACCIDENT: rear-ended at a light
CLAIMANT NAME: Ada Obi
VIN: 1HGCM82633A004352
ESTIMATE AMOUNT: $4,000
CLAIM TYPE: injury`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rulesFile, logLevel = "", "error"
	triageOut, noWrite = "", false
	batchXLSX, batchOut, batchInmem, batchForce, batchWorkers, showHidden = "", "", false, false, 0, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTriageWritesAndPrints(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "claim.txt")
	require.NoError(t, os.WriteFile(p, []byte(specialistText), 0o644))
	outDir := filepath.Join(dir, "output")

	stdout, err := execute(t, "triage", p, "--out", outDir, "--log-level", "error")
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &rec))
	assert.Equal(t, "claim.txt", rec["inputFile"])
	assert.Equal(t, "Specialist Queue", rec["recommendedRoute"])
	assert.Equal(t, []any{}, rec["missingFields"])

	onDisk, err := os.ReadFile(filepath.Join(outDir, "claim.txt.json"))
	require.NoError(t, err)
	assert.Equal(t, stdout, string(onDisk))
}

func TestTriageMissingFile(t *testing.T) {
	_, err := execute(t, "triage", filepath.Join(t.TempDir(), "nope.pdf"), "--no-write")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestTriageUnsupportedExtension(t *testing.T) {
	p := filepath.Join(t.TempDir(), "claim.docx")
	require.NoError(t, os.WriteFile(p, []byte(specialistText), 0o644))
	_, err := execute(t, "triage", p, "--no-write")
	assert.Error(t, err)
}

func TestBatchExportsWorkbook(t *testing.T) {
	root := t.TempDir()
	inbox := filepath.Join(root, "inbox")
	require.NoError(t, os.MkdirAll(inbox, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "a.txt"), []byte(specialistText), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "b.txt"), []byte("POLICY NUMBER: ABC-123"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "notes.md"), []byte("ignored"), 0o644))
	xlsx := filepath.Join(root, "out.xlsx")

	stdout, err := execute(t, "batch", "--dir", inbox, "--inmem", "--xlsx", xlsx, "--workers", "2", "--out", filepath.Join(root, "json"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "processed 2, failed 0, skipped 0")
	assert.FileExists(t, filepath.Join(root, "json", "a.txt.json"))

	f, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Triage")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "a.txt", rows[1][0])
	assert.Equal(t, "Specialist Queue", rows[1][1])
	assert.Equal(t, "Manual Review", rows[2][1])
}

func TestRulesPrintsYAML(t *testing.T) {
	stdout, err := execute(t, "rules")
	require.NoError(t, err)
	assert.Contains(t, stdout, "fastTrackThreshold: 25000")
}
