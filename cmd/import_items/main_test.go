package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunImportsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.csv")
	data := "kind,title,author,year,minutes,subject\nvideo,Alien,Ridley Scott,1979,117,Sci-fi\nbook,Dune,Frank Herbert,1965,,\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Successfully imported: 2 items")
	assert.Contains(t, stdout.String(), "Duration: 117 min")
}

func TestRunExitCodes(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage: import_items")

	stdout.Reset()
	missing := filepath.Join(t.TempDir(), "missing.csv")
	assert.Equal(t, 1, run([]string{missing}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Warnings:")
	assert.Contains(t, stdout.String(), "Successfully imported: 0 items")
}
