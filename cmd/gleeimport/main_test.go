package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const wardrobeHeader = "category,item_name,sizes,colors,quantity_total,quantity_available,condition,low_stock_threshold,notes\n"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestTemplateCmd(t *testing.T) {
	out, err := run(t, "template", "wardrobe")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, strings.TrimSuffix(wardrobeHeader, "\n")+"\n"), out)

	// the sample row validates cleanly
	path := writeFile(t, "template.csv", out)
	out, err = run(t, "validate", "--strict", "wardrobe", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wardrobe: 1 rows, 1 valid, 0 warnings, 0 errors, 0 malformed")
}

func TestTemplateCmd_XLSXToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alumnae.xlsx")
	_, err := run(t, "template", "alumnae", "--xlsx", "-o", path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("alumnae")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "email", rows[0][0])
}

func TestTemplateCmd_UnknownKind(t *testing.T) {
	_, err := run(t, "template", "choir")
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestValidateCmd(t *testing.T) {
	path := writeFile(t, "wardrobe.csv", wardrobeHeader+
		"pearls,Pearl Strand,,White,4,2,,,\n"+
		"capes,Velvet Cape,,,1,1,,,\n"+
		"dresses,Gown,,,1,1\n")

	out, err := run(t, "validate", "wardrobe", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wardrobe: 2 rows, 1 valid, 0 warnings, 1 errors, 1 malformed")
	assert.Contains(t, out, "Invalid category")

	_, err = run(t, "validate", "--strict", "wardrobe", path)
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))
}

func TestValidateCmd_Fatal(t *testing.T) {
	path := writeFile(t, "bad.csv", "category,item_name\npearls,Strand\n")

	_, err := run(t, "validate", "wardrobe", path)
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))
	assert.Contains(t, err.Error(), "missing required columns")
}

func TestImportCmd_DryRun(t *testing.T) {
	path := writeFile(t, "alumnae.csv",
		"email,full_name,first_name,last_name,graduation_year,voice_part,verified,phone,interests,last_update\n"+
			"a@example.com,Ann Lee,,,2010,A1,yes,,,\n"+
			"b@example.com,Bea Cruz,,,2012,S2,no,,,\n"+
			"a@example.com,Ann Park,,,2010,A1,yes,,,\n")
	logPath := filepath.Join(t.TempDir(), "log.csv")

	out, err := run(t, "import", "alumnae", path, "--actor", "tester", "--log", logPath)
	require.NoError(t, err)
	assert.Contains(t, out, "dry-run: 2 successful, 1 skipped, 0 failed")

	log, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "Row,Email,Message\n2,a@example.com,Skipped: superseded by row 4\n", string(log))
}

func TestImportCmd_BlockingErrors(t *testing.T) {
	path := writeFile(t, "wardrobe.csv", wardrobeHeader+"capes,Velvet Cape,,,1,1,,,\n")

	out, err := run(t, "import", "wardrobe", path, "--actor", "tester")
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))
	assert.Contains(t, out, "Invalid category")
}

func TestImportCmd_InvalidActor(t *testing.T) {
	path := writeFile(t, "wardrobe.csv", wardrobeHeader+"pearls,Strand,,,1,1,,,\n")

	_, err := run(t, "import", "wardrobe", path, "--actor", "")
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
}
