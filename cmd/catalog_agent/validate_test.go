package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/catalog-enricher/internal/db"
	"github.com/jonathan/catalog-enricher/internal/observability"
	"github.com/jonathan/catalog-enricher/internal/types"
)

func runValidateWith(t *testing.T, jsonPath, schemaPath string) (string, error) {
	t.Helper()
	validateJSONPath, validateSchemaPath = jsonPath, schemaPath
	t.Cleanup(func() { validateJSONPath, validateSchemaPath = "", "" })

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	err := runValidate(cmd, nil)
	return out.String(), err
}

func TestRunValidate(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.json")
	require.NoError(t, os.WriteFile(valid, []byte(`[{"original":{"name":"Chair"},"enriched":{"product_name":"Chair"}}]`), 0644))
	out, err := runValidateWith(t, valid, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Validation passed")

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`[{"original":{"name":"Chair"}}]`), 0644))
	out, err = runValidateWith(t, invalid, "")
	require.Error(t, err)
	assert.Contains(t, out, "Validation failed")
	assert.Contains(t, out, "enriched")

	_, err = runValidateWith(t, filepath.Join(dir, "missing.json"), "")
	assert.Error(t, err)
}

func TestRunValidate_CustomSchema(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "schema.json")
	require.NoError(t, os.WriteFile(schema, []byte(`{"type":"object","required":["id"]}`), 0644))
	doc := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(doc, []byte(`{"id":"x"}`), 0644))

	out, err := runValidateWith(t, doc, schema)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation passed")
}

func TestPrintHistory(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	_, err := runEnrichment(ctx, sampleOptions(t), database, &stubEnricher{}, nil, &bytes.Buffer{})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printHistory(ctx, database, db.JobFilter{Status: types.JobCompleted}, observability.NewPrinter(&out)))
	assert.Contains(t, out.String(), types.DefaultJobName)

	out.Reset()
	require.NoError(t, printHistory(ctx, database, db.JobFilter{Query: "nothing-matches"}, observability.NewPrinter(&out)))
	assert.NotContains(t, out.String(), types.DefaultJobName)
}
