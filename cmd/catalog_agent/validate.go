package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/catalog-enricher/internal/schemas"
)

var (
	validateJSONPath   string
	validateSchemaPath string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an exported JSON file",
	Long:  "Validates a JSON export against the built-in export schema, or against the JSON Schema given with --schema.",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateJSONPath, "json", "", "Path to the JSON file to validate (required)")
	validateCmd.Flags().StringVar(&validateSchemaPath, "schema", "", "Path to a JSON Schema file (defaults to the export schema)")

	if err := validateCmd.MarkFlagRequired("json"); err != nil {
		panic(fmt.Sprintf("failed to mark json flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	var err error
	if validateSchemaPath != "" {
		err = schemas.ValidateJSON(validateSchemaPath, validateJSONPath)
	} else {
		err = schemas.ValidateExportFile(validateJSONPath)
	}

	out := cmd.OutOrStdout()
	var validationErr *schemas.ValidationError
	switch {
	case err == nil:
		_, _ = fmt.Fprintf(out, "Validation passed: %s\n", validateJSONPath)
		return nil
	case errors.As(err, &validationErr):
		_, _ = fmt.Fprintf(out, "Validation failed: %s\n", validateJSONPath)
		for _, fe := range validationErr.Errors {
			_, _ = fmt.Fprintf(out, "  - %s: %s\n", fe.Field, fe.Message)
		}
		return fmt.Errorf("%d validation error(s)", len(validationErr.Errors))
	default:
		return err
	}
}
