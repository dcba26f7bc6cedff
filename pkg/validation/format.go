// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON, format)
}

// ValidateHistoryBackend checks if the history backend is one of the supported stores.
func ValidateHistoryBackend(backend string) error {
	switch backend {
	case constants.HistoryBackendMemory, constants.HistoryBackendRedis, constants.HistoryBackendPostgres:
		return nil
	}
	return fmt.Errorf("expected history backend of %s, %s or %s, got %s",
		constants.HistoryBackendMemory, constants.HistoryBackendRedis, constants.HistoryBackendPostgres, backend)
}
