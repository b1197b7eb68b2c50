package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rkilchmn/openrouter-free-scanner/pkg/api"
)

// WriteSnapshot saves the model list as indented JSON, the scanner's
// `-o/--output` format.
func WriteSnapshot(path string, models []api.Model) error {
	data, err := json.MarshalIndent(models, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal models: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
