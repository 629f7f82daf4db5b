// Package secrets reads provider API keys from a directory of plain-text
// files, one key per file, named after the key.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Key files understood by the provider configuration
const (
	BarcodeLookupAPIKey = "barcodelookup-api-key"
	UPCItemDBAPIKey     = "upcitemdb-api-key"
)

// Load returns the trimmed contents of every regular, non-hidden file in
// dir keyed by file name. A missing directory yields an empty map. Files
// that cannot be read are logged and skipped, as are empty ones.
func Load(dir string) (map[string]string, error) {
	found := map[string]string{}
	if dir == "" {
		return found, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return found, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Printf("[Secrets] Could not read %s: %v", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			found[name] = value
		}
	}

	return found, nil
}
