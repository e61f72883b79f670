package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kvd/internal/engine"
	"kvd/pkg/fs"
)

// engineMarkerFileName is the per-directory marker recording which engine a
// store directory was first opened with.
const engineMarkerFileName = ".engine"

// CheckAndPersistEngine resolves spec.md §9's open question: the original
// project defines an equivalent check and a ServerError::EngineMissMatch
// variant but never wires the call into its server's main function. This
// repo treats the startup refusal as intended and actually calls it during
// bootstrap - on first start it persists engineName to dir/.engine; on
// subsequent starts it returns engine.ErrEngineMismatch if engineName
// doesn't match what's already persisted there.
func CheckAndPersistEngine(dir, engineName string) error {
	path := filepath.Join(dir, engineMarkerFileName)

	existing, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writer := fs.NewAtomicWriter(fs.NewReal())

			if err := writer.WriteWithDefaults(path, strings.NewReader(engineName)); err != nil {
				return fmt.Errorf("persist engine marker %q: %w", path, err)
			}

			return nil
		}

		return fmt.Errorf("read engine marker %q: %w", path, err)
	}

	if string(existing) != engineName {
		return fmt.Errorf(
			"directory %q was previously opened with engine %q, refusing to start with %q: %w",
			dir, existing, engineName, engine.ErrEngineMismatch,
		)
	}

	return nil
}
