package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/torosent/loanlens/internal/record"
)

// ErrUnsupportedExport is returned for export paths that are not .json, .yaml or .yml.
var ErrUnsupportedExport = errors.New("export: unsupported file extension")

const (
	lockRetryDelay = 50 * time.Millisecond
	exportFileMode = 0o644
)

// Export is the document written by ExportRecords.
type Export struct {
	RunID   string          `json:"run_id" yaml:"run_id"`
	Count   int             `json:"count" yaml:"count"`
	Records []record.Record `json:"records" yaml:"records"`
}

// ExportRecords writes the scored records to path as JSON or YAML, chosen by
// extension. Concurrent writers are serialized through an advisory lock on
// <path>.lock and the file is replaced atomically.
func ExportRecords(ctx context.Context, path, runID string, records []record.Record) error {
	encode, err := encoderFor(path)
	if err != nil {
		return err
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire export lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("acquire export lock: %s is held by another process", lock.Path())
	}
	defer lock.Unlock()

	if records == nil {
		records = []record.Record{}
	}
	doc := Export{RunID: runID, Count: len(records), Records: records}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(exportFileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("set export file mode: %w", err)
	}
	if err := encode(tmp, doc); err != nil {
		tmp.Close()
		return fmt.Errorf("encode export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace export file: %w", err)
	}
	return nil
}

func encoderFor(path string) (func(io.Writer, Export) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return func(w io.Writer, doc Export) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		}, nil
	case ".yaml", ".yml":
		return func(w io.Writer, doc Export) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return err
			}
			return enc.Close()
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExport, path)
	}
}
