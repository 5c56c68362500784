package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voldecomp/pkg/model"
)

// Saver writes one symbol's decomposition table to a file
type Saver interface {
	Save(rows []model.DailyVolatility, path string) error
	Extension() string
}

// Formats lists the supported output formats
var Formats = []string{"csv", "json", "parquet", "xlsx"}

// New returns the saver for format, or an error for unknown formats
func New(format string) (Saver, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		return CSVSaver{}, nil
	case "json":
		return JSONSaver{}, nil
	case "parquet":
		return ParquetSaver{}, nil
	case "xlsx":
		return XLSXSaver{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// OutputPath returns dir/SYMBOL_values.ext
func OutputPath(dir, symbol, ext string) string {
	return filepath.Join(dir, symbol+"_values."+ext)
}

// Exists reports whether an output file is already present at path.
// A present file marks the symbol as done.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteAtomic saves rows through s into a temporary file next to path and
// renames it into place, so readers never observe a partial file
func WriteAtomic(s Saver, rows []model.DailyVolatility, path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if err := s.Save(rows, tmpPath); err != nil {
		return fmt.Errorf("writing %s: %w", s.Extension(), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming output: %w", err)
	}
	return nil
}

// closeFile closes f and keeps the first error
func closeFile(f *os.File, err *error) {
	if cerr := f.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
