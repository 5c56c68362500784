package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"voldecomp/pkg/model"
)

// ErrInput marks a missing, malformed or empty input series
var ErrInput = errors.New("invalid input series")

// required column names, matched case-insensitively against the header
const (
	colDate   = "date"
	colTime   = "time"
	colClose  = "close"
	colVolume = "volume"
)

// Load reads the minute series stored at path
func Load(path string) ([]model.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	defer f.Close()

	obs, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return obs, nil
}

// Read parses a CSV minute series with a header row.
// Columns are located by name; extra columns are ignored.
func Read(r io.Reader) ([]model.Observation, error) {
	// strip a UTF-8 BOM if the exporter wrote one
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", ErrInput, err)
	}

	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var obs []model.Observation
	line := 1
	for {
		record, err := cr.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInput, line, err)
		}
		if isBlank(record) {
			continue
		}

		o, err := parseRecord(record, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInput, line, err)
		}
		obs = append(obs, o)
	}

	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrInput)
	}
	return obs, nil
}

type columns struct {
	date, time, close, volume int
}

func columnIndex(header []string) (columns, error) {
	idx := columns{date: -1, time: -1, close: -1, volume: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case colDate:
			idx.date = i
		case colTime:
			idx.time = i
		case colClose:
			idx.close = i
		case colVolume:
			idx.volume = i
		}
	}

	var missing []string
	if idx.date < 0 {
		missing = append(missing, "Date")
	}
	if idx.time < 0 {
		missing = append(missing, "Time")
	}
	if idx.close < 0 {
		missing = append(missing, "Close")
	}
	if idx.volume < 0 {
		missing = append(missing, "Volume")
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("%w: missing columns %s", ErrInput, strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseRecord(record []string, idx columns) (model.Observation, error) {
	field := func(i int) (string, error) {
		if i >= len(record) {
			return "", fmt.Errorf("expected at least %d fields, got %d", i+1, len(record))
		}
		return strings.TrimSpace(record[i]), nil
	}

	var o model.Observation
	var err error

	if o.Date, err = field(idx.date); err != nil {
		return o, err
	}
	if o.Date == "" {
		return o, fmt.Errorf("empty date")
	}

	raw, err := field(idx.time)
	if err != nil {
		return o, err
	}
	if o.Time, err = ParseMinute(raw); err != nil {
		return o, err
	}

	if raw, err = field(idx.close); err != nil {
		return o, err
	}
	if o.Close, err = strconv.ParseFloat(raw, 64); err != nil {
		return o, fmt.Errorf("close %q: %w", raw, err)
	}

	if raw, err = field(idx.volume); err != nil {
		return o, err
	}
	if o.Volume, err = strconv.ParseFloat(raw, 64); err != nil {
		return o, fmt.Errorf("volume %q: %w", raw, err)
	}
	return o, nil
}

// ParseMinute accepts an integer minute marker ("930"), its float rendering
// ("930.0") or a clock time ("09:30", converted to minutes since midnight).
func ParseMinute(s string) (int, error) {
	if h, m, ok := strings.Cut(s, ":"); ok {
		hh, err1 := strconv.Atoi(h)
		mm, err2 := strconv.Atoi(m)
		if err1 != nil || err2 != nil || hh < 0 || hh > 23 || mm < 0 || mm > 59 {
			return 0, fmt.Errorf("time %q: invalid clock time", s)
		}
		return hh*60 + mm, nil
	}

	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("time %q: not an integer minute", s)
	}
	return int(f), nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Symbols lists the symbols that have a minute file in dir, sorted
func Symbols(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var symbols []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(symbols)
	return symbols, nil
}

// Path returns the minute file for symbol inside dir
func Path(dir, symbol string) string {
	return filepath.Join(dir, symbol+".csv")
}
