package series

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voldecomp/pkg/model"
)

func TestRead(t *testing.T) {
	input := "Date,Time,Open,High,Low,Close,Volume\n" +
		"01/02/2024,930,10,10,10,10.5,1000\n" +
		"01/02/2024,931,10,10,10,10.6,200\n" +
		"01/03/2024,930.0,10,10,10,11,300\n"

	obs, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []model.Observation{
		{Date: "01/02/2024", Time: 930, Close: 10.5, Volume: 1000},
		{Date: "01/02/2024", Time: 931, Close: 10.6, Volume: 200},
		{Date: "01/03/2024", Time: 930, Close: 11, Volume: 300},
	}, obs)
}

func TestReadHeaderCaseAndBOM(t *testing.T) {
	input := "\ufeffvolume, close ,DATE,time\n500,9.5,2024-01-02,09:35\n"

	obs, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "2024-01-02", obs[0].Date)
	assert.Equal(t, 9*60+35, obs[0].Time)
	assert.Equal(t, 9.5, obs[0].Close)
	assert.Equal(t, 500.0, obs[0].Volume)
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"empty", "", "empty file"},
		{"header only", "Date,Time,Close,Volume\n", "no data rows"},
		{"missing column", "Date,Time,Close\n1,930,10\n", "missing columns Volume"},
		{"bad close", "Date,Time,Close,Volume\nd,930,abc,1\n", "line 2"},
		{"bad time", "Date,Time,Close,Volume\nd,9.5,10,1\n", "not an integer minute"},
		{"short row", "Date,Time,Close,Volume\nd,930\n", "expected at least"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInput)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestParseMinute(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"930", 930, false},
		{"1600.0", 1600, false},
		{"00:05", 5, false},
		{"16:00", 960, false},
		{"25:00", 0, true},
		{"x", 0, true},
		{"930.5", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMinute(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "NOPE.csv"))
	assert.ErrorIs(t, err, ErrInput)
}

func TestSymbols(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"MSFT.csv", "AAPL.csv", "notes.txt", "IBM.CSV"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755))

	symbols, err := Symbols(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "IBM", "MSFT"}, symbols)

	assert.Equal(t, filepath.Join(dir, "AAPL.csv"), Path(dir, "AAPL"))
}
