// Package loader reads per-symbol OHLCV history from CSV files. One file per
// symbol, named <symbol>.csv, with a header row and columns
// time,open,high,low,close,volume. Timestamps are RFC3339 or unix
// milliseconds. Files exported from spreadsheets are accepted as-is: UTF-8
// and UTF-16 byte order marks are handled transparently.
package loader

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"TrendBacktest/internal/model"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LoadDir loads every *.csv file in dir into a symbol map keyed by file name.
func LoadDir(dir string) (map[string]model.SymbolData, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read quotes dir: %w", err)
	}

	symbols := make(map[string]model.SymbolData)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		symbol := strings.TrimSuffix(entry.Name(), ".csv")
		data, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
		symbols[symbol] = data
		log.Printf("[INFO] loaded %s: %d quotes", symbol, len(data.Quotes))
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no quote files in %s", dir)
	}
	return symbols, nil
}

// LoadFile parses one symbol's CSV history, sorted ascending by time. The
// session-open reference price is the first bar's open.
func LoadFile(path string) (model.SymbolData, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.SymbolData{}, err
	}
	defer f.Close()

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	r := csv.NewReader(transform.NewReader(f, decoder))
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return model.SymbolData{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 2 {
		return model.SymbolData{}, fmt.Errorf("no data rows")
	}

	quotes := make([]model.Quote, 0, len(records)-1)
	for i, rec := range records[1:] { // skip header
		if len(rec) < 6 {
			return model.SymbolData{}, fmt.Errorf("row %d: want 6 columns, got %d", i+2, len(rec))
		}
		ts, err := parseTime(rec[0])
		if err != nil {
			return model.SymbolData{}, fmt.Errorf("row %d: %w", i+2, err)
		}
		vals := make([]float64, 5)
		for j := 1; j <= 5; j++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[j]), 64)
			if err != nil {
				return model.SymbolData{}, fmt.Errorf("row %d col %d: %w", i+2, j+1, err)
			}
			vals[j-1] = v
		}
		quotes = append(quotes, model.Quote{
			Time:   ts,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}

	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Time.Before(quotes[j].Time) })
	return model.SymbolData{Open: quotes[0].Open, Quotes: quotes}, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.UTC(), nil
}
