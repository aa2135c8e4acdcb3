// Command parity cross-checks the internal indicator implementations against
// ta-lib over a quote CSV. The internal functions intentionally differ from
// ta-lib in places (simple trailing-average RSI instead of Wilder smoothing,
// unavailable-below-window instead of leading zeros), so this tool reports
// diffs for inspection rather than asserting byte equality everywhere.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"TrendBacktest/internal/indicator"
	"TrendBacktest/internal/loader"

	"github.com/markcheno/go-talib"
)

func main() {
	log.SetFlags(0)

	csvPath := flag.String("csv", "", "quote csv file (time,open,high,low,close,volume)")
	rsiPeriod := flag.Int("rsi", 14, "RSI period")
	bbPeriod := flag.Int("bb", 20, "Bollinger period")
	tolerance := flag.Float64("tolerance", 1e-6, "max absolute diff treated as a match")
	flag.Parse()

	if *csvPath == "" {
		log.Fatal("[FATAL] -csv is required")
	}
	data, err := loader.LoadFile(*csvPath)
	if err != nil {
		log.Fatalf("[FATAL] load csv: %v", err)
	}
	closes := make([]float64, len(data.Quotes))
	for i, q := range data.Quotes {
		closes[i] = q.Close
	}
	log.Printf("loaded %d closes from %s", len(closes), *csvPath)

	mismatches := 0

	// Bollinger middle band is a plain SMA; this one must match exactly.
	if bb, ok := indicator.Bollinger(closes, *bbPeriod, 2.0); ok {
		upper, middle, lower := talib.BBands(closes, *bbPeriod, 2.0, 2.0, talib.SMA)
		last := len(closes) - 1
		mismatches += compare("bollinger.middle", bb.Middle, middle[last], *tolerance, true)
		// ta-lib uses the sample standard deviation path internally for some
		// builds; report band diffs without failing the run.
		compare("bollinger.upper", bb.Upper, upper[last], *tolerance, false)
		compare("bollinger.lower", bb.Lower, lower[last], *tolerance, false)
	} else {
		log.Printf("bollinger: not enough data (%d < %d)", len(closes), *bbPeriod)
	}

	// MACD shares the SMA-seeded EMA construction with ta-lib.
	if m, ok := indicator.MACD(closes, 12, 26, 9); ok {
		macd, signal, hist := talib.Macd(closes, 12, 26, 9)
		last := len(closes) - 1
		mismatches += compare("macd.line", m.MACD, macd[last], *tolerance, true)
		mismatches += compare("macd.signal", m.Signal, signal[last], *tolerance, true)
		mismatches += compare("macd.histogram", m.Histogram, hist[last], *tolerance, true)
	} else {
		log.Printf("macd: not enough data (%d < 35)", len(closes))
	}

	// RSI methodology differs (trailing averages vs Wilder); diff only.
	if r, ok := indicator.RSI(closes, *rsiPeriod); ok {
		ref := talib.Rsi(closes, *rsiPeriod)
		compare("rsi", r, ref[len(ref)-1], *tolerance, false)
	} else {
		log.Printf("rsi: not enough data (%d < %d)", len(closes), *rsiPeriod+1)
	}

	if mismatches > 0 {
		log.Printf("%d mismatches beyond tolerance %g", mismatches, *tolerance)
		os.Exit(1)
	}
	log.Println("parity ok")
}

// compare prints one value pair and returns 1 if a strict comparison exceeds
// the tolerance.
func compare(name string, got, ref, tolerance float64, strict bool) int {
	diff := math.Abs(got - ref)
	marker := ""
	if diff > tolerance {
		if strict {
			marker = "  MISMATCH"
		} else {
			marker = "  (informational)"
		}
	}
	fmt.Printf("%-18s internal=%.8f talib=%.8f diff=%.2e%s\n", name, got, ref, diff, marker)
	if strict && diff > tolerance {
		return 1
	}
	return 0
}
