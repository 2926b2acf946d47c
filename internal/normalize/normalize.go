// Package normalize reconciles raw export datasets into canonical domain
// records. Cleaning is a fixed ordered pass: sparse-column pruning, column
// mapping, required-field enforcement, amount normalization with minor-unit
// correction, timestamp resolution, vocabulary canonicalization, and
// merchant identity assignment. No step returns an error; every invalid row
// is dropped and surfaced only as a logged count delta.
package normalize

import (
	"log/slog"
	"sort"
	"time"

	"merchantpulse/internal/dataset"
	"merchantpulse/internal/infrastructure"
)

// Config tunes the cleaning heuristics. The minor-unit threshold and
// indicator column are configuration rather than hardcoded because the
// magnitude guess misfires on datasets whose legitimate median exceeds the
// threshold in their true unit.
type Config struct {
	// SparseThreshold is the missing-value fraction above which a column is
	// treated as unreliable and dropped.
	SparseThreshold float64
	// MaxAmount is the implausible-outlier cutoff in major currency units.
	MaxAmount float64
	// MinorUnitColumn, when present in a dataset whose median amount exceeds
	// MinorUnitThreshold, marks the whole amount column as minor-unit
	// (paise) denominated.
	MinorUnitColumn string
	// MinorUnitThreshold is the median-amount gate of the unit heuristic.
	MinorUnitThreshold float64
}

// DefaultConfig returns the thresholds observed in the upstream exports.
func DefaultConfig() Config {
	return Config{
		SparseThreshold:    0.8,
		MaxAmount:          10_000_000,
		MinorUnitColumn:    "convenience_fees_amt_in_paise",
		MinorUnitThreshold: 10_000,
	}
}

// Normalizer applies the cleaning pass. It is stateless apart from its
// configuration; the clock is injectable for deterministic tests.
type Normalizer struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes a Normalizer.
type Option func(*Normalizer)

// WithClock overrides the processing-time clock.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// New creates a normalizer with the given configuration.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SparseThreshold <= 0 {
		cfg.SparseThreshold = 0.8
	}
	if cfg.MaxAmount <= 0 {
		cfg.MaxAmount = 10_000_000
	}
	if cfg.MinorUnitThreshold <= 0 {
		cfg.MinorUnitThreshold = 10_000
	}
	n := &Normalizer{cfg: cfg, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// pruneSparseColumns drops columns whose missing fraction exceeds the
// configured threshold over the full row set.
func (n *Normalizer) pruneSparseColumns(category string, ds *dataset.Dataset) {
	if ds.Empty() {
		return
	}
	var drop []string
	for _, col := range ds.Columns {
		if ds.MissingFraction(col) > n.cfg.SparseThreshold {
			drop = append(drop, col)
		}
	}
	if len(drop) > 0 {
		n.logger.Info("dropping mostly empty columns",
			slog.String("category", category),
			slog.Any("columns", drop))
		ds.DropColumns(drop...)
	}
}

// applyColumnMapping fills canonical columns from their synonyms. A canonical
// column is only filled when it does not already exist and the source column
// does; unmapped columns are retained untouched.
func (n *Normalizer) applyColumnMapping(ds *dataset.Dataset, mapping []columnMapping) {
	for _, m := range mapping {
		if !ds.HasColumn(m.source) || ds.HasColumn(m.canonical) {
			continue
		}
		ds.AddColumn(m.canonical)
		for _, row := range ds.Rows {
			if v, ok := row.Get(m.source); ok {
				row[m.canonical] = v
			}
		}
	}
}

// dropRows filters the dataset in place and logs the before/after delta.
func (n *Normalizer) dropRows(category, reason string, ds *dataset.Dataset, keep func(dataset.Row) bool) {
	before := ds.Len()
	filtered := ds.Filter(keep)
	ds.Rows = filtered.Rows
	if after := ds.Len(); after != before {
		infrastructure.RowsDropped.WithLabelValues(category, reason).Add(float64(before - after))
		n.logger.Info("dropped rows",
			slog.String("category", category),
			slog.String("reason", reason),
			slog.Int("before", before),
			slog.Int("after", after))
	}
}

// recordDropped records dropped rows on the pipeline metrics.
func recordDropped(category, reason string, count int) {
	if count > 0 {
		infrastructure.RowsDropped.WithLabelValues(category, reason).Add(float64(count))
	}
}

// median returns the median of the values. Callers guarantee len > 0.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
