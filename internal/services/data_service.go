// Package services wires the loading, normalization, and analytics layers
// behind the interfaces the transport layer consumes.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"merchantpulse/internal/loader"
	"merchantpulse/internal/normalize"
	"merchantpulse/pkg/contracts/domain"
)

// DebugInfo is the dataset introspection surface behind the debug endpoint:
// the raw column shape per category plus load bookkeeping.
type DebugInfo struct {
	TransactionColumns []string  `json:"transaction_columns"`
	SettlementColumns  []string  `json:"settlement_columns"`
	SupportColumns     []string  `json:"support_columns"`
	TransactionRows    int       `json:"transaction_rows"`
	SettlementRows     int       `json:"settlement_rows"`
	SupportRows        int       `json:"support_rows"`
	MissingCategories  []string  `json:"missing_categories"`
	LoadedAt           time.Time `json:"loaded_at"`
}

// DataService owns one cleaned dataset at a time. A load pass runs the
// loader and normalizer once and swaps the result in atomically; readers
// never observe a partially loaded dataset.
type DataService struct {
	loader     *loader.Loader
	normalizer *normalize.Normalizer
	logger     *slog.Logger
	now        func() time.Time

	mu          sync.RWMutex
	txns        []domain.Transaction
	settlements []domain.Settlement
	debug       DebugInfo
}

// NewDataService creates the service without loading anything. Callers run
// Reload once at startup; a failed initial load leaves the service serving
// empty datasets rather than aborting.
func NewDataService(l *loader.Loader, n *normalize.Normalizer, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataService{
		loader:     l,
		normalizer: n,
		logger:     logger,
		now:        time.Now,
	}
}

// Reload runs a full load pass and atomically replaces the in-memory
// dataset. On error the previous dataset stays in place.
func (s *DataService) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := s.now()
	raw, err := s.loader.Load()
	if err != nil {
		return fmt.Errorf("load source files: %w", err)
	}

	debug := DebugInfo{
		TransactionColumns: raw.Transactions.Columns,
		SettlementColumns:  raw.Settlements.Columns,
		SupportColumns:     raw.Support.Columns,
		MissingCategories:  raw.Missing,
		LoadedAt:           s.now(),
	}

	txns := s.normalizer.Transactions(raw.Transactions)
	settlements := s.normalizer.Settlements(raw.Settlements)
	support := s.normalizer.Support(raw.Support)

	debug.TransactionRows = len(txns)
	debug.SettlementRows = len(settlements)
	debug.SupportRows = support.Len()

	s.mu.Lock()
	s.txns = txns
	s.settlements = settlements
	s.debug = debug
	s.mu.Unlock()

	s.logger.Info("dataset reloaded",
		slog.Int("transactions", len(txns)),
		slog.Int("settlements", len(settlements)),
		slog.Int("support_rows", support.Len()),
		slog.Duration("took", s.now().Sub(start)))
	return nil
}

// Transactions returns the transactions whose resolved timestamp falls
// within the trailing window. days <= 0 returns the full dataset. The
// returned slice is shared and must not be mutated.
func (s *DataService) Transactions(days int) []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if days <= 0 || len(s.txns) == 0 {
		return s.txns
	}

	cutoff := s.now().AddDate(0, 0, -days)
	out := make([]domain.Transaction, 0, len(s.txns))
	for _, t := range s.txns {
		if !t.CreatedAt.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

// Settlements returns the settlements within the trailing window. days <= 0
// returns the full dataset.
func (s *DataService) Settlements(days int) []domain.Settlement {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if days <= 0 || len(s.settlements) == 0 {
		return s.settlements
	}

	cutoff := s.now().AddDate(0, 0, -days)
	out := make([]domain.Settlement, 0, len(s.settlements))
	for _, st := range s.settlements {
		if !st.SettlementDate.Before(cutoff) {
			out = append(out, st)
		}
	}
	return out
}

// MerchantNames returns the distinct merchant names across the loaded
// transactions, sorted for stable output.
func (s *DataService) MerchantNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, t := range s.txns {
		seen[t.MerchantName] = struct{}{}
	}
	return sortedKeys(seen)
}

// Summary describes the shape of the currently loaded dataset.
func (s *DataService) Summary() domain.DataSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.DataSummary{
		TransactionsLoaded: len(s.txns),
		SettlementsLoaded:  len(s.settlements),
		SupportLoaded:      s.debug.SupportRows,
	}

	merchants := make(map[string]struct{})
	methods := make(map[string]struct{})
	statuses := make(map[string]struct{})
	var minDate, maxDate string
	for _, t := range s.txns {
		merchants[t.MerchantName] = struct{}{}
		methods[string(t.PaymentMethod)] = struct{}{}
		statuses[string(t.Status)] = struct{}{}
		summary.TotalAmount += t.Amount
		if minDate == "" || t.Date < minDate {
			minDate = t.Date
		}
		if t.Date > maxDate {
			maxDate = t.Date
		}
	}

	// Merchants is a sample; TotalMerchants carries the full count.
	summary.Merchants = sortedKeys(merchants)
	summary.TotalMerchants = len(summary.Merchants)
	if len(summary.Merchants) > 10 {
		summary.Merchants = summary.Merchants[:10]
	}
	summary.PaymentMethods = sortedKeys(methods)
	summary.Statuses = sortedKeys(statuses)
	summary.DateRange = domain.DateRange{Start: minDate, End: maxDate}
	return summary
}

// Debug returns the load bookkeeping captured by the last Reload.
func (s *DataService) Debug() DebugInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.debug
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
