package normalize

import (
	"log/slog"
	"time"

	"merchantpulse/internal/dataset"
	"merchantpulse/pkg/contracts/domain"
)

type settlementDraft struct {
	row    dataset.Row
	amount float64
	date   time.Time
}

// Settlements cleans a raw settlement dataset. The same strict drop policy
// as transactions applies to non-numeric amounts and unparseable dates.
// Unlike transactions, the minor-unit correction gates on the median alone:
// the settlement export has no indicator column but is known to carry
// paise-denominated amounts.
func (n *Normalizer) Settlements(ds *dataset.Dataset) []domain.Settlement {
	if ds.Empty() {
		return []domain.Settlement{}
	}

	const category = "settlements"
	original := ds.Len()

	n.pruneSparseColumns(category, ds)
	n.applyColumnMapping(ds, settlementColumnMappings)

	n.dropRows(category, "missing_merchant_name", ds, func(row dataset.Row) bool {
		_, ok := row.Get("merchant_name")
		return ok
	})

	drafts := make([]settlementDraft, 0, ds.Len())
	n.dropRows(category, "invalid_amount", ds, func(row dataset.Row) bool {
		v, _ := row.Get("amount")
		amount, ok := parseAmount(v)
		if !ok || amount < 0 || amount > n.cfg.MaxAmount {
			return false
		}
		drafts = append(drafts, settlementDraft{row: row, amount: amount})
		return true
	})

	if len(drafts) > 0 {
		amounts := make([]float64, len(drafts))
		for i, d := range drafts {
			amounts[i] = d.amount
		}
		if m := median(amounts); m > n.cfg.MinorUnitThreshold {
			n.logger.Info("settlement median above minor-unit threshold, converting to major units",
				slog.Float64("median", m))
			for i := range drafts {
				drafts[i].amount /= 100
			}
		}
	}

	drafts = n.resolveSettlementDates(category, ds, drafts)

	settlements := make([]domain.Settlement, 0, len(drafts))
	for _, d := range drafts {
		name, _ := d.row.Get("merchant_name")
		settlements = append(settlements, domain.Settlement{
			MerchantName:   name,
			Amount:         d.amount,
			SettlementDate: d.date,
			Date:           d.date.Format("2006-01-02"),
		})
	}

	n.logger.Info("settlement cleaning complete",
		slog.Int("original", original),
		slog.Int("final", len(settlements)),
		slog.Int("dropped", original-len(settlements)))
	return settlements
}

func (n *Normalizer) resolveSettlementDates(category string, ds *dataset.Dataset, drafts []settlementDraft) []settlementDraft {
	var col string
	for _, candidate := range settlementDateCandidates {
		if ds.HasColumn(candidate) {
			col = candidate
			break
		}
	}
	if col == "" {
		if len(drafts) > 0 {
			n.logger.Warn("no settlement date column found, dropping all rows",
				slog.Int("rows", len(drafts)))
			recordDropped(category, "no_date_column", len(drafts))
		}
		return nil
	}

	now := n.now()
	kept := drafts[:0]
	before := len(drafts)
	for _, d := range drafts {
		v, ok := d.row.Get(col)
		if !ok {
			continue
		}
		t, ok := parseTimestamp(v)
		if !ok || t.After(now) {
			continue
		}
		d.date = t
		kept = append(kept, d)
	}
	if before != len(kept) {
		recordDropped(category, "invalid_date", before-len(kept))
		n.logger.Info("dropped rows",
			slog.String("category", category),
			slog.String("reason", "invalid_date"),
			slog.Int("before", before),
			slog.Int("after", len(kept)))
	}
	return kept
}

// Support prunes a raw support dataset. Support records carry no canonical
// schema beyond sparse-column cleanup; downstream consumers only inspect row
// counts.
func (n *Normalizer) Support(ds *dataset.Dataset) *dataset.Dataset {
	if ds.Empty() {
		return ds
	}
	original := ds.Len()
	n.pruneSparseColumns("support", ds)
	n.logger.Info("support cleaning complete",
		slog.Int("original", original),
		slog.Int("final", ds.Len()))
	return ds
}
