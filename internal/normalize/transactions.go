package normalize

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"merchantpulse/internal/dataset"
	"merchantpulse/pkg/contracts/domain"
)

// txnDraft carries a row through the typed cleaning steps.
type txnDraft struct {
	row       dataset.Row
	amount    float64
	createdAt time.Time
	status    domain.TransactionStatus
	method    domain.PaymentMethod
}

// Transactions cleans a raw transaction dataset into canonical records.
// Policy: strict drop throughout — rows with unparseable amounts, dates, or
// unknown statuses are discarded, never repaired. An absent status column
// defaults every row to SUCCESS; an absent payment column defaults to UPI.
func (n *Normalizer) Transactions(ds *dataset.Dataset) []domain.Transaction {
	if ds.Empty() {
		return []domain.Transaction{}
	}

	const category = "transactions"
	original := ds.Len()

	n.pruneSparseColumns(category, ds)
	n.applyColumnMapping(ds, transactionColumnMappings)

	for _, col := range requiredTransactionColumns {
		col := col
		n.dropRows(category, "missing_"+col, ds, func(row dataset.Row) bool {
			_, ok := row.Get(col)
			return ok
		})
	}

	drafts := n.normalizeTxnAmounts(category, ds)
	drafts = n.resolveTxnTimestamps(category, ds, drafts)
	drafts = n.canonicalizeStatuses(category, ds, drafts)
	n.canonicalizePaymentMethods(ds, drafts)

	// Single-tenant CSV mode: every row of one load shares a synthetic
	// merchant key. A merchant_id already present in the source is kept so
	// that re-cleaning canonical output is a no-op.
	loadMerchantID := "csv-" + uuid.NewString()

	txns := make([]domain.Transaction, 0, len(drafts))
	for _, d := range drafts {
		name, _ := d.row.Get("merchant_name")
		txnID, _ := d.row.Get("txn_id")
		gateway, _ := d.row.Get("gateway")
		merchantID := loadMerchantID
		if v, ok := d.row.Get("merchant_id"); ok {
			merchantID = v
		}
		txns = append(txns, domain.Transaction{
			TxnID:         txnID,
			MerchantName:  name,
			MerchantID:    merchantID,
			Amount:        d.amount,
			PaymentMethod: d.method,
			Status:        d.status,
			Gateway:       gateway,
			CreatedAt:     d.createdAt,
			Date:          d.createdAt.Format("2006-01-02"),
		})
	}

	n.logger.Info("transaction cleaning complete",
		slog.Int("original", original),
		slog.Int("final", len(txns)),
		slog.Int("dropped", original-len(txns)))
	return txns
}

// normalizeTxnAmounts coerces amounts, drops non-positive and implausible
// values, then applies the minor-unit correction heuristic: when the
// configured indicator column is present and the median exceeds the
// threshold, the whole column is interpreted as minor-unit denominated.
func (n *Normalizer) normalizeTxnAmounts(category string, ds *dataset.Dataset) []txnDraft {
	drafts := make([]txnDraft, 0, ds.Len())

	n.dropRows(category, "invalid_amount", ds, func(row dataset.Row) bool {
		v, _ := row.Get("amount")
		amount, ok := parseAmount(v)
		if !ok {
			return false
		}
		drafts = append(drafts, txnDraft{row: row, amount: amount})
		return true
	})

	drafts = n.filterDrafts(category, "nonpositive_amount", ds, drafts, func(d txnDraft) bool {
		return d.amount > 0
	})
	drafts = n.filterDrafts(category, "outlier_amount", ds, drafts, func(d txnDraft) bool {
		return d.amount <= n.cfg.MaxAmount
	})

	if len(drafts) == 0 {
		return drafts
	}

	amounts := make([]float64, len(drafts))
	for i, d := range drafts {
		amounts[i] = d.amount
	}
	if ds.HasColumn(n.cfg.MinorUnitColumn) && median(amounts) > n.cfg.MinorUnitThreshold {
		n.logger.Info("median amount above minor-unit threshold, converting to major units",
			slog.String("category", category),
			slog.Float64("median", median(amounts)))
		for i := range drafts {
			drafts[i].amount /= 100
		}
	}
	return drafts
}

// resolveTxnTimestamps picks the first candidate column where a majority of
// rows parse, then drops rows whose value is unparseable or in the future.
func (n *Normalizer) resolveTxnTimestamps(category string, ds *dataset.Dataset, drafts []txnDraft) []txnDraft {
	col, ok := n.pickTimestampColumn(ds, drafts, timestampCandidates)
	if !ok {
		if len(drafts) > 0 {
			n.logger.Warn("no usable timestamp column found, dropping all rows",
				slog.String("category", category),
				slog.Int("rows", len(drafts)))
			recordDropped(category, "no_timestamp_column", len(drafts))
		}
		return nil
	}

	now := n.now()
	parsed := drafts[:0]
	before := len(drafts)
	for _, d := range drafts {
		v, _ := d.row.Get(col)
		t, ok := parseTimestamp(v)
		if !ok {
			continue
		}
		d.createdAt = t
		parsed = append(parsed, d)
	}
	n.logDelta(category, "invalid_date", before, len(parsed))

	drafts = parsed
	return n.filterDrafts(category, "future_date", ds, drafts, func(d txnDraft) bool {
		return !d.createdAt.After(now)
	})
}

// pickTimestampColumn returns the first candidate column present in the
// dataset where more than half of the rows parse to a valid timestamp.
func (n *Normalizer) pickTimestampColumn(ds *dataset.Dataset, drafts []txnDraft, candidates []string) (string, bool) {
	if len(drafts) == 0 {
		return "", false
	}
	for _, col := range candidates {
		if !ds.HasColumn(col) {
			continue
		}
		valid := 0
		for _, d := range drafts {
			if v, ok := d.row.Get(col); ok {
				if _, ok := parseTimestamp(v); ok {
					valid++
				}
			}
		}
		if valid*2 > len(drafts) {
			return col, true
		}
	}
	return "", false
}

// canonicalizeStatuses uppercases raw statuses and maps them through the
// synonym table. Unknown values are dropped; an absent column defaults every
// row to SUCCESS.
func (n *Normalizer) canonicalizeStatuses(category string, ds *dataset.Dataset, drafts []txnDraft) []txnDraft {
	if !ds.HasColumn("status") {
		for i := range drafts {
			drafts[i].status = domain.StatusSuccess
		}
		return drafts
	}

	kept := drafts[:0]
	before := len(drafts)
	for _, d := range drafts {
		v, ok := d.row.Get("status")
		if !ok {
			continue
		}
		status, ok := statusSynonyms[strings.ToUpper(v)]
		if !ok {
			continue
		}
		d.status = status
		kept = append(kept, d)
	}
	n.logDelta(category, "unknown_status", before, len(kept))
	return kept
}

// canonicalizePaymentMethods maps raw payment modes onto canonical tokens.
// Unmapped values pass through uppercased; an absent column defaults to UPI.
func (n *Normalizer) canonicalizePaymentMethods(ds *dataset.Dataset, drafts []txnDraft) {
	hasColumn := ds.HasColumn("payment_method")
	for i := range drafts {
		if !hasColumn {
			drafts[i].method = domain.MethodUPI
			continue
		}
		v, ok := drafts[i].row.Get("payment_method")
		if !ok {
			drafts[i].method = domain.MethodUPI
			continue
		}
		upper := strings.ToUpper(strings.TrimSpace(v))
		if method, ok := paymentMethodSynonyms[upper]; ok {
			drafts[i].method = method
		} else {
			drafts[i].method = domain.PaymentMethod(upper)
		}
	}
}

// filterDrafts drops drafts failing the predicate and logs the delta.
func (n *Normalizer) filterDrafts(category, reason string, _ *dataset.Dataset, drafts []txnDraft, keep func(txnDraft) bool) []txnDraft {
	kept := drafts[:0]
	before := len(drafts)
	for _, d := range drafts {
		if keep(d) {
			kept = append(kept, d)
		}
	}
	n.logDelta(category, reason, before, len(kept))
	return kept
}

// logDelta records a drop step as a before/after count delta.
func (n *Normalizer) logDelta(category, reason string, before, after int) {
	if before == after {
		return
	}
	recordDropped(category, reason, before-after)
	n.logger.Info("dropped rows",
		slog.String("category", category),
		slog.String("reason", reason),
		slog.Int("before", before),
		slog.Int("after", after))
}
