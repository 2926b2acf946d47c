package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"merchantpulse/pkg/contracts/domain"
)

// columnMapping maps an export-specific column name onto its canonical name.
type columnMapping struct {
	source    string
	canonical string
}

// transactionColumnMappings is the fixed synonym table of the transaction
// export schema. Order matters: earlier mappings win when two sources could
// fill the same canonical column.
var transactionColumnMappings = []columnMapping{
	{"transaction_id", "txn_id"},
	{"merchant_display_name", "merchant_name"},
	{"txn_status_name", "status"},
	{"payment_mode_name", "payment_method"},
	{"transaction_start_date_time", "created_at"},
	{"acquirer_name", "gateway"},
	{"txn_completion_date_time", "completed_at"},
	{"transaction_type_name", "transaction_type"},
}

// settlementColumnMappings covers the settlement export schema.
var settlementColumnMappings = []columnMapping{
	{"merchant_display_name", "merchant_name"},
	{"settlement_amount", "amount"},
	{"actual_txn_amount", "amount"},
	{"transaction_start_date_time", "settlement_date"},
}

// requiredTransactionColumns must hold a value in every retained row.
// Partial records are discarded rather than repaired.
var requiredTransactionColumns = []string{"txn_id", "amount", "merchant_name", "created_at"}

// statusSynonyms maps uppercased raw status values onto the canonical
// vocabulary. Values outside the table are dropped.
var statusSynonyms = map[string]domain.TransactionStatus{
	"SUCCESS":    domain.StatusSuccess,
	"SUCCESSFUL": domain.StatusSuccess,
	"CAPTURED":   domain.StatusSuccess,
	"SETTLED":    domain.StatusSuccess,
	"COMPLETED":  domain.StatusSuccess,
	"APPROVED":   domain.StatusSuccess,
	"FAILED":     domain.StatusFailed,
	"FAILURE":    domain.StatusFailed,
	"DECLINED":   domain.StatusFailed,
	"TIMEOUT":    domain.StatusFailed,
	"ERROR":      domain.StatusFailed,
	"REJECTED":   domain.StatusFailed,
	"PENDING":    domain.StatusPending,
	"INITIATED":  domain.StatusPending,
	"PROCESSING": domain.StatusPending,
}

// paymentMethodSynonyms maps uppercased raw payment modes onto canonical
// tokens. Unmapped values pass through as their uppercased original.
var paymentMethodSynonyms = map[string]domain.PaymentMethod{
	"UPI":         domain.MethodUPI,
	"CREDIT CARD": domain.MethodCreditCard,
	"CREDIT_CARD": domain.MethodCreditCard,
	"DEBIT CARD":  domain.MethodDebitCard,
	"DEBIT_CARD":  domain.MethodDebitCard,
	"NET BANKING": domain.MethodNetBanking,
	"NET_BANKING": domain.MethodNetBanking,
	"WALLET":      domain.MethodWallet,
	"EMI":         domain.MethodEMI,
}

// timestampCandidates is the ordered list of columns tried when resolving a
// usable timestamp. The first column where a majority of rows parse wins.
var timestampCandidates = []string{
	"created_at",
	"transaction_start_date_time",
	"sale_txn_date_time",
	"txn_completion_date_time",
}

// settlementDateCandidates is the equivalent list for settlement exports.
var settlementDateCandidates = []string{
	"settlement_date",
	"transaction_start_date_time",
	"created_at",
}

// timestampLayouts covers the formats observed across upstream exports.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
}

// parseTimestamp tries every known layout in order.
func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAmount coerces a raw cell to a number, tolerating thousands
// separators and currency whitespace. ParseFloat accepts "NaN" and "Inf"
// literals; those are rejected here so non-finite values never enter the
// cleaned dataset or its median.
func parseAmount(value string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
