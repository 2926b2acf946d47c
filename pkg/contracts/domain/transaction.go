package domain

import (
	"time"
)

// TransactionStatus is the canonical status vocabulary every raw status
// value is mapped onto during normalization.
type TransactionStatus string

const (
	StatusSuccess TransactionStatus = "SUCCESS"
	StatusFailed  TransactionStatus = "FAILED"
	StatusPending TransactionStatus = "PENDING"
)

// ValidStatuses lists every canonical transaction status.
var ValidStatuses = []TransactionStatus{StatusSuccess, StatusFailed, StatusPending}

// PaymentMethod is a canonical payment method token. Raw values outside the
// known set pass through as their uppercased original rather than being
// dropped, so not every PaymentMethod value is one of the constants below.
type PaymentMethod string

const (
	MethodUPI        PaymentMethod = "UPI"
	MethodCreditCard PaymentMethod = "CREDIT_CARD"
	MethodDebitCard  PaymentMethod = "DEBIT_CARD"
	MethodNetBanking PaymentMethod = "NET_BANKING"
	MethodWallet     PaymentMethod = "WALLET"
	MethodEMI        PaymentMethod = "EMI"
)

// Transaction is the canonical unit the analytics aggregator consumes.
// Instances exist only after the normalizer's required-field and
// type-coercion passes; the raw row shape never crosses this boundary.
type Transaction struct {
	TxnID         string            `json:"txn_id" validate:"required"`
	MerchantName  string            `json:"merchant_name" validate:"required"`
	MerchantID    string            `json:"merchant_id" validate:"required"`
	Amount        float64           `json:"amount" validate:"gt=0,lte=10000000"`
	PaymentMethod PaymentMethod     `json:"payment_method" validate:"required"`
	Status        TransactionStatus `json:"status" validate:"required,oneof=SUCCESS FAILED PENDING"`
	Gateway       string            `json:"gateway,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	Date          string            `json:"date"`
}

// IsSuccessful reports whether the transaction settled successfully.
func (t Transaction) IsSuccessful() bool {
	return t.Status == StatusSuccess
}

// Settlement is the canonical unit for settlement exports. Settlements are
// an independent dataset; they are never joined against transactions.
type Settlement struct {
	MerchantName   string    `json:"merchant_name" validate:"required"`
	Amount         float64   `json:"amount" validate:"gte=0,lte=10000000"`
	SettlementDate time.Time `json:"settlement_date"`
	Date           string    `json:"date"`
}
