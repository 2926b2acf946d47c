package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchantpulse/internal/shared/testutil"
	"merchantpulse/pkg/contracts/domain"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newTestAggregator(t *testing.T) *Aggregator {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return New(logger, WithClock(fixedClock))
}

func txn(date string, amount float64, status domain.TransactionStatus, method domain.PaymentMethod) domain.Transaction {
	created, _ := time.Parse("2006-01-02", date)
	return domain.Transaction{
		TxnID:         "TXN",
		MerchantName:  "Chai Point",
		MerchantID:    "csv-test",
		Amount:        amount,
		PaymentMethod: method,
		Status:        status,
		CreatedAt:     created,
		Date:          date,
	}
}

func TestBusinessPulseEmptyDataset(t *testing.T) {
	a := newTestAggregator(t)

	pulse := a.BusinessPulse(nil)

	require.NotNil(t, pulse)
	assert.Equal(t, domain.DaySummary{}, pulse.Today)
	assert.Equal(t, domain.DaySummary{}, pulse.Yesterday)
	assert.Empty(t, pulse.PaymentMethods)
	assert.Zero(t, pulse.TotalRecords)
	assert.NotEmpty(t, pulse.Message)
}

func TestDaySummary(t *testing.T) {
	tests := []struct {
		name string
		txns []domain.Transaction
		want domain.DaySummary
	}{
		{
			name: "empty subset",
			txns: nil,
			want: domain.DaySummary{},
		},
		{
			name: "mixed statuses",
			txns: []domain.Transaction{
				txn("2024-03-15", 100, domain.StatusSuccess, domain.MethodUPI),
				txn("2024-03-15", 200, domain.StatusSuccess, domain.MethodUPI),
				txn("2024-03-15", 300, domain.StatusSuccess, domain.MethodUPI),
				txn("2024-03-15", 400, domain.StatusSuccess, domain.MethodUPI),
				txn("2024-03-15", 999, domain.StatusFailed, domain.MethodUPI),
			},
			want: domain.DaySummary{
				Revenue:      1000,
				Transactions: 5,
				SuccessRate:  80,
				AvgAmount:    250,
			},
		},
		{
			name: "all failed keeps count but zero revenue",
			txns: []domain.Transaction{
				txn("2024-03-15", 500, domain.StatusFailed, domain.MethodUPI),
				txn("2024-03-15", 500, domain.StatusPending, domain.MethodUPI),
			},
			want: domain.DaySummary{
				Revenue:      0,
				Transactions: 2,
				SuccessRate:  0,
				AvgAmount:    0,
			},
		},
		{
			name: "success rate rounded to two decimals",
			txns: []domain.Transaction{
				txn("2024-03-15", 100, domain.StatusSuccess, domain.MethodUPI),
				txn("2024-03-15", 100, domain.StatusFailed, domain.MethodUPI),
				txn("2024-03-15", 100, domain.StatusFailed, domain.MethodUPI),
			},
			want: domain.DaySummary{
				Revenue:      100,
				Transactions: 3,
				SuccessRate:  33.33,
				AvgAmount:    100,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaySummary(tt.txns))
		})
	}
}

func TestBusinessPulseTodayAndYesterday(t *testing.T) {
	a := newTestAggregator(t)
	txns := []domain.Transaction{
		txn("2024-03-15", 100, domain.StatusSuccess, domain.MethodUPI),
		txn("2024-03-15", 50, domain.StatusFailed, domain.MethodUPI),
		txn("2024-03-14", 300, domain.StatusSuccess, domain.MethodCreditCard),
	}

	pulse := a.BusinessPulse(txns)

	assert.Equal(t, 2, pulse.Today.Transactions)
	assert.InDelta(t, 100, pulse.Today.Revenue, 1e-9)
	assert.Equal(t, 1, pulse.Yesterday.Transactions)
	assert.InDelta(t, 300, pulse.Yesterday.Revenue, 1e-9)
	assert.Equal(t, 3, pulse.TotalRecords)
	assert.Equal(t, "CSV", pulse.DataSource)
}

func TestBusinessPulseDemoFallback(t *testing.T) {
	a := newTestAggregator(t)

	// 60 stale rows, none dated today: "today" falls back to the last 50.
	txns := make([]domain.Transaction, 0, 60)
	for i := 0; i < 60; i++ {
		txns = append(txns, txn("2024-02-01", 10, domain.StatusSuccess, domain.MethodUPI))
	}

	pulse := a.BusinessPulse(txns)

	assert.Equal(t, 50, pulse.Today.Transactions)
	assert.InDelta(t, 500, pulse.Today.Revenue, 1e-9)
}

func TestBusinessPulsePaymentMethodSummaries(t *testing.T) {
	a := newTestAggregator(t)
	txns := []domain.Transaction{
		txn("2024-03-15", 100, domain.StatusSuccess, domain.MethodUPI),
		txn("2024-03-15", 100, domain.StatusFailed, domain.MethodUPI),
		txn("2024-03-15", 500, domain.StatusSuccess, domain.MethodCreditCard),
	}

	pulse := a.BusinessPulse(txns)

	require.Len(t, pulse.PaymentMethods, 2)
	upi := pulse.PaymentMethods["UPI"]
	assert.Equal(t, 2, upi.TransactionCount)
	assert.InDelta(t, 100, upi.TotalRevenue, 1e-9)
	assert.InDelta(t, 50, upi.SuccessRate, 1e-9)

	cc := pulse.PaymentMethods["CREDIT_CARD"]
	assert.Equal(t, 1, cc.TransactionCount)
	assert.InDelta(t, 500, cc.TotalRevenue, 1e-9)
}

func TestBusinessPulseTrends(t *testing.T) {
	a := newTestAggregator(t)
	txns := []domain.Transaction{
		txn("2024-03-15", 100, domain.StatusSuccess, domain.MethodUPI),
		txn("2024-03-14", 200, domain.StatusSuccess, domain.MethodUPI),
		txn("2024-03-14", 999, domain.StatusFailed, domain.MethodUPI),
		// Outside the 7-day trend window.
		txn("2024-03-01", 500, domain.StatusSuccess, domain.MethodCreditCard),
	}

	pulse := a.BusinessPulse(txns)

	require.NotNil(t, pulse.RecentTrends.DailyRevenue)
	assert.InDelta(t, 100, pulse.RecentTrends.DailyRevenue["2024-03-15"], 1e-9)
	assert.InDelta(t, 200, pulse.RecentTrends.DailyRevenue["2024-03-14"], 1e-9)
	assert.NotContains(t, pulse.RecentTrends.DailyRevenue, "2024-03-01")
	assert.Equal(t, "UPI", pulse.RecentTrends.TrendingPaymentMethod)
}

func TestHighValueFailureInsightBoundary(t *testing.T) {
	a := newTestAggregator(t)

	// 10 high-value transactions, exactly 1 failing: rate is exactly the
	// gate, which must NOT fire.
	txns := make([]domain.Transaction, 0, 10)
	for i := 0; i < 9; i++ {
		txns = append(txns, txn("2024-03-15", 6000, domain.StatusSuccess, domain.MethodUPI))
	}
	txns = append(txns, txn("2024-03-15", 6000, domain.StatusFailed, domain.MethodUPI))

	insights := a.GrowthInsights(txns)
	assert.Empty(t, insights)

	// A second failure pushes the rate to 0.2 and fires the rule.
	txns = append(txns, txn("2024-03-15", 7000, domain.StatusFailed, domain.MethodUPI))
	insights = a.GrowthInsights(txns)
	require.Len(t, insights, 1)
	assert.Equal(t, domain.InsightHighValueFailures, insights[0].Type)
	assert.Contains(t, insights[0].Description, "18.2%")
}

func TestHighValueFailureIgnoresLowValueFailures(t *testing.T) {
	a := newTestAggregator(t)
	txns := []domain.Transaction{
		txn("2024-03-15", 100, domain.StatusFailed, domain.MethodUPI),
		txn("2024-03-15", 200, domain.StatusFailed, domain.MethodUPI),
		txn("2024-03-15", 6000, domain.StatusSuccess, domain.MethodUPI),
	}

	insights := a.GrowthInsights(txns)
	assert.Empty(t, insights)
}

func TestPaymentMethodGapInsight(t *testing.T) {
	a := newTestAggregator(t)

	txns := []domain.Transaction{
		// UPI: 100% success.
		txn("2024-03-15", 100, domain.StatusSuccess, domain.MethodUPI),
		txn("2024-03-15", 100, domain.StatusSuccess, domain.MethodUPI),
		// WALLET: 50% success, gap 0.5 > 0.1.
		txn("2024-03-15", 100, domain.StatusSuccess, domain.MethodWallet),
		txn("2024-03-15", 100, domain.StatusFailed, domain.MethodWallet),
	}

	insights := a.GrowthInsights(txns)
	require.Len(t, insights, 1)
	assert.Equal(t, domain.InsightPaymentMethodGap, insights[0].Type)
	assert.Contains(t, insights[0].Description, "UPI")
	assert.Contains(t, insights[0].Description, "WALLET")
	assert.Contains(t, insights[0].Recommendation, "UPI")
}

func TestPaymentMethodGapRequiresTwoMethods(t *testing.T) {
	a := newTestAggregator(t)
	txns := []domain.Transaction{
		txn("2024-03-15", 100, domain.StatusSuccess, domain.MethodUPI),
		txn("2024-03-15", 100, domain.StatusFailed, domain.MethodUPI),
	}

	assert.Empty(t, a.GrowthInsights(txns))
}

func TestPaymentMethodGapBoundaryNotStrict(t *testing.T) {
	a := newTestAggregator(t)

	// UPI 100%, WALLET 90%: gap exactly 0.1 must not fire.
	txns := []domain.Transaction{
		txn("2024-03-15", 100, domain.StatusSuccess, domain.MethodUPI),
	}
	for i := 0; i < 9; i++ {
		txns = append(txns, txn("2024-03-15", 100, domain.StatusSuccess, domain.MethodWallet))
	}
	txns = append(txns, txn("2024-03-15", 100, domain.StatusFailed, domain.MethodWallet))

	assert.Empty(t, a.GrowthInsights(txns))
}

func TestGrowthInsightsEmptyDataset(t *testing.T) {
	a := newTestAggregator(t)
	insights := a.GrowthInsights(nil)
	require.NotNil(t, insights)
	assert.Empty(t, insights)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, 0.0, sanitize(math.NaN()))
	assert.Equal(t, 0.0, sanitize(math.Inf(1)))
	assert.Equal(t, 0.0, sanitize(math.Inf(-1)))
	assert.Equal(t, 42.5, sanitize(42.5))
}
