package normalize

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchantpulse/internal/dataset"
)

func settlementDataset(rows ...dataset.Row) *dataset.Dataset {
	ds := dataset.New([]string{"merchant_name", "amount", "settlement_date"})
	ds.Rows = rows
	return ds
}

func TestSettlementsEmptyDataset(t *testing.T) {
	n := newTestNormalizer(t)
	settlements := n.Settlements(dataset.New(nil))
	require.NotNil(t, settlements)
	assert.Empty(t, settlements)
}

func TestSettlementsHappyPath(t *testing.T) {
	n := newTestNormalizer(t)
	settlements := n.Settlements(settlementDataset(dataset.Row{
		"merchant_name":   "Chai Point",
		"amount":          "5000",
		"settlement_date": "2024-03-10",
	}))

	require.Len(t, settlements, 1)
	assert.Equal(t, "Chai Point", settlements[0].MerchantName)
	assert.InDelta(t, 5000, settlements[0].Amount, 1e-9)
	assert.Equal(t, "2024-03-10", settlements[0].Date)
}

func TestSettlementsColumnSynonyms(t *testing.T) {
	ds := dataset.New([]string{"merchant_display_name", "settlement_amount", "transaction_start_date_time"})
	ds.Rows = []dataset.Row{{
		"merchant_display_name":       "Dosa Corner",
		"settlement_amount":           "1200",
		"transaction_start_date_time": "2024-03-11 08:00:00",
	}}

	n := newTestNormalizer(t)
	settlements := n.Settlements(ds)

	require.Len(t, settlements, 1)
	assert.Equal(t, "Dosa Corner", settlements[0].MerchantName)
	assert.InDelta(t, 1200, settlements[0].Amount, 1e-9)
	assert.Equal(t, "2024-03-11", settlements[0].Date)
}

func TestSettlementsDropRules(t *testing.T) {
	tests := []struct {
		name string
		row  dataset.Row
	}{
		{"missing merchant", dataset.Row{"amount": "100", "settlement_date": "2024-03-10"}},
		{"non-numeric amount", dataset.Row{"merchant_name": "X", "amount": "abc", "settlement_date": "2024-03-10"}},
		{"NaN amount", dataset.Row{"merchant_name": "X", "amount": "NaN", "settlement_date": "2024-03-10"}},
		{"infinite amount", dataset.Row{"merchant_name": "X", "amount": "+Inf", "settlement_date": "2024-03-10"}},
		{"negative amount", dataset.Row{"merchant_name": "X", "amount": "-10", "settlement_date": "2024-03-10"}},
		{"future date", dataset.Row{"merchant_name": "X", "amount": "100", "settlement_date": "2030-01-01"}},
		{"unparseable date", dataset.Row{"merchant_name": "X", "amount": "100", "settlement_date": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNormalizer(t)
			settlements := n.Settlements(settlementDataset(tt.row))
			assert.Empty(t, settlements)
		})
	}
}

func TestSettlementsZeroAmountKept(t *testing.T) {
	n := newTestNormalizer(t)
	settlements := n.Settlements(settlementDataset(dataset.Row{
		"merchant_name":   "Chai Point",
		"amount":          "0",
		"settlement_date": "2024-03-10",
	}))
	require.Len(t, settlements, 1)
	assert.Zero(t, settlements[0].Amount)
}

func TestSettlementsMinorUnitOnMedianAlone(t *testing.T) {
	// No indicator column: the settlement export converts on the median
	// check by itself.
	rows := make([]dataset.Row, 0, 3)
	for i := 0; i < 3; i++ {
		rows = append(rows, dataset.Row{
			"merchant_name":   fmt.Sprintf("M%d", i),
			"amount":          "150000",
			"settlement_date": "2024-03-10",
		})
	}

	n := newTestNormalizer(t)
	settlements := n.Settlements(settlementDataset(rows...))

	require.Len(t, settlements, 3)
	for _, s := range settlements {
		assert.InDelta(t, 1500, s.Amount, 1e-9)
	}
}

func TestSettlementsNonFiniteAmountDoesNotPoisonMedian(t *testing.T) {
	// A "NaN" cell must be dropped outright; were it retained, the median
	// would become NaN and silently disable the minor-unit conversion for
	// every other row.
	rows := []dataset.Row{
		{"merchant_name": "Chai Point", "amount": "NaN", "settlement_date": "2024-03-10"},
	}
	for i := 0; i < 3; i++ {
		rows = append(rows, dataset.Row{
			"merchant_name":   fmt.Sprintf("M%d", i),
			"amount":          "150000",
			"settlement_date": "2024-03-10",
		})
	}

	n := newTestNormalizer(t)
	settlements := n.Settlements(settlementDataset(rows...))

	require.Len(t, settlements, 3)
	for _, s := range settlements {
		require.False(t, math.IsNaN(s.Amount))
		assert.InDelta(t, 1500, s.Amount, 1e-9)
	}
}

func TestSettlementsNoDateColumnDropsAll(t *testing.T) {
	ds := dataset.New([]string{"merchant_name", "amount"})
	ds.Rows = []dataset.Row{{"merchant_name": "X", "amount": "100"}}

	n := newTestNormalizer(t)
	assert.Empty(t, n.Settlements(ds))
}

func TestSupportPrunesSparseColumns(t *testing.T) {
	ds := dataset.New([]string{"ticket_id", "mostly_empty"})
	for i := 0; i < 10; i++ {
		ds.Rows = append(ds.Rows, dataset.Row{"ticket_id": fmt.Sprintf("S%d", i)})
	}

	n := newTestNormalizer(t)
	out := n.Support(ds)

	assert.Equal(t, 10, out.Len())
	assert.False(t, out.HasColumn("mostly_empty"))
}
