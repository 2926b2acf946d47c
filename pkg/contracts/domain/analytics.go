package domain

// DaySummary is a pure rollup over the transactions of one calendar date.
// Revenue and AvgAmount cover successful transactions only; Transactions
// counts every status. An empty subset yields the zero value, never an error.
type DaySummary struct {
	Revenue      float64 `json:"revenue"`
	Transactions int     `json:"transactions"`
	SuccessRate  float64 `json:"success_rate"`
	AvgAmount    float64 `json:"avg_amount"`
}

// PaymentMethodSummary is the same rollup shape grouped by payment method
// over an arbitrary window.
type PaymentMethodSummary struct {
	TotalRevenue     float64 `json:"total_revenue"`
	TransactionCount int     `json:"transaction_count"`
	SuccessRate      float64 `json:"success_rate"`
	AvgAmount        float64 `json:"avg_amount"`
}

// Trends carries the trailing-window trend metrics of a business pulse.
type Trends struct {
	// DailyRevenue maps ISO calendar dates to successful revenue for the
	// trailing seven days.
	DailyRevenue map[string]float64 `json:"daily_revenue_trend,omitempty"`
	// TrendingPaymentMethod is the dominant method by raw transaction count.
	TrendingPaymentMethod string `json:"trending_payment_method,omitempty"`
}

// BusinessPulse is the top-level analytics result handed to callers. All
// float fields are sanitized: no NaN or infinite value ever crosses this
// boundary.
type BusinessPulse struct {
	Today          DaySummary                      `json:"today"`
	Yesterday      DaySummary                      `json:"yesterday"`
	PaymentMethods map[string]PaymentMethodSummary `json:"payment_methods"`
	RecentTrends   Trends                          `json:"recent_trends"`
	DataSource     string                          `json:"data_source"`
	TotalRecords   int                             `json:"total_records"`
	Summary        DataSummary                     `json:"summary"`
	Message        string                          `json:"message,omitempty"`
}

// GrowthInsight is one rule-evaluation result. Insights are derived on
// demand and never stored.
type GrowthInsight struct {
	Type           string `json:"type"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// Insight rule type identifiers.
const (
	InsightHighValueFailures = "HIGH_VALUE_FAILURES"
	InsightPaymentMethodGap  = "PAYMENT_METHOD_OPTIMIZATION"
)

// DateRange bounds the resolved timestamps of a loaded dataset.
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// DataSummary is the debug/introspection surface exposed to the request
// layer: per-category row counts and the shape of the cleaned dataset.
type DataSummary struct {
	TransactionsLoaded int       `json:"transactions_loaded"`
	SettlementsLoaded  int       `json:"settlements_loaded"`
	SupportLoaded      int       `json:"support_loaded"`
	DateRange          DateRange `json:"date_range"`
	Merchants          []string  `json:"merchants"`
	TotalMerchants     int       `json:"total_merchants"`
	TotalAmount        float64   `json:"total_amount"`
	PaymentMethods     []string  `json:"payment_methods"`
	Statuses           []string  `json:"transaction_statuses"`
}
