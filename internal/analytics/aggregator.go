// Package analytics computes day-scoped rollups, payment-method breakdowns,
// trailing-window trends, and threshold-based growth insights over the
// normalized transaction dataset. All computation is pure with respect to
// its input slice and performs no I/O.
package analytics

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"merchantpulse/pkg/contracts/domain"
)

// Rule thresholds. The insight rules are simple ratios, not statistical
// inference; boundaries are strict (>, not >=).
const (
	// highValueThreshold is the amount above which a transaction counts as
	// high-value for the failure rule.
	highValueThreshold = 5000.0
	// highValueFailureGate is the non-success fraction a high-value subset
	// must strictly exceed to emit an insight.
	highValueFailureGate = 0.10
	// methodGapGate is the success-rate spread (as a fraction) the best and
	// worst payment methods must strictly exceed to emit an insight.
	methodGapGate = 0.10
	// demoFallbackRows is the number of most recent rows substituted for an
	// empty "today" so a demo merchant never appears broken.
	demoFallbackRows = 50
	// trendDays is the trailing window of the daily revenue trend.
	trendDays = 7
)

// Aggregator derives business metrics from normalized transactions. The
// clock is injectable for deterministic tests.
type Aggregator struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the processing-time clock.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// New creates an aggregator.
func New(logger *slog.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Aggregator{logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BusinessPulse computes the full pulse over an already-windowed transaction
// slice. An empty slice yields an all-zero, well-formed result.
func (a *Aggregator) BusinessPulse(txns []domain.Transaction) *domain.BusinessPulse {
	if len(txns) == 0 {
		return emptyPulse()
	}

	a.logger.Debug("computing business pulse", slog.Int("transactions", len(txns)))

	today := a.now().Format("2006-01-02")
	yesterday := a.now().AddDate(0, 0, -1).Format("2006-01-02")

	todayRows := filterByDate(txns, today)
	yesterdayRows := filterByDate(txns, yesterday)

	// Demo fallback: an empty "today" substitutes the most recent rows so
	// stale sample data still produces a meaningful pulse.
	if len(todayRows) == 0 {
		a.logger.Debug("no rows for today, falling back to most recent rows",
			slog.Int("fallback_rows", demoFallbackRows))
		todayRows = tail(txns, demoFallbackRows)
	}

	return &domain.BusinessPulse{
		Today:          DaySummary(todayRows),
		Yesterday:      DaySummary(yesterdayRows),
		PaymentMethods: a.paymentMethodSummaries(txns),
		RecentTrends:   a.trends(txns),
		DataSource:     "CSV",
		TotalRecords:   len(txns),
	}
}

// DaySummary computes the rollup for an arbitrary row subset. Revenue and
// average amount cover successful rows only; the count covers every status.
// An empty subset yields all-zero fields, never a division error.
func DaySummary(txns []domain.Transaction) domain.DaySummary {
	if len(txns) == 0 {
		return domain.DaySummary{}
	}

	var revenue float64
	successful := 0
	for _, t := range txns {
		if t.IsSuccessful() {
			successful++
			revenue += t.Amount
		}
	}

	avg := 0.0
	if successful > 0 {
		avg = revenue / float64(successful)
	}

	return domain.DaySummary{
		Revenue:      sanitize(revenue),
		Transactions: len(txns),
		SuccessRate:  round2(float64(successful) / float64(len(txns)) * 100),
		AvgAmount:    sanitize(avg),
	}
}

// paymentMethodSummaries groups the window by payment method.
func (a *Aggregator) paymentMethodSummaries(txns []domain.Transaction) map[string]domain.PaymentMethodSummary {
	groups := make(map[string][]domain.Transaction)
	for _, t := range txns {
		method := string(t.PaymentMethod)
		if method == "" {
			continue
		}
		groups[method] = append(groups[method], t)
	}

	summaries := make(map[string]domain.PaymentMethodSummary, len(groups))
	for method, rows := range groups {
		day := DaySummary(rows)
		summaries[method] = domain.PaymentMethodSummary{
			TotalRevenue:     day.Revenue,
			TransactionCount: day.Transactions,
			SuccessRate:      day.SuccessRate,
			AvgAmount:        day.AvgAmount,
		}
	}
	return summaries
}

// trends computes the trailing-7-day successful revenue per date and the
// dominant payment method by raw transaction count.
func (a *Aggregator) trends(txns []domain.Transaction) domain.Trends {
	trends := domain.Trends{}

	cutoff := a.now().AddDate(0, 0, -trendDays).Format("2006-01-02")
	daily := make(map[string]float64)
	for _, t := range txns {
		if t.Date >= cutoff && t.IsSuccessful() {
			daily[t.Date] += t.Amount
		}
	}
	if len(daily) > 0 {
		for date, revenue := range daily {
			daily[date] = sanitize(revenue)
		}
		trends.DailyRevenue = daily
	}

	counts := make(map[string]int)
	for _, t := range txns {
		counts[string(t.PaymentMethod)]++
	}
	trends.TrendingPaymentMethod = dominantKey(counts)

	return trends
}

// GrowthInsights evaluates the fixed rule set over an already-windowed
// transaction slice. Rules are independent and additive; absence of data for
// a rule silently omits that insight.
func (a *Aggregator) GrowthInsights(txns []domain.Transaction) []domain.GrowthInsight {
	insights := []domain.GrowthInsight{}
	if len(txns) == 0 {
		return insights
	}

	if insight, ok := a.highValueFailureInsight(txns); ok {
		insights = append(insights, insight)
	}
	if insight, ok := a.paymentMethodGapInsight(txns); ok {
		insights = append(insights, insight)
	}

	a.logger.Debug("growth insights evaluated",
		slog.Int("transactions", len(txns)),
		slog.Int("insights", len(insights)))
	return insights
}

// highValueFailureInsight fires when the non-success fraction of high-value
// transactions strictly exceeds the gate.
func (a *Aggregator) highValueFailureInsight(txns []domain.Transaction) (domain.GrowthInsight, bool) {
	var total, failed int
	for _, t := range txns {
		if t.Amount >= highValueThreshold {
			total++
			if !t.IsSuccessful() {
				failed++
			}
		}
	}
	if total == 0 {
		return domain.GrowthInsight{}, false
	}

	failureRate := float64(failed) / float64(total)
	if failureRate <= highValueFailureGate {
		return domain.GrowthInsight{}, false
	}

	return domain.GrowthInsight{
		Type:  domain.InsightHighValueFailures,
		Title: "High-Value Transaction Issues",
		Description: fmt.Sprintf("%.1f%% of transactions above ₹%.0f are failing",
			failureRate*100, highValueThreshold),
		Recommendation: "Consider enabling EMI or alternative payment methods for high-value orders",
	}, true
}

// paymentMethodGapInsight fires when the success-rate spread between the
// best and worst payment methods strictly exceeds the gate. Requires at
// least two distinct methods.
func (a *Aggregator) paymentMethodGapInsight(txns []domain.Transaction) (domain.GrowthInsight, bool) {
	type methodRate struct {
		method string
		rate   float64
	}

	totals := make(map[string]int)
	successes := make(map[string]int)
	for _, t := range txns {
		method := string(t.PaymentMethod)
		totals[method]++
		if t.IsSuccessful() {
			successes[method]++
		}
	}
	if len(totals) < 2 {
		return domain.GrowthInsight{}, false
	}

	rates := make([]methodRate, 0, len(totals))
	for method, total := range totals {
		rates = append(rates, methodRate{
			method: method,
			rate:   float64(successes[method]) / float64(total),
		})
	}
	sort.Slice(rates, func(i, j int) bool {
		if rates[i].rate != rates[j].rate {
			return rates[i].rate > rates[j].rate
		}
		return rates[i].method < rates[j].method
	})

	best, worst := rates[0], rates[len(rates)-1]
	if best.rate-worst.rate <= methodGapGate {
		return domain.GrowthInsight{}, false
	}

	return domain.GrowthInsight{
		Type:  domain.InsightPaymentMethodGap,
		Title: "Payment Method Performance Gap",
		Description: fmt.Sprintf("%s has %.1f%% success rate vs %s at %.1f%%",
			best.method, best.rate*100, worst.method, worst.rate*100),
		Recommendation: fmt.Sprintf("Promote %s as the preferred payment method", best.method),
	}, true
}

func emptyPulse() *domain.BusinessPulse {
	return &domain.BusinessPulse{
		PaymentMethods: map[string]domain.PaymentMethodSummary{},
		RecentTrends:   domain.Trends{},
		DataSource:     "CSV",
		Message:        "No data found - check source files in the data directory",
	}
}

func filterByDate(txns []domain.Transaction, date string) []domain.Transaction {
	var out []domain.Transaction
	for _, t := range txns {
		if t.Date == date {
			out = append(out, t)
		}
	}
	return out
}

// tail returns the last n elements without copying.
func tail(txns []domain.Transaction, n int) []domain.Transaction {
	if len(txns) <= n {
		return txns
	}
	return txns[len(txns)-n:]
}

// dominantKey returns the key with the highest count, lowest key winning
// ties for deterministic output.
func dominantKey(counts map[string]int) string {
	best := ""
	bestCount := 0
	for key, count := range counts {
		if key == "" {
			continue
		}
		if count > bestCount || (count == bestCount && (best == "" || key < best)) {
			best = key
			bestCount = count
		}
	}
	return best
}

// sanitize coerces NaN and infinite values to 0 so they never cross the
// caller boundary.
func sanitize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// round2 rounds to two decimals after sanitizing.
func round2(f float64) float64 {
	return math.Round(sanitize(f)*100) / 100
}
