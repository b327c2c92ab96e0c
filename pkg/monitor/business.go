package monitor

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// BusinessMetrics 定义业务监控指标
type BusinessMetrics struct {
	LotsCreatedTotal     prometheus.Counter
	LotsSoldTotal        prometheus.Counter
	LotsCanceledTotal    prometheus.Counter
	ActiveLots           prometheus.Gauge
	VouchersRedeemed     *prometheus.CounterVec
	PayoutAmountTotal    *prometheus.CounterVec
	OperationErrorsTotal *prometheus.CounterVec
	AuditMismatchTotal   prometheus.Counter
}

// Business 全局实例，未 Init 时为 nil，所有方法对 nil 安全 (单元测试不注册指标)
var Business *BusinessMetrics

// InitBusinessMetrics 初始化业务指标
func InitBusinessMetrics() {
	Business = &BusinessMetrics{
		LotsCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "market_lots_created_total",
			Help: "The total number of lots created",
		}),
		LotsSoldTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "market_lots_sold_total",
			Help: "The total number of lots sold out",
		}),
		LotsCanceledTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "market_lots_canceled_total",
			Help: "The total number of lots canceled",
		}),
		ActiveLots: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "market_active_lots",
			Help: "Current active lot counter",
		}),
		VouchersRedeemed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "market_vouchers_redeemed_total",
			Help: "Vouchers redeemed, by fulfillment path",
		}, []string{"path"}),
		PayoutAmountTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "market_payout_amount_total",
			Help: "Total amount paid out, by role (base units)",
		}, []string{"role"}),
		OperationErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "market_operation_errors_total",
			Help: "Failed operations, by operation and error code",
		}, []string{"op", "code"}),
		AuditMismatchTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "market_audit_mismatch_total",
			Help: "Times the active lot counter disagreed with the lot table",
		}),
	}
}

func (m *BusinessMetrics) LotCreated() {
	if m == nil {
		return
	}
	m.LotsCreatedTotal.Inc()
}

func (m *BusinessMetrics) LotSold() {
	if m == nil {
		return
	}
	m.LotsSoldTotal.Inc()
}

func (m *BusinessMetrics) LotCanceled() {
	if m == nil {
		return
	}
	m.LotsCanceledTotal.Inc()
}

func (m *BusinessMetrics) SetActiveLots(n uint64) {
	if m == nil {
		return
	}
	m.ActiveLots.Set(float64(n))
}

// VoucherRedeemed path: mint / transfer
func (m *BusinessMetrics) VoucherRedeemed(path string) {
	if m == nil {
		return
	}
	m.VouchersRedeemed.WithLabelValues(path).Inc()
}

func (m *BusinessMetrics) Payout(role string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	f, _ := amount.Float64()
	m.PayoutAmountTotal.WithLabelValues(role).Add(f)
}

func (m *BusinessMetrics) OperationFailed(op string, code int) {
	if m == nil {
		return
	}
	m.OperationErrorsTotal.WithLabelValues(op, strconv.Itoa(code)).Inc()
}

func (m *BusinessMetrics) AuditMismatch() {
	if m == nil {
		return
	}
	m.AuditMismatchTotal.Inc()
}
