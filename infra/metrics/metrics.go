package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	CommandsTotal      = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "matchbook_commands_total", Help: "Commands applied to the book by directive"}, []string{"op"})
	RejectionsTotal    = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "matchbook_rejections_total", Help: "Commands rejected by directive and reason"}, []string{"op", "reason"})
	CommandLatency     = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "matchbook_command_latency_seconds", Help: "Time spent applying a command, cascade included", Buckets: prometheus.ExponentialBuckets(1e-7, 4, 12)}, []string{"op"})
	TradesTotal        = prometheus.NewCounter(prometheus.CounterOpts{Name: "matchbook_trades_total", Help: "Fills between a taker and a resting order"})
	TradedVolume       = prometheus.NewCounter(prometheus.CounterOpts{Name: "matchbook_traded_volume_total", Help: "Shares traded"})
	ExecutedOrders     = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "matchbook_executed_orders_total", Help: "Resting orders executed, by outcome"}, []string{"outcome"})
	StopTriggersTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "matchbook_stop_triggers_total", Help: "Stop and stop-limit orders activated"})
	RebalancesTotal    = prometheus.NewCounter(prometheus.CounterOpts{Name: "matchbook_tree_rebalances_total", Help: "AVL rotation cases applied"})
	DroppedQuantity    = prometheus.NewCounter(prometheus.CounterOpts{Name: "matchbook_dropped_quantity_total", Help: "Market quantity discarded for lack of liquidity"})
	RestingOrders      = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "matchbook_resting_orders", Help: "Resting orders by kind"}, []string{"kind"})
	PriceLevels        = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "matchbook_price_levels", Help: "Price levels by tree"}, []string{"tree"})
	OutboxPublishTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "matchbook_outbox_publish_total", Help: "Outbox publish attempts by result"}, []string{"result"})
	SnapshotsTotal     = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "matchbook_snapshots_total", Help: "Snapshot runs by result"}, []string{"result"})
	WSClients          = prometheus.NewGauge(prometheus.GaugeOpts{Name: "matchbook_ws_clients", Help: "Connected market-data subscribers"})
)

func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		CommandsTotal, RejectionsTotal, CommandLatency,
		TradesTotal, TradedVolume, ExecutedOrders, StopTriggersTotal, RebalancesTotal, DroppedQuantity,
		RestingOrders, PriceLevels,
		OutboxPublishTotal, SnapshotsTotal, WSClients,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info().Msg("prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
