package todos

import "github.com/prometheus/client_golang/prometheus"

const (
	resultUnchanged = "unchanged"
	resultCorrected = "corrected"
	resultVanished  = "vanished"
	resultFailed    = "failed"
)

var reconcileTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "todo_reconcile_total",
		Help: "Due-date reconciliations by outcome",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(reconcileTotal)
}
