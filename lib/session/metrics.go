package session

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"
)

// process wide counters, exported by the cli with --metrics
var (
	commandsIssued    = metrics.NewCounter("kvs_session_commands_issued_total")
	commandsResolved  = metrics.NewCounter("kvs_session_commands_resolved_total")
	commandsFailed    = metrics.NewCounter("kvs_session_commands_failed_total")
	unexpectedReplies = metrics.NewCounter("kvs_session_unexpected_replies_total")
)

func transitionCounter(to State) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`kvs_session_state_transitions_total{to=%q}`, to.String()))
}

// latencyMetric is the name of the command latency timer in a session's registry
const latencyMetric = "command.latency"

func newRegistry() (gometrics.Registry, gometrics.Timer) {
	registry := gometrics.NewRegistry()
	return registry, gometrics.GetOrRegisterTimer(latencyMetric, registry)
}
