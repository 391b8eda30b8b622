/*
Package observability provides Prometheus instrumentation for stategraph.

Metrics cover tool invocations (count, outcome, latency), refinement mutations
and the size of the graph currently served to navigation. All methods are
safe on a nil *Metrics, so instrumentation stays optional for library users.
*/
package observability
