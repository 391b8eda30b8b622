/*
Package refiner detects duplicate and low-value states in a state-action graph
and applies structural edits (merge, remove, relabel) that keep transitions
consistent.

Detection is driven by pluggable heuristics: a Grouper clusters states that
look equivalent, a LowValueRule flags states that are unlikely to be
user-perceivable. The defaults encode the naming conventions of the scanner
output (modal open/closed pairs, *_empty / *_present data states, "ready to"
states); alternative schemes plug in through WithGroupers and
WithLowValueRules without touching the mutation machinery.

Mutations are permissive: ids that do not exist are ignored rather than
reported. Callers that need confirmation check postconditions themselves
(HasState, Counts). A Refiner is not safe for concurrent use; see package
session for serialized access.
*/
package refiner
