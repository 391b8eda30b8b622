/*
Package navigator answers read-only queries over a state-action graph:
shortest-path search towards a natural-language goal, fuzzy state
identification and action lookup.

A Navigator works on a private snapshot taken at construction. It never
observes later mutations of the source graph; callers that refine a graph must
build a new Navigator (see Rebuild) once transitions change. Because the
snapshot is immutable, a Navigator is safe for concurrent queries.
*/
package navigator
