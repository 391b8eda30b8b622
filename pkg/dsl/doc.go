/*
Package dsl provides a fluent builder for state-action graph documents.

It is an alternative to hand-written JSON or YAML when a graph is produced by
code: fixtures in tests, synthetic graphs, or scanners written in Go. States
and actions keep their declaration order, and transitions keep the order in
which they are declared.

Example usage:

	b := dsl.New()

	b.Action("open_save").
		Labels("Save file", "Quick save").
		Trigger("click #save")

	b.State("home").
		Labels("Home screen").
		On("open_save", "save_modal_open")

	b.State("save_modal_open").
		Labels("Save modal")

	g, err := b.Graph()
	if err != nil {
		// a state or action was declared without an id
	}
	nav := navigator.New(g)
*/
package dsl
