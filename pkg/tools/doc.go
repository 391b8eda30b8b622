/*
Package tools exposes the navigation and refinement engines as named,
schema-typed tools with textual results, the shape in which transports
(MCP, HTTP, CLI) and external decision loops consume them.

Navigation tools read an immutable Navigator snapshot. Refinement tools act
on a session through session.Manager; when they mutate the default session,
the Toolbox rebuilds the navigation snapshot from the refined graph so that
later queries observe the change.

Not-found conditions are reported in the result (Result.NotFound) rather than
as errors, so a caller can retry with other parameters.
*/
package tools
