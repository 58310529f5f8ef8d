// Package history records rendered pipelines in a SQLite database so earlier
// commands can be listed and replayed.
//
// Each render gets a UUID run ID that also tags the log records emitted while
// it was produced. Schema changes ship as numbered SQL files under
// migrations/ and are applied in order on Open.
package history
