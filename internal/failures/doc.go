// Package failures defines the error markers shared by nvrgraph packages.
//
// Errors are tagged with one of the exported sentinels through Wrap so that
// callers (mainly the CLI) can classify them with errors.Is and pick an exit
// code without parsing messages.
package failures
