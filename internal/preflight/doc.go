// Package preflight provides readiness checks for the files, directories and
// devices a rendered pipeline touches.
//
// The CLI "nvrgraph check" command runs RunAll plus CheckSystemDeps and
// prints one status line per result. Checks never modify the filesystem.
package preflight
