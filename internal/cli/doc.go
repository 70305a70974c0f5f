// Package cli turns the shadergrid command line into an app.Config and maps
// failures onto process exit codes: 2 for usage and configuration problems,
// 1 for failed builds.
package cli
