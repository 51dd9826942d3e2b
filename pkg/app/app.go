// Package app defines common runtime contracts shared by different
// executable entrypoints (bridge server, relayer, migration runner) and
// assembles the bridge core they run on.
package app

// Runner represents a runnable application component.
type Runner interface {
	Run() error
}
