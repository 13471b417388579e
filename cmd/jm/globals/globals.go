// Package globals holds CLI flags shared across every jm subcommand.
package globals

// Globals are flags available to every subcommand, adapted from
// a-h-depot's cmd/globals package.
type Globals struct {
	Verbose bool `name:"debug" help:"Enable debug logging" short:"v" env:"JM_VERBOSE"`
}
