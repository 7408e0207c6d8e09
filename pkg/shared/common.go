package shared

import "github.com/spf13/pflag"

// HasFlags returns true if at least one flag was set on the command line.
func HasFlags(flags *pflag.FlagSet) bool {
	has := false
	flags.Visit(func(f *pflag.Flag) {
		has = true
	})
	return has
}
