package config

import (
	"fmt"
	"os"
)

// Exitf writes a formatted error message to stderr and exits with code.
// Codes below 1 are raised to 1 so a failure never exits successfully.
func Exitf(code int, format string, args ...any) {
	if code < 1 {
		code = 1
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
