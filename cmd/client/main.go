// Package main is the chat demo command line client: account and phone
// login, session hydration and message forwarding/editing against the
// local chat provider.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/atinyakov/chatdemo/internal/chaterr"
	"github.com/atinyakov/chatdemo/internal/config"
)

var (
	version   string
	buildDate string
)

func main() {
	config.LoadDotenv()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 1 for chat errors and 2 for anything else (usage, config).
func exitCode(err error) int {
	var ce *chaterr.Error
	if errors.As(err, &ce) {
		return 1
	}
	return 2
}
