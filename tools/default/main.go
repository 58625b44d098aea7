/*
Default is a helper tool to print the default values to stdout.
Currently, it can print

- Daemon Configuration File (ini, yaml or json)
*/
package main

import (
	"fmt"
	"os"

	"github.com/telekom-mms/portal-autologin/internal/daemoncfg"
)

// command line arguments.
const (
	DaemonConfig = "daemon-config"
)

// printUsage prints usage.
func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage:\n"+
		"\tdefault %s [%s|%s|%s]\n",
		DaemonConfig, daemoncfg.FormatINI, daemoncfg.FormatYAML,
		daemoncfg.FormatJSON,
	)
}

func main() {
	// make sure command line argument is present
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "command line argument required\n")
		printUsage()
		return
	}

	switch os.Args[1] {

	case DaemonConfig:
		format := daemoncfg.FormatINI
		if len(os.Args) > 2 {
			format = os.Args[2]
		}

		// get default config in format
		b, err := daemoncfg.NewConfig().Marshal(format)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			printUsage()
			return
		}

		// print to stdout
		fmt.Fprintf(os.Stdout, "%s\n", b)

	default:
		// unknown, print error message to stderr
		fmt.Fprintf(os.Stderr, "%s unknown\n", os.Args[1])
		printUsage()
	}
}
