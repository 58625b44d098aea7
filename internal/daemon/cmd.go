package daemon

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/telekom-mms/portal-autologin/internal/daemoncfg"
	"github.com/telekom-mms/portal-autologin/internal/logging"
	"golang.org/x/sys/unix"
)

var (
	// Version is the daemon version, to be set at compile time
	Version = "unknown"
)

// command line argument names
const (
	argConfig  = "config"
	argVerbose = "verbose"
	argVersion = "version"
)

// flagIsSet returns whether flag with name is set as command line argument
func flagIsSet(flags *flag.FlagSet, name string) bool {
	isSet := false
	flags.Visit(func(f *flag.Flag) {
		if name == f.Name {
			isSet = true
		}
	})
	return isSet
}

// console is the console output of the logger, stderr or a test buffer.
var console io.Writer = os.Stderr

// notifyContext is signal.NotifyContext for testing.
var notifyContext = signal.NotifyContext

// run is the main entry point for the daemon with command line arguments
// args. Configuration errors are returned before any network request.
func run(args []string) error {
	// parse command line arguments
	defaults := daemoncfg.NewConfig()
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	cfgFile := flags.String(argConfig, defaults.Config, "set config `file`")
	verbose := flags.Bool(argVerbose, defaults.Verbose, "enable verbose output")
	version := flags.Bool(argVersion, false, "print version")
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}

	// print version?
	if *version {
		fmt.Fprintln(console, Version)
		return nil
	}

	// load config
	config := daemoncfg.NewConfig()
	config.Config = *cfgFile
	if err := config.Load(); err != nil {
		if errors.Is(err, daemoncfg.ErrPlaceholderCredentials) {
			return fmt.Errorf("please update %s with your actual "+
				"username and password: %w", config.Config, err)
		}
		return err
	}

	// overwrite config settings with command line arguments
	if flagIsSet(flags, argVerbose) {
		config.Verbose = *verbose
	}

	// set verbose log level
	if config.Verbose {
		config.Logging.Level = logrus.DebugLevel.String()
	}

	// set up logging to console and log file
	logger, closer, err := logging.New(config.Logging, console)
	if err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}
	defer func() {
		_ = closer.Close()
	}()
	logger.WithField("config", config).Debug("Daemon loaded config")

	// catch interrupt and terminate signals
	ctx, stop := notifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()

	// run daemon
	daemon := NewDaemon(config, logger)
	if err := daemon.Run(ctx); err != nil {
		return err
	}
	logger.Info("Daemon stopped by signal")
	return nil
}

// exit is os.Exit for testing.
var exit = os.Exit

// logError logs err to the console and the default log file, the config
// and its log settings may not be available when run fails.
func logError(err error) {
	config := daemoncfg.NewLogging()
	logger, closer, lerr := logging.New(config, console)
	if lerr != nil {
		config.File = ""
		logger, closer, _ = logging.New(config, console)
		logger.WithError(lerr).Warn("Daemon could not open log file")
	}
	defer func() {
		_ = closer.Close()
	}()
	logger.WithError(err).Error("Daemon stopped with error")
}

// Run is the main entry point for the daemon.
func Run() {
	if err := run(os.Args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logError(err)
		exit(1)
	}
}
