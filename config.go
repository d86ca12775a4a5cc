// Copyright (c) 2024 Thereisnosecondbest
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"

	"github.com/Thereisnosecondbest/knotsspamchecker/policy"
)

const (
	defaultConfigFilename = "knotsspamchecker.conf"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "knotsspamchecker.log"
	defaultLogLevel       = "info"
	defaultRPCServer      = "127.0.0.1:8332"
)

var (
	defaultHomeDir    = btcutil.AppDataDir("knotsspamchecker", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
)

// config defines the configuration options for knotsspamchecker.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	LogDir      string `long:"logdir" description:"Directory to log output"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`

	RPCServer string `short:"s" long:"rpcserver" description:"Bitcoin node RPC server to connect to"`
	RPCUser   string `short:"u" long:"rpcuser" description:"Username for node RPC connections"`
	RPCPass   string `short:"P" long:"rpcpass" default-mask:"-" description:"Password for node RPC connections"`

	TxHex  string `long:"tx" description:"Serialized transaction to check, as a hex string"`
	TxFile string `long:"txfile" description:"Read the transaction hex from the specified file instead of --tx (use - for stdin)"`

	MaxTxWeight         int64          `long:"maxtxweight" description:"Maximum sigop-adjusted virtual size of a standard transaction"`
	MaxScriptSize       int            `long:"maxscriptsize" description:"Maximum size in bytes of a standard output script"`
	DustRelayFee        btcutil.Amount `long:"dustrelayfee" description:"Fee in satoshi per 1000 bytes used to compute the dust threshold of an output"`
	BytesPerSigOp       int64          `long:"bytespersigop" description:"Script bytes assumed per potentially-executed signature operation"`
	MaxAncestors        int64          `long:"maxancestors" description:"Maximum number of unconfirmed ancestors"`
	MaxAncestorSizeKB   int64          `long:"maxancestorsizekb" description:"Maximum total size in kilobytes of unconfirmed ancestors"`
	MaxDescendants      int64          `long:"maxdescendants" description:"Maximum number of unconfirmed descendants"`
	MaxDescendantSizeKB int64          `long:"maxdescendantsizekb" description:"Maximum total size in kilobytes of unconfirmed descendants"`
	MinFeeRate          btcutil.Amount `long:"minfeerate" description:"Minimum fee rate in satoshi per 1000 virtual bytes"`
	OverlayMarkers      []string       `long:"overlaymarker" description:"Byte pattern that flags an asset overlay protocol inside a data carrier output -- May be specified multiple times; replaces the built-in set"`
	AllowParasites      bool           `long:"allowparasites" description:"Disable the blanket parasite rejection and let the remaining checks decide"`
}

// defaultConfig returns the configuration with everything set to its default
// value.
func defaultConfig() config {
	return config{
		ConfigFile:          defaultConfigFile,
		LogDir:              defaultLogDir,
		DebugLevel:          defaultLogLevel,
		RPCServer:           defaultRPCServer,
		MaxTxWeight:         policy.DefaultMaxTxWeight,
		MaxScriptSize:       policy.DefaultMaxScriptSize,
		DustRelayFee:        policy.DefaultDustRelayFee,
		BytesPerSigOp:       policy.DefaultBytesPerSigOp,
		MaxAncestors:        policy.DefaultMaxAncestors,
		MaxAncestorSizeKB:   policy.DefaultMaxAncestorSizeKB,
		MaxDescendants:      policy.DefaultMaxDescendants,
		MaxDescendantSizeKB: policy.DefaultMaxDescendantSizeKB,
		MinFeeRate:          policy.DefaultMinFeeRate,
	}
}

// policyConfig converts the application configuration into the evaluator
// configuration.
func (c *config) policyConfig() *policy.Config {
	markers := policy.DefaultOverlayMarkers
	if len(c.OverlayMarkers) > 0 {
		markers = make([][]byte, 0, len(c.OverlayMarkers))
		for _, marker := range c.OverlayMarkers {
			markers = append(markers, []byte(marker))
		}
	}

	return &policy.Config{
		MaxTxWeight:         c.MaxTxWeight,
		MaxScriptSize:       c.MaxScriptSize,
		DustRelayFee:        c.DustRelayFee,
		BytesPerSigOp:       c.BytesPerSigOp,
		MaxAncestors:        c.MaxAncestors,
		MaxAncestorSizeKB:   c.MaxAncestorSizeKB,
		MaxDescendants:      c.MaxDescendants,
		MaxDescendantSizeKB: c.MaxDescendantSizeKB,
		MinFeeRate:          c.MinFeeRate,
		OverlayMarkers:      markers,
		RejectParasites:     !c.AllowParasites,
	}
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(defaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// loadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
func loadConfig() (*config, []string, error) {
	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg := defaultConfig()
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
		return nil, nil, err
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if preCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, version())
		os.Exit(0)
	}

	// Load additional config from file.
	cfg := defaultConfig()
	parser := flags.NewParser(&cfg, flags.Default)
	configFile := cleanAndExpandPath(preCfg.ConfigFile)
	err = flags.NewIniParser(parser).ParseFile(configFile)
	if err != nil {
		// Only a missing default config file is tolerable.
		if _, ok := err.(*os.PathError); !ok ||
			preCfg.ConfigFile != defaultConfigFile {

			fmt.Fprintf(os.Stderr, "Error parsing config file: %v\n",
				err)
			return nil, nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	if cfg.TxFile != "" && cfg.TxFile != "-" {
		cfg.TxFile = cleanAndExpandPath(cfg.TxFile)
	}

	if cfg.TxHex != "" && cfg.TxFile != "" {
		str := "the --tx and --txfile options may not be used together"
		fmt.Fprintln(os.Stderr, str)
		return nil, nil, fmt.Errorf("%s", str)
	}

	// Every limit must remain sensible after overrides.
	if cfg.BytesPerSigOp <= 0 {
		str := "the --bytespersigop option must be positive"
		fmt.Fprintln(os.Stderr, str)
		return nil, nil, fmt.Errorf("%s", str)
	}
	if cfg.MaxTxWeight <= 0 || cfg.MaxScriptSize <= 0 {
		str := "the --maxtxweight and --maxscriptsize options must " +
			"be positive"
		fmt.Fprintln(os.Stderr, str)
		return nil, nil, fmt.Errorf("%s", str)
	}
	if cfg.MaxAncestors <= 0 || cfg.MaxAncestorSizeKB <= 0 ||
		cfg.MaxDescendants <= 0 || cfg.MaxDescendantSizeKB <= 0 {

		str := "the mempool chain limit options must be positive"
		fmt.Fprintln(os.Stderr, str)
		return nil, nil, fmt.Errorf("%s", str)
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("loadConfig: %w", err)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	return &cfg, remainingArgs, nil
}
