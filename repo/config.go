package repo

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/natefinch/lumberjack"
	"github.com/op/go-logging"
	"github.com/quillpay/quill/version"
)

const (
	defaultConfigFilename = "quill.conf"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "quill.log"
)

var (
	DefaultHomeDir    = AppDataDir("quill", false)
	defaultConfigFile = filepath.Join(DefaultHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(DefaultHomeDir, defaultLogDirname)

	fileLogFormat   = logging.MustStringFormatter(`%{time:2006-01-02T15:04:05} [%{level}] [%{module}] %{message}`)
	stdoutLogFormat = logging.MustStringFormatter(`%{color:reset}%{color}%{time:15:04:05.000} [%{level}] [%{module}] %{message}`)
)

// sampleConfig is written to the data directory on first run.
const sampleConfig = `; Example quill configuration file.
;
; All options may also be set on the command line. Command line options
; take precedence over this file.

[Application Options]

; The directory to store wallet data.
; datadir=~/.quill

; Logging level for all subsystems [debug, info, notice, warning, error, critical]
; loglevel=info

; Use the test network.
; testnet=1

; The interface and port the API gateway listens on.
; gatewayaddr=127.0.0.1:5002

; Override the remote ledger endpoint.
; ledgerurl=

; How often to poll the ledger for the balance and history.
; pollinterval=1m

; Authentication cookie for the API. All requests must carry it.
cookie=

; API basic authentication. The password is the hex encoded sha256
; hash of the cleartext.
; apiusername=
; apipassword=
`

// Config defines the configuration options for the wallet node.
//
// See LoadConfig for details on the configuration load process.
type Config struct {
	ShowVersion  bool          `short:"v" long:"version" description:"Display version information and exit"`
	ConfigFile   string        `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir      string        `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir       string        `long:"logdir" description:"Directory to log output."`
	LogLevel     string        `short:"l" long:"loglevel" description:"set the logging level [debug, info, notice, warning, error, critical]" default:"info"`
	GatewayAddr  string        `long:"gatewayaddr" description:"Override the default gateway address with the provided value" default:"127.0.0.1:5002"`
	Testnet      bool          `short:"t" long:"testnet" description:"Use the test network"`
	LedgerURL    string        `long:"ledgerurl" description:"Override the network's ledger endpoint with the provided value"`
	FeeURL       string        `long:"feeurl" description:"Override the network's fee endpoint with the provided value"`
	PriceURL     string        `long:"priceurl" description:"Override the network's price endpoint with the provided value"`
	PollInterval time.Duration `long:"pollinterval" description:"How often to poll the ledger for the balance and transaction history" default:"1m"`
	MockLedger   bool          `long:"mockledger" description:"Use an in-memory ledger rather than a remote endpoint. Useful for development."`
	APICookie    string        `long:"cookie" description:"An authentication cookie the API gateway requires on every request"`
	APIUsername  string        `long:"apiusername" description:"The username for API basic authentication"`
	APIPassword  string        `long:"apipassword" description:"The hex encoded sha256 hash of the API password"`
	APINoCors    bool          `long:"apinocors" description:"Disable CORS on the API gateway"`
	AllowedIPs   []string      `long:"allowedip" description:"Only allow API connections from these IPs"`
	UseSSL       bool          `long:"ssl" description:"Serve the API over SSL"`
	SSLCertFile  string        `long:"sslcertfile" description:"Path to the SSL certificate"`
	SSLKeyFile   string        `long:"sslkeyfile" description:"Path to the SSL key"`
}

// LoadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
// 	1) Start with a default config with sane settings
// 	2) Pre-parse the command line to check for an alternative config file
// 	3) Load configuration file overwriting defaults with any specified options
// 	4) Parse CLI options and overwrite/add any specified options
//
// The above results in the wallet functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options. Command line options always take precedence.
func LoadConfig() (*Config, []string, error) {
	// Default config.
	cfg := Config{
		DataDir:    DefaultHomeDir,
		ConfigFile: defaultConfigFile,
		LogDir:     defaultLogDir,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.  Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := cfg
	preParser := flags.NewParser(&cfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return nil, nil, err
		}
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.String())
		os.Exit(0)
	}

	// Load additional config from file.
	var configFileError error
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := os.Stat(preCfg.ConfigFile); os.IsNotExist(err) {
		err := createDefaultConfigFile(preCfg.ConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating a "+
				"default config file: %v\n", err)
		}
	}

	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		if _, ok := err.(*os.PathError); !ok {
			fmt.Fprintf(os.Stderr, "Error parsing config "+
				"file: %v\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
		configFileError = err
	}

	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)

	SetupLogging(cfg.LogDir, cfg.LogLevel)

	// Warn about missing config file only after all other configuration is
	// done.  This prevents the warning on help messages and invalid
	// options.  Note this should go directly before the return.
	if configFileError != nil {
		log.Warningf("%v", configFileError)
	}
	return &cfg, nil, nil
}

// createDefaultConfigFile copies the sample config to the given destination
// path and populates it with a randomly generated authentication cookie.
func createDefaultConfigFile(destinationPath string) error {
	// Create the destination directory if it does not exists
	err := os.MkdirAll(filepath.Dir(destinationPath), 0700)
	if err != nil {
		return err
	}

	randomBytes := make([]byte, 20)
	_, err = rand.Read(randomBytes)
	if err != nil {
		return err
	}
	generatedCookie := hex.EncodeToString(randomBytes)

	src := bytes.NewReader([]byte(sampleConfig))

	dest, err := os.OpenFile(destinationPath,
		os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer dest.Close()

	// We copy every line from the sample config file to the destination,
	// only replacing the cookie line.
	reader := bufio.NewReader(src)
	for err != io.EOF {
		var line string
		line, err = reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}

		if strings.HasPrefix(line, "cookie=") {
			line = "cookie=" + generatedCookie + "\n"
		}

		if _, err := dest.WriteString(line); err != nil {
			return err
		}
	}

	return nil
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// SetupLogging configures the logging backends, directing output to
// stdout and, if a log directory is provided, a rotating log file.
func SetupLogging(logDir, logLevel string) {
	backendStdout := logging.NewLogBackend(os.Stdout, "", 0)
	backendStdoutFormatter := logging.NewBackendFormatter(backendStdout, stdoutLogFormat)

	if logDir != "" {
		rotator := &lumberjack.Logger{
			Filename:   path.Join(logDir, defaultLogFilename),
			MaxSize:    10, // Megabytes
			MaxBackups: 3,
			MaxAge:     30, // Days
		}

		backendFile := logging.NewLogBackend(rotator, "", 0)
		backendFileFormatter := logging.NewBackendFormatter(backendFile, fileLogFormat)
		logging.SetBackend(backendStdoutFormatter, backendFileFormatter)
	} else {
		logging.SetBackend(backendStdoutFormatter)
	}

	var level logging.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = logging.DEBUG
	case "info":
		level = logging.INFO
	case "notice":
		level = logging.NOTICE
	case "warning":
		level = logging.WARNING
	case "error":
		level = logging.ERROR
	case "critical":
		level = logging.CRITICAL
	default:
		level = logging.INFO
	}
	logging.SetLevel(level, "")
}
