package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zed-0xff/wxkey"
)

// Version is set at build time.
var Version = "0.1.0"

var (
	configPath string
	verbose    int
	quiet      int

	processName string
	outputPath  string
	lldbPath    string
	pythonPath  string
	verifyDB    string
	dumpDir     string
	hexdump     bool
	scanTimeout time.Duration

	exitCode int
)

var rootCmd = &cobra.Command{
	Use:     "wxkey",
	Short:   "Extract SQLCipher database keys from a running WeChat process",
	Version: Version,
	Long: `wxkey attaches to the running WeChat process, scans its memory for
SQLCipher raw keys (x'<64 hex>' literals, or bare hex strings near the
db_storage path) and saves them one per line to data/db_key.txt.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runExtract,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "YAML config file")
	pf.CountVarP(&verbose, "verbose", "v", "more output, repeat for trace")
	pf.CountVarP(&quiet, "quiet", "q", "less output")
	pf.StringVarP(&processName, "process", "p", "", "target process name (default "+wxkey.DefaultProcessName()+")")
	pf.StringVar(&lldbPath, "lldb", "", "lldb executable (macOS)")
	pf.StringVar(&pythonPath, "python", "", "python3 executable used for the lldb bridge (macOS)")

	f := rootCmd.Flags()
	f.StringVarP(&outputPath, "output", "o", "", "key file (default <exe dir>/../data/db_key.txt)")
	f.StringVar(&verifyDB, "verify-db", "", "validate found keys against this database")
	f.StringVar(&dumpDir, "dump-dir", "", "save zstd snapshots of regions with hits to this directory")
	f.BoolVar(&hexdump, "hexdump", false, "hex dump the bytes around each hit")
	f.DurationVar(&scanTimeout, "timeout", wxkey.DefaultScanTimeout, "scan timeout, 0 disables")

	rootCmd.PersistentPreRun = func(*cobra.Command, []string) {
		setVerbosity(verbose - quiet)
	}

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(regionsCmd)
}

func setVerbosity(v int) {
	switch {
	case v >= 2:
		logrus.SetLevel(logrus.TraceLevel)
	case v == 1:
		logrus.SetLevel(logrus.DebugLevel)
	case v < 0:
		logrus.SetLevel(logrus.WarnLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// loadConfig reads --config and applies the flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("process") {
		cfg.Process = processName
	}
	if flags.Changed("lldb") {
		cfg.LLDB = lldbPath
	}
	if flags.Changed("python") {
		cfg.Python = pythonPath
	}
	if flags.Changed("output") {
		cfg.Output = outputPath
	}

	if cfg.Output == "" {
		if cfg.Output, err = wxkey.DefaultKeyFilePath(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func runExtract(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = scanTimeout
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e := newExtractor(cfg, cmd.OutOrStdout())
	e.verifyDB = verifyDB
	e.dumpDir = dumpDir
	e.hexdump = hexdump || verbose-quiet >= 2
	e.progress = verbose-quiet >= 0 && stderrIsTerminal()
	exitCode = e.run(ctx)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}
