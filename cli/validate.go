package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zed-0xff/wxkey"
)

var (
	validateMethod  string
	validateTool    string
	validateTimeout time.Duration
	validateKeyFile string
)

var validateCmd = &cobra.Command{
	Use:   "validate <db> [key]...",
	Short: "Check which keys open an encrypted database",
	Long: `Check which keys open an encrypted database. Without key arguments the
keys are read from --keys-file, by default the key file the extractor writes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	f := validateCmd.Flags()
	f.StringVar(&validateMethod, "method", "", "cli (sqlcipher shell) or header (page 1 HMAC)")
	f.StringVar(&validateTool, "tool", "", "sqlcipher executable")
	f.DurationVar(&validateTimeout, "timeout", 0, "per key timeout of the cli method")
	f.StringVar(&validateKeyFile, "keys-file", "", "read candidate keys from this file, one per line")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Validator.Method = validateMethod
	}
	if flags.Changed("tool") {
		cfg.Validator.Tool = validateTool
	}
	if flags.Changed("timeout") {
		cfg.Validator.Timeout = validateTimeout
	}

	v, err := cfg.NewValidator()
	if err != nil {
		return err
	}

	keyFile := validateKeyFile
	if keyFile == "" && len(args) == 1 {
		keyFile = cfg.Output
	}
	keys, err := candidateKeys(args[1:], keyFile)
	if err != nil {
		return err
	}

	out := console{w: cmd.OutOrStdout()}
	exitCode = validateKeys(cmd.Context(), out, v, args[0], keys)
	return nil
}

// candidateKeys merges keys given on the command line with those of keyFile, dropping duplicates.
func candidateKeys(args []string, keyFile string) ([]string, error) {
	set := wxkey.NewKeySet()
	for _, k := range args {
		set.Add(k)
	}
	if keyFile != "" {
		keys, err := wxkey.ReadKeyFile(keyFile)
		if err != nil {
			return nil, errors.Wrap(err, "read keys")
		}
		for _, k := range keys {
			set.Add(k)
		}
	}
	if set.Len() == 0 {
		return nil, errors.New("no keys to validate")
	}
	return set.Keys(), nil
}

// validateKeys reports each key and returns 0 if at least one of them opens db.
func validateKeys(ctx context.Context, out console, v wxkey.Validator, db string, keys []string) int {
	code := 1
	for _, k := range keys {
		if v.Validate(ctx, db, k) {
			out.ok("%s opens %s", k, db)
			code = 0
		} else {
			out.fail("%s rejected", k)
		}
	}
	return code
}
