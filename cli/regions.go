package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zed-0xff/wxkey"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Attach to the target and list its memory regions",
	Args:  cobra.NoArgs,
	RunE:  runRegions,
}

func runRegions(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := console{w: cmd.OutOrStdout()}

	pid, err := wxkey.FindProcess(cfg.Process)
	if err != nil {
		out.fail("%s is not running", cfg.Process)
		exitCode = 1
		return nil
	}

	ctx := cmd.Context()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	t, err := wxkey.Attach(ctx, pid, cfg.AttachOptions())
	if err != nil {
		return err
	}
	return listRegions(out, t, logrus.StandardLogger())
}

// listRegions prints the regions of an attached target and detaches from it.
func listRegions(out console, t wxkey.Target, log logrus.FieldLogger) error {
	defer func() {
		if err := t.Detach(); err != nil {
			log.WithError(err).WithField("pid", t.Pid()).Warn("detach failed")
		}
	}()

	regions, err := t.Regions()
	if err != nil {
		return err
	}
	showRegions(out, t.Pid(), regions)
	return nil
}

func showRegions(out console, pid int, regions []wxkey.Region) {
	out.info("Memory regions of PID %d:", pid)
	var total, readable uint64
	for _, r := range regions {
		r.Show(out.w)
		total += r.Size()
		if r.Readable {
			readable += r.Size()
		}
	}
	fmt.Fprintf(out.w, "    %d regions, %s mapped, %s readable\n",
		len(regions), humanize.IBytes(total), humanize.IBytes(readable))
}
