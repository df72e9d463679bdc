package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"

	"github.com/setanarut/stripalpha"
	"github.com/setanarut/stripalpha/batch"
	"github.com/setanarut/stripalpha/config"
	"github.com/setanarut/stripalpha/utils"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

const usage = `Usage: stripalpha [-f folder | -i image] [-c color] [-ns]

Removes transparency from PNG images by compositing them onto a solid color.
Without arguments it prompts for a folder and a color and writes the results
into a "processed" subfolder.

`

type options struct {
	folder      string
	image       string
	color       string
	noSubfolder bool
	configPath  string
	initConfig  bool
	workers     int
	halt        bool
	logLevel    string
	progress    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, map[string]bool, error) {
	o := &options{}
	fs := flag.NewFlagSet("stripalpha", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&o.folder, "f", "", "Path to folder containing images, exclusive to -i")
	fs.StringVar(&o.folder, "folder", "", "Same as -f")
	fs.StringVar(&o.image, "i", "", "Path to single image, exclusive to -f")
	fs.StringVar(&o.image, "image", "", "Same as -i")
	fs.StringVar(&o.color, "c", "", `Background as hex (#FF5733), three integers ("255, 87, 51", wrapped modulo 256), or dominant[:N]/kmeans[:N] to pick the darkest of an N color palette (default "0, 0, 0")`)
	fs.StringVar(&o.color, "color", "", "Same as -c")
	fs.BoolVar(&o.noSubfolder, "ns", false, "Write <name>_processed.png next to each input instead of a processed subfolder")
	fs.BoolVar(&o.noSubfolder, "no-subfolder", false, "Same as -ns")
	fs.StringVar(&o.configPath, "config", config.DefaultPath, "Config file")
	fs.BoolVar(&o.initConfig, "init-config", false, "Write the effective config to -config and exit")
	fs.IntVar(&o.workers, "workers", 0, "Files processed concurrently (default from config)")
	fs.BoolVar(&o.halt, "halt", false, "Stop at the first file that fails")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error (default from config)")
	fs.BoolVar(&o.progress, "progress", true, "Show a progress bar")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() != 0 {
		return nil, nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return o, set, nil
}

// apply overlays explicitly set flags on the config file values.
func apply(cfg *config.Config, o *options, set map[string]bool) {
	if o.color != "" {
		cfg.Color.Background = o.color
	}
	if set["ns"] || set["no-subfolder"] {
		cfg.Output.Subfolder = !o.noSubfolder
	}
	if set["workers"] {
		cfg.Batch.Workers = o.workers
	}
	if set["halt"] {
		cfg.Batch.HaltOnError = o.halt
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
}

func newLogger(w io.Writer, level string) (*log.Logger, error) {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "stripalpha",
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(lvl)
	return logger, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stderr io.Writer) int {
	interactive := len(args) == 0

	o, set, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	apply(cfg, o, set)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	logger, err := newLogger(stderr, cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	if o.initConfig {
		if err := cfg.Save(o.configPath); err != nil {
			logger.Error("Writing config", "path", o.configPath, "err", err)
			return exitFail
		}
		logger.Info("Config written", "path", o.configPath)
		return exitOK
	}

	if o.folder != "" && o.image != "" {
		logger.Error("-f and -i are mutually exclusive")
		return exitUsage
	}

	if interactive {
		p := newPrompter(stdin, stderr)
		folder, bg, err := p.selection()
		if err != nil {
			logger.Error("Nothing processed", "err", err)
			return exitFail
		}
		opts := batchOptions(cfg, bg)
		opts.Subfolder = true
		return runFolder(ctx, batch.New(opts, logger), folder, o.progress, stderr, logger)
	}

	bg, err := utils.ParseBackground(cfg.Color.Background)
	if err != nil {
		logger.Error("Invalid color", "err", err)
		return exitUsage
	}
	runner := batch.New(batchOptions(cfg, bg), logger)

	switch {
	case o.folder != "":
		logger.Debug("Starting", "folder", o.folder, "background", bg, "subfolder", cfg.Output.Subfolder)
		return runFolder(ctx, runner, o.folder, o.progress, stderr, logger)
	case o.image != "":
		logger.Debug("Starting", "image", o.image, "background", bg)
		out, err := runner.File(ctx, o.image)
		if err != nil {
			logger.Error("Processing image", "err", err)
			return exitFail
		}
		logger.Info("Wrote image", "path", out)
		return exitOK
	default:
		logger.Error(stripalpha.ErrMissingSelection.Error())
		return exitFail
	}
}

func batchOptions(cfg *config.Config, bg utils.Background) batch.Options {
	return batch.Options{
		Background:  bg,
		Subfolder:   cfg.Output.Subfolder,
		Folder:      cfg.Output.Folder,
		Suffix:      cfg.Output.Suffix,
		Workers:     cfg.Batch.Workers,
		HaltOnError: cfg.Batch.HaltOnError,
	}
}

func runFolder(ctx context.Context, runner *batch.Runner, folder string, progress bool, stderr io.Writer, logger *log.Logger) int {
	if progress {
		inputs, _, err := runner.Targets(folder)
		if err == nil {
			bar := progressbar.NewOptions(len(inputs),
				progressbar.OptionSetWriter(stderr),
				progressbar.OptionSetDescription("stripping alpha"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			defer bar.Finish()
			runner.WithProgress(bar)
		}
	}

	sum, err := runner.Folder(ctx, folder)
	if err != nil {
		logger.Error("Batch aborted", "folder", folder, "processed", len(sum.Processed), "err", err)
		return exitFail
	}
	for _, f := range sum.Failed {
		logger.Error("Failed", "path", f.Path, "err", f.Err)
	}
	if err := sum.Err(); err != nil {
		logger.Error("Batch finished with failures", "processed", len(sum.Processed), "failed", len(sum.Failed))
		return exitFail
	}
	logger.Info("Batch finished", "processed", len(sum.Processed))
	return exitOK
}
