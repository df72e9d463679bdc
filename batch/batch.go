// Package batch flattens PNG files on disk, one file or a whole folder at a
// time. Files are independent: a failure is scoped to its file and, unless
// Options.HaltOnError is set, the run continues and reports it in the Summary.
package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/setanarut/stripalpha"
	"github.com/setanarut/stripalpha/utils"
)

type Options struct {
	Background utils.Background
	// Write folder output into Folder below the input root. When false every
	// output lands next to its input with Suffix before the extension.
	Subfolder bool
	Folder    string
	Suffix    string
	// Files processed concurrently. Values below 1 mean 1.
	Workers     int
	HaltOnError bool
}

func DefaultOptions() Options {
	return Options{
		Background: utils.Fixed(stripalpha.Black),
		Subfolder:  true,
		Folder:     "processed",
		Suffix:     "_processed",
		Workers:    1,
	}
}

// Progress observes the number of files finished. *progressbar.ProgressBar
// satisfies it.
type Progress interface {
	Add(n int) error
}

type nopProgress struct{}

func (nopProgress) Add(int) error { return nil }

type Failure struct {
	Path string
	Err  error
}

type Summary struct {
	Processed []string
	Failed    []Failure
}

func (s Summary) Err() error {
	if len(s.Failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d files failed, first: %w",
		len(s.Failed), len(s.Failed)+len(s.Processed), s.Failed[0].Err)
}

type Runner struct {
	opts     Options
	logger   *log.Logger
	progress Progress
}

func New(opts Options, logger *log.Logger) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{opts: opts, logger: logger, progress: nopProgress{}}
}

// WithProgress sets the reporter advanced once per finished file.
func (r *Runner) WithProgress(p Progress) *Runner {
	if p == nil {
		p = nopProgress{}
	}
	r.progress = p
	return r
}

// File flattens a single image into a suffixed sibling and returns the
// output path.
func (r *Runner) File(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out := utils.SuffixedPath(path, r.opts.Suffix)
	if err := r.process(path, out); err != nil {
		return "", err
	}
	r.advance()
	return out, nil
}

// Targets lists the inputs below root and their output paths.
func (r *Runner) Targets(root string) (inputs, outputs []string, err error) {
	skip := ""
	if r.opts.Subfolder {
		skip = r.opts.Folder
	}
	inputs, err = utils.FindPNGs(root, skip)
	if err != nil {
		return nil, nil, err
	}
	outputs = make([]string, len(inputs))
	for i, in := range inputs {
		if !r.opts.Subfolder {
			outputs[i] = utils.SuffixedPath(in, r.opts.Suffix)
			continue
		}
		outputs[i], err = utils.SubfolderPath(root, in, r.opts.Folder)
		if err != nil {
			return nil, nil, err
		}
	}
	return inputs, outputs, nil
}

// Folder flattens every PNG below root. The returned error is non-nil only
// when discovery fails, ctx is cancelled, or HaltOnError stops the run; other
// per-file failures are reported in the Summary.
func (r *Runner) Folder(ctx context.Context, root string) (Summary, error) {
	var sum Summary
	info, err := os.Stat(root)
	if err != nil {
		return sum, err
	}
	if !info.IsDir() {
		return sum, fmt.Errorf("%s is not a directory", root)
	}

	inputs, outputs, err := r.Targets(root)
	if err != nil {
		return sum, fmt.Errorf("scan %s: %w", root, err)
	}
	r.logger.Info("Processing folder", "root", root, "files", len(inputs), "background", r.opts.Background, "workers", r.opts.Workers)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i := range inputs {
		in, out := inputs[i], outputs[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := r.process(in, out)

			mu.Lock()
			defer mu.Unlock()
			r.advance()
			if err == nil {
				sum.Processed = append(sum.Processed, out)
				return nil
			}
			sum.Failed = append(sum.Failed, Failure{Path: in, Err: err})
			if r.opts.HaltOnError {
				return err
			}
			r.logger.Warn("Skipping file", "path", in, "err", err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	slices.Sort(sum.Processed)
	slices.SortFunc(sum.Failed, func(a, b Failure) int { return strings.Compare(a.Path, b.Path) })
	r.logger.Info("Folder done", "root", root, "processed", len(sum.Processed), "failed", len(sum.Failed))
	return sum, nil
}

func (r *Runner) advance() {
	if err := r.progress.Add(1); err != nil {
		r.logger.Debug("Progress update failed", "err", err)
	}
}

func (r *Runner) process(in, out string) error {
	img, err := utils.ReadImage(in)
	if err != nil {
		return err
	}
	bg := r.opts.Background.Resolve(img)
	flat := stripalpha.Composite(img, bg)
	if err := utils.SaveImage(flat, out); err != nil {
		return err
	}
	st := stripalpha.AlphaStats(img)
	r.logger.Debug("Wrote image", "in", in, "out", out, "background", bg,
		"transparent", st.Transparent, "translucent", st.Translucent,
		"meanAlpha", fmt.Sprintf("%.1f", st.MeanAlpha))
	return nil
}
