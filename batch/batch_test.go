package batch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/setanarut/stripalpha"
	"github.com/setanarut/stripalpha/utils"
)

type counter struct{ n int }

func (c *counter) Add(n int) error {
	c.n += n
	return nil
}

type brokenBar struct{ calls int }

func (b *brokenBar) Add(int) error {
	b.calls++
	return errors.New("terminal gone")
}

func quiet() *log.Logger {
	return log.New(io.Discard)
}

func writePNG(t *testing.T, path string, px color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, px)
	img.SetNRGBA(1, 0, color.NRGBA{0, 255, 0, 0})
	if err := utils.SaveImage(img, path); err != nil {
		t.Fatal(err)
	}
}

func writeGarbage(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func checkFlat(t *testing.T, path string, bg stripalpha.Color) {
	t.Helper()
	img, err := utils.ReadImage(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 1 {
		t.Errorf("%s size == %v but we expected 2x1", path, img.Bounds().Size())
	}
	if got, want := img.NRGBAAt(1, 0), (color.NRGBA{bg.R, bg.G, bg.B, 255}); got != want {
		t.Errorf("%s transparent pixel == %v but we expected %v", path, got, want)
	}
	if a := img.NRGBAAt(0, 0).A; a != 255 {
		t.Errorf("%s alpha == %d but we expected 255", path, a)
	}
}

func fixture(t *testing.T) string {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "a.png"), color.NRGBA{255, 0, 0, 128})
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(root, "sub", "b.png"), color.NRGBA{10, 20, 30, 255})
	writeGarbage(t, filepath.Join(root, "broken.png"))
	return root
}

func TestFolderSubfolder(t *testing.T) {
	root := fixture(t)
	bg := stripalpha.Color{R: 0, G: 0, B: 255}
	opts := DefaultOptions()
	opts.Background = utils.Fixed(bg)
	opts.Workers = 3
	progress := &counter{}

	sum, err := New(opts, quiet()).WithProgress(progress).Folder(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Processed) != 2 || len(sum.Failed) != 1 {
		t.Fatalf("Folder summary == %d processed, %d failed but we expected 2, 1", len(sum.Processed), len(sum.Failed))
	}
	if progress.n != 3 {
		t.Errorf("progress == %d but we expected 3", progress.n)
	}
	var fe *stripalpha.FileError
	if !errors.As(sum.Failed[0].Err, &fe) || fe.Op != stripalpha.OpDecode {
		t.Errorf("failure == %v but we expected a decode FileError", sum.Failed[0].Err)
	}
	if sum.Err() == nil {
		t.Errorf("Summary.Err() == nil with failures")
	}

	checkFlat(t, filepath.Join(root, "processed", "a.png"), bg)
	checkFlat(t, filepath.Join(root, "processed", "sub", "b.png"), bg)

	// output folder is not picked up again
	sum, err = New(opts, quiet()).Folder(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Processed) != 2 {
		t.Errorf("second run processed %d files but we expected 2", len(sum.Processed))
	}
}

func TestFolderSuffix(t *testing.T) {
	root := fixture(t)
	opts := DefaultOptions()
	opts.Subfolder = false

	sum, err := New(opts, quiet()).Folder(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Processed) != 2 {
		t.Fatalf("processed %d files but we expected 2", len(sum.Processed))
	}
	checkFlat(t, filepath.Join(root, "a_processed.png"), stripalpha.Black)
	checkFlat(t, filepath.Join(root, "sub", "b_processed.png"), stripalpha.Black)
	if _, err := os.Stat(filepath.Join(root, "processed")); !os.IsNotExist(err) {
		t.Errorf("processed folder exists without Subfolder")
	}
}

func TestFolderHaltOnError(t *testing.T) {
	root := fixture(t)
	opts := DefaultOptions()
	opts.HaltOnError = true

	_, err := New(opts, quiet()).Folder(context.Background(), root)
	var fe *stripalpha.FileError
	if !errors.As(err, &fe) || fe.Path != filepath.Join(root, "broken.png") {
		t.Errorf("Folder with HaltOnError error == %v but we expected a FileError for broken.png", err)
	}
}

func TestFolderErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "x.png")
	writePNG(t, file, color.NRGBA{})
	for _, root := range []string{filepath.Join(dir, "missing"), file} {
		if _, err := New(DefaultOptions(), quiet()).Folder(context.Background(), root); err == nil {
			t.Errorf("Folder(%q) returned no error", root)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(DefaultOptions(), quiet()).Folder(ctx, dir); !errors.Is(err, context.Canceled) {
		t.Errorf("Folder with cancelled context error == %v but we expected context.Canceled", err)
	}
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "single.png")
	writePNG(t, in, color.NRGBA{255, 255, 255, 64})
	bg := stripalpha.Color{R: 255, G: 87, B: 51}
	opts := DefaultOptions()
	opts.Background = utils.Fixed(bg)

	out, err := New(opts, quiet()).File(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "single_processed.png"); out != want {
		t.Errorf("File output == %q but we expected %q", out, want)
	}
	checkFlat(t, out, bg)

	if _, err := New(opts, quiet()).File(context.Background(), filepath.Join(dir, "none.png")); err == nil {
		t.Errorf("File on a missing input returned no error")
	}
}

func TestFolderProgressError(t *testing.T) {
	root := fixture(t)
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	bar := &brokenBar{}

	sum, err := New(DefaultOptions(), logger).WithProgress(bar).Folder(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Processed) != 2 || len(sum.Failed) != 1 {
		t.Errorf("Summary == %d processed, %d failed but we expected 2, 1", len(sum.Processed), len(sum.Failed))
	}
	if bar.calls != 3 {
		t.Errorf("progress Add calls == %d but we expected 3", bar.calls)
	}
	if !strings.Contains(buf.String(), "Progress update failed") {
		t.Errorf("log does not report the progress error:\n%s", buf.String())
	}
}

func TestTargets(t *testing.T) {
	root := fixture(t)
	opts := DefaultOptions()
	opts.Folder = "flat"
	in, out, err := New(opts, quiet()).Targets(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(in) != 3 || len(out) != 3 {
		t.Fatalf("Targets == %v -> %v but we expected 3 files", in, out)
	}
	for i := range in {
		rel, _ := filepath.Rel(root, in[i])
		if want := filepath.Join(root, "flat", rel); out[i] != want {
			t.Errorf("Targets output %q == %q but we expected %q", in[i], out[i], want)
		}
	}
}
