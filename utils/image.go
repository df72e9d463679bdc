package utils

import (
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/setanarut/stripalpha"
)

// DecodePNG decodes a PNG stream and normalizes it to 4 channels.
func DecodePNG(r io.Reader) (*image.NRGBA, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, err
	}
	return stripalpha.Normalize(img), nil
}

// ReadImage opens and decodes a PNG file. Errors are *stripalpha.FileError
// with Op OpDecode.
func ReadImage(path string) (*image.NRGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &stripalpha.FileError{Op: stripalpha.OpDecode, Path: path, Err: err}
	}
	defer file.Close()
	img, err := DecodePNG(file)
	if err != nil {
		return nil, &stripalpha.FileError{Op: stripalpha.OpDecode, Path: path, Err: err}
	}
	return img, nil
}

// SaveImage writes img as PNG to filename, creating parent directories.
// Errors are *stripalpha.FileError with Op OpEncode.
func SaveImage(img image.Image, filename string) error {
	if err := saveImage(img, filename); err != nil {
		return &stripalpha.FileError{Op: stripalpha.OpEncode, Path: filename, Err: err}
	}
	return nil
}

func saveImage(img image.Image, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
