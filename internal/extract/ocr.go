package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrCapabilityUnavailable is returned when an optional capability such as OCR
// is not installed.
var ErrCapabilityUnavailable = errors.New("capability unavailable")

// TextRecognizer turns a receipt image into text.
type TextRecognizer interface {
	Supported() bool
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Tesseract runs the tesseract binary.
type Tesseract struct {
	BinaryPath string
	Lang       string
}

// NewTesseract returns a recognizer for binaryPath, defaulting to "tesseract"
// on PATH.
func NewTesseract(binaryPath string) *Tesseract {
	if binaryPath == "" {
		binaryPath = "tesseract"
	}
	return &Tesseract{BinaryPath: binaryPath, Lang: "eng"}
}

func (t *Tesseract) Supported() bool {
	_, err := exec.LookPath(t.BinaryPath)
	return err == nil
}

func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	if !t.Supported() {
		return "", fmt.Errorf("tesseract at %q: %w", t.BinaryPath, ErrCapabilityUnavailable)
	}
	if _, err := os.Stat(imagePath); err != nil {
		return "", fmt.Errorf("stat image: %w", err)
	}

	// psm 6: a single uniform block of text, which suits receipts
	cmd := exec.CommandContext(ctx, t.BinaryPath, imagePath, "stdout", "-l", t.Lang, "--psm", "6")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w (output: %s)", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// NoRecognizer reports OCR as unavailable.
type NoRecognizer struct{}

func (NoRecognizer) Supported() bool { return false }

func (NoRecognizer) Recognize(context.Context, string) (string, error) {
	return "", ErrCapabilityUnavailable
}
