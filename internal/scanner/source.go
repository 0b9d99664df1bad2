package scanner

import (
	"bufio"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/rs/zerolog/log"
)

// TokenSource yields scanned job tokens. Next blocks until a token is
// available or ctx is done.
type TokenSource interface {
	Next(ctx context.Context) (string, error)
}

// LineSource reads newline-delimited tokens, the shape keyboard-wedge
// USB scanners and serial barcode readers produce when piped in.
type LineSource struct {
	scanner *bufio.Scanner
}

func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{scanner: bufio.NewScanner(r)}
}

func (s *LineSource) Next(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		token := strings.TrimSpace(s.scanner.Text())
		if token != "" {
			return token, nil
		}
	}
}

// FrameDirSource polls a directory for camera stills (PNG or JPEG),
// decodes the QR code in each frame and removes the frame afterwards.
// A camera grabber process is expected to drop frames into the
// directory; frames with no readable code are discarded silently.
type FrameDirSource struct {
	dir      string
	interval time.Duration
	reader   gozxing.Reader
}

func NewFrameDirSource(dir string, pollInterval time.Duration) *FrameDirSource {
	return &FrameDirSource{
		dir:      dir,
		interval: pollInterval,
		reader:   qrcode.NewQRCodeReader(),
	}
}

func (s *FrameDirSource) Next(ctx context.Context) (string, error) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		frames, err := s.listFrames()
		if err != nil {
			return "", err
		}

		for _, frame := range frames {
			token, err := s.decodeFrame(frame)
			os.Remove(frame)
			if err != nil {
				log.Debug().Str("frame", frame).Err(err).Msg("frame had no readable code")
				continue
			}
			return token, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *FrameDirSource) listFrames() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame dir: %w", err)
	}

	var frames []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			frames = append(frames, filepath.Join(s.dir, e.Name()))
		}
	}
	sort.Strings(frames)
	return frames, nil
}

func (s *FrameDirSource) decodeFrame(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	return DecodeQR(img)
}

// DecodeQR extracts the QR code payload from an image.
func DecodeQR(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to binarize image: %w", err)
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", fmt.Errorf("no QR code found: %w", err)
	}
	return strings.TrimSpace(result.GetText()), nil
}
