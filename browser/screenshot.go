// Package browser captures PNG renderings of dashboard pages with a
// headless Chromium. Capture failures are non-fatal by design: callers
// log a warning and keep the HTML output.
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// CaptureOptions sizes the viewport and bounds the whole capture.
type CaptureOptions struct {
	Width   int
	Height  int
	Timeout time.Duration
}

// DefaultCaptureOptions matches the dashboard's designed width.
func DefaultCaptureOptions() CaptureOptions {
	return CaptureOptions{Width: 1600, Height: 900, Timeout: 30 * time.Second}
}

// CapturePNG renders the HTML file in a headless Chromium and writes a
// full-page screenshot to pngPath.
func CapturePNG(ctx context.Context, htmlPath, pngPath string, opts CaptureOptions) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultCaptureOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	url, err := fileURL(htmlPath)
	if err != nil {
		return err
	}

	controlURL, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	defer b.Close()

	page, err := b.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}

	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for page load: %w", err)
	}
	// Plotly renders after load; give the charts a beat to draw.
	time.Sleep(2 * time.Second)

	data, err := page.Screenshot(true, nil)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}

	if err := os.WriteFile(pngPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", pngPath, err)
	}
	return nil
}

// fileURL converts a local path to a file:// URL.
func fileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}
