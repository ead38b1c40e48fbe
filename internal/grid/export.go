package grid

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// ExportToCSV requests a CSV export of the committed view (all pages) and
// hands the bytes to the configured FileSaver. Unlike every other command it
// returns its error so the host can present it; table state is not touched.
func (e *Engine) ExportToCSV(ctx context.Context) (string, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", ErrClosed
	}
	params := ExportParams(e.view)
	e.mu.Unlock()

	if e.opts.Saver == nil {
		return "", ErrNoSaver
	}

	logger := e.logger.With("params", params.Encode())
	logger.Debug("export started")

	data, err := e.source.FetchExport(ctx, e.opts.Endpoint, params)
	if err != nil {
		logger.Warn("export failed", "error", err)
		return "", fmt.Errorf("export %s: %w", e.opts.Endpoint, err)
	}

	name := exportFileName(e.opts.Endpoint, e.opts.Now().Format("20060102_150405"))
	saved, err := e.opts.Saver.Save(ctx, name, data)
	if err != nil {
		logger.Warn("export save failed", "file", name, "error", err)
		return "", fmt.Errorf("save export: %w", err)
	}

	logger.Info("export saved", "file", saved, "bytes", len(data))
	return saved, nil
}

// exportFileName builds "<table>_<timestamp>.csv" from the endpoint's last
// path segment.
func exportFileName(endpoint, timestamp string) string {
	base := path.Base(strings.TrimRight(endpoint, "/"))
	if base == "." || base == "/" || base == "" {
		base = "export"
	}
	return fmt.Sprintf("%s_%s.csv", base, timestamp)
}
