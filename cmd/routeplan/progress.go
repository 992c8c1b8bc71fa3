package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"agri-route-service/internal/ports"
)

// newProgress returns a terminal progress bar for geocoding, or nil when stderr
// is not a terminal.
func newProgress() ports.ProgressSink {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}

	var bar *progressbar.ProgressBar
	return ports.ProgressFunc(func(completed, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Geocoding locations"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(completed)
		if completed >= total {
			_ = bar.Finish()
		}
	})
}
