// Package progress reports how many records have been fetched so far.
// Reporting is advisory and never affects a run's outcome.
package progress

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

// Reporter receives the cumulative record count after every page.
type Reporter interface {
	Report(fetched int)
	Done()
}

// Nop discards progress.
type Nop struct{}

func (Nop) Report(int) {}
func (Nop) Done()      {}

// LogReporter writes one log line per page.
type LogReporter struct {
	logger zerolog.Logger
	pages  int
}

// NewLogReporter creates a reporter logging at info level.
func NewLogReporter(logger zerolog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(fetched int) {
	r.pages++
	r.logger.Info().Int("page", r.pages).Int("fetched", fetched).Msg("Number of entries fetched")
}

func (r *LogReporter) Done() {}

// BarReporter renders a spinner with a running count. The total number of
// records is unknown up front, so the bar is indeterminate.
type BarReporter struct {
	bar *progressbar.ProgressBar
}

// NewBarReporter creates a terminal progress bar writing to w.
func NewBarReporter(w io.Writer) *BarReporter {
	return &BarReporter{
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("fetching recent changes"),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		),
	}
}

func (r *BarReporter) Report(fetched int) {
	_ = r.bar.Set(fetched)
}

func (r *BarReporter) Done() {
	_ = r.bar.Finish()
}
