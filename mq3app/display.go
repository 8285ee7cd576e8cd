package mq3app

import (
	"log/slog"
	"sync"
)

// DisplayRows is the number of rows a Display is expected to hold.
const DisplayRows = 2

// Display is the operator-facing output of the breathalyzer.
type Display interface {
	Show(row int, text string)
	Clear()
}

// LogDisplay renders the display as log records and keeps the current rows
// for diagnostics.
type LogDisplay struct {
	mut    sync.Mutex
	logger *slog.Logger
	rows   [DisplayRows]string
}

func NewLogDisplay(logger *slog.Logger) *LogDisplay {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogDisplay{logger: logger}
}

func (d *LogDisplay) Show(row int, text string) {
	if row < 0 || row >= DisplayRows {
		return
	}

	d.mut.Lock()
	d.rows[row] = text
	d.mut.Unlock()

	d.logger.Info("Display", "row", row, "text", text)
}

func (d *LogDisplay) Clear() {
	d.mut.Lock()
	d.rows = [DisplayRows]string{}
	d.mut.Unlock()

	d.logger.Debug("Display cleared")
}

// Rows returns a snapshot of the displayed text.
func (d *LogDisplay) Rows() []string {
	d.mut.Lock()
	defer d.mut.Unlock()

	return append([]string(nil), d.rows[:]...)
}
