// Package should holds cleanup helpers whose failures are logged rather than
// returned, for use in defer statements.
package should

import (
	"io"
	"log/slog"
)

// Close closes the given io.Closer and logs msg with the error if it fails.
// Extra args are appended to the log record.
//
//	defer should.Close(store, "closing calibration store", "path", dbPath)
func Close(closer io.Closer, msg string, args ...any) {
	if closer == nil {
		return
	}

	if err := closer.Close(); err != nil {
		slog.Error(msg, append(args, "error", err)...)
	}
}
