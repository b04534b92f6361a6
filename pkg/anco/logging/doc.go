// Package logging provides the logging facade used by anco clients and
// engines.
//
// Logger is a small context-aware interface. Two implementations ship with
// the package:
//
//	logger := logging.New(nil)               // log/slog, slog.Default()
//	logger := logging.NewZap(zap.NewNop())   // go.uber.org/zap
//
// Conversion input is whatever the user typed, so it is never logged
// verbatim. Use Redacted for the value and TextSize for its length:
//
//	logger.Debug(ctx, "convert", logging.Redacted("text"), logging.TextSize("text", s))
package logging
