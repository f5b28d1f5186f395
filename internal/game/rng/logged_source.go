package rng

import "go.uber.org/zap"

// LoggedSource wraps a Source and logs every draw at debug level, so a
// battle transcript can be reconstructed roll by roll.
type LoggedSource struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedSource creates a LoggedSource drawing from src and logging to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedSource(src Source, logger *zap.Logger) *LoggedSource {
	return &LoggedSource{src: src, logger: logger}
}

// Intn draws a uniform int in [0, n) and logs it.
func (l *LoggedSource) Intn(n int) int {
	v := l.src.Intn(n)
	l.logger.Debug("rng draw",
		zap.String("kind", "intn"),
		zap.Int("bound", n),
		zap.Int("value", v),
	)
	return v
}

// Float64 draws a uniform float64 in [0, 1) and logs it.
func (l *LoggedSource) Float64() float64 {
	v := l.src.Float64()
	l.logger.Debug("rng draw",
		zap.String("kind", "float64"),
		zap.Float64("value", v),
	)
	return v
}
