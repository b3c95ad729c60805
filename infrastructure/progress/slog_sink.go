package progress

import (
	"log/slog"

	"github.com/truthstream/verity/internal/domain"
)

// NewSlogSink creates a non-blocking sink that writes each stage
// transition as a structured log record.
func NewSlogSink(logger *slog.Logger, buffer int) *AsyncSink {
	if logger == nil {
		logger = slog.Default()
	}
	return NewAsyncSink(buffer, func(tr domain.StageTransition) {
		attrs := []any{
			slog.String("stage", string(tr.Stage)),
			slog.String("from", string(tr.From)),
			slog.String("to", string(tr.To)),
			slog.Time("at", tr.At),
		}
		if tr.Proof != nil {
			attrs = append(attrs, slog.Float64("confidence", tr.Proof.Confidence))
		}
		if tr.Err != nil {
			attrs = append(attrs, slog.String("error", tr.Err.Error()))
			logger.Warn("stage transition", attrs...)
			return
		}
		logger.Info("stage transition", attrs...)
	})
}
