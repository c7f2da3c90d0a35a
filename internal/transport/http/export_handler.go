package http

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"quizrush/internal/game"
)

// ExportHandler serves the final aggregated stats of a finished match as
// CSV, for the report export collaborator.
type ExportHandler struct {
	service *game.Service
	logger  *zap.Logger
}

func NewExportHandler(service *game.Service, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{service: service, logger: logger}
}

// ServeExport writes nickname,score,accuracy,avgResponseTime rows. Results
// exist only once the session reached the final phase.
func (h *ExportHandler) ServeExport(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	results, err := h.service.Export(code)
	if err != nil {
		http.Error(w, "Results not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=quizrush-%s.csv", code))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"nickname", "score", "accuracy", "avgResponseTime"})
	for _, row := range results.Stats {
		_ = cw.Write([]string{
			row.Nickname,
			strconv.Itoa(row.Score),
			strconv.Itoa(row.Accuracy),
			strconv.FormatFloat(row.AvgResponseTime, 'f', 2, 64),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Warn("export write failed", zap.String("code", code), zap.Error(err))
	}
}
