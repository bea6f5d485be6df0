package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
)

// mapError translates core failures to HTTP. The pipeline degrades rather
// than fails, so most of these only fire on the read path or bad input.
func mapError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsKind(err, domain.ErrUnreadableInput):
		writeError(w, http.StatusBadRequest, "INPUT_ERROR", "문서에서 읽을 수 있는 텍스트가 없습니다.")
	case domain.IsKind(err, domain.ErrAnalysisNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "해당 분석 기록이 없습니다.")
	case domain.IsKind(err, domain.ErrTemporary), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "TEMPORARY", "잠시 후 다시 시도해 주세요.")
	case errors.Is(err, context.Canceled):
		// client went away mid-request
		writeError(w, statusClientClosedRequest, "CANCELED", "요청이 취소되었습니다.")
	default:
		slog.Error("unhandled_request_error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "처리 중 오류가 발생했습니다.")
	}
}

const statusClientClosedRequest = 499
