package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/gemini-image-studio/pkg/domain"
)

// classify はエラーを HTTP ステータスと分類名に対応付けます。
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, domain.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, "upstream"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// userMessage はトーストに表示するメッセージを返します。
func userMessage(err error) string {
	var ue *domain.UserError
	switch {
	case errors.As(err, &ue):
		return ue.Error()
	case errors.Is(err, domain.ErrBusy):
		return "请求正在处理中，请稍候。"
	case errors.Is(err, domain.ErrServiceUnavailable):
		return "AI服务未初始化。请检查API密钥。"
	default:
		return err.Error()
	}
}

// fail はエラーを分類して応答し、エラートーストを表示します。
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, kind := classify(err)
	msg := userMessage(err)
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "リクエストの処理に失敗しました", "path", r.URL.Path, "kind", kind, "error", err)
	} else {
		slog.WarnContext(r.Context(), "リクエストを拒否しました", "path", r.URL.Path, "kind", kind, "error", err)
	}
	s.toaster.Error(msg)
	writeError(w, code, kind, msg)
}

// observe は操作の結果を指標に記録します。
func (s *Server) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		_, status = classify(err)
	}
	s.metrics.ObserveOperation(op, status, time.Since(start))
}
