package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/senyabanana/sealed-tender/internal/auth"
	"github.com/senyabanana/sealed-tender/internal/models"
	"github.com/senyabanana/sealed-tender/internal/utils"
)

// base - общие настройки обработчиков.
type base struct {
	Logger  *slog.Logger
	Timeout time.Duration
	// TokenAuth - личность подтверждается bearer-токеном; без токена Unauthorized отдается как 401.
	TokenAuth bool
}

func (h base) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.Timeout)
}

// fail отправляет ответ на ошибку сервиса. Доменные ошибки уходят клиенту как есть,
// остальные логируются и скрываются за fallback.
func (h base) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	log := h.Logger.With("requestId", middleware.GetReqID(r.Context()), "path", r.URL.Path)

	if resp, ok := utils.ToErrorResponse(err); ok {
		if resp.Kind == models.KindUnauthorized && h.TokenAuth {
			if _, authenticated := auth.PrincipalFromContext(r.Context()); !authenticated {
				resp.StatusCode = http.StatusUnauthorized
			}
		}
		log.Debug("request rejected", "kind", resp.Kind, "reason", resp.Message)
		utils.SendError(w, resp)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn("request timed out", "error", err)
		utils.SendErrorResponse(w, http.StatusGatewayTimeout, "request timed out")
		return
	}

	log.Error(fallback, "error", err)
	utils.SendErrorResponse(w, http.StatusInternalServerError, fallback)
}

func (h base) respond(w http.ResponseWriter, statusCode int, v any) {
	if err := utils.SendJSON(w, statusCode, v); err != nil {
		h.Logger.Warn("failed to write response", "error", err)
	}
}
