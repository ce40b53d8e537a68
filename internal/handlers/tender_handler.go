package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/senyabanana/sealed-tender/internal/models"
	"github.com/senyabanana/sealed-tender/internal/services"
	"github.com/senyabanana/sealed-tender/internal/utils"
)

// TenderHandler - структура для обработки HTTP-запросов.
type TenderHandler struct {
	base
	Service *services.TenderService
	Closer  *services.CloseService
}

// NewTenderHandler создаёт новый экземпляр TenderHandler.
func NewTenderHandler(service *services.TenderService, closer *services.CloseService, logger *slog.Logger, timeout time.Duration, tokenAuth bool) *TenderHandler {
	return &TenderHandler{
		base:    base{Logger: logger, Timeout: timeout, TokenAuth: tokenAuth},
		Service: service,
		Closer:  closer,
	}
}

func (h *TenderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tenders", h.GetTenders)
	r.Post("/tenders/new", h.CreateTender)
	r.Get("/tenders/{tenderId}", h.GetTender)
	r.Get("/tenders/{tenderId}/bidders", h.GetBidders)
	r.Get("/tenders/{tenderId}/winner", h.GetWinner)
	r.Post("/tenders/{tenderId}/close", h.CloseTender)
}

// GetTenders обрабатывает запросы для получения списка тендеров.
func (h *TenderHandler) GetTenders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	limit, offset, err := utils.ParseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	tenders, total, err := h.Service.FetchTenders(ctx, limit, offset)
	if err != nil {
		h.fail(w, r, err, "failed to fetch tenders")
		return
	}

	w.Header().Set("X-Total-Count", strconv.FormatUint(total, 10))
	h.respond(w, http.StatusOK, tenders)
}

// CreateTender обрабатывает запросы для создания тендера.
func (h *TenderHandler) CreateTender(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	var req models.TenderRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	tender, err := h.Service.CreateTender(ctx, req)
	if err != nil {
		h.fail(w, r, err, "failed to create tender")
		return
	}
	h.respond(w, http.StatusCreated, tender)
}

// GetTender возвращает тендер и его текущую фазу.
func (h *TenderHandler) GetTender(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	id, err := utils.ParseTenderID(chi.URLParam(r, "tenderId"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	tender, err := h.Service.GetTender(ctx, id)
	if err != nil {
		h.fail(w, r, err, "failed to get tender")
		return
	}
	h.respond(w, http.StatusOK, tender)
}

// GetBidders возвращает участников тендера в порядке подачи.
func (h *TenderHandler) GetBidders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	id, err := utils.ParseTenderID(chi.URLParam(r, "tenderId"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	bidders, err := h.Service.GetBidders(ctx, id)
	if err != nil {
		h.fail(w, r, err, "failed to get bidders")
		return
	}
	h.respond(w, http.StatusOK, bidders)
}

// GetWinner возвращает победителя закрытого тендера.
func (h *TenderHandler) GetWinner(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	id, err := utils.ParseTenderID(chi.URLParam(r, "tenderId"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	winner, err := h.Service.GetWinner(ctx, id)
	if err != nil {
		h.fail(w, r, err, "failed to get winner")
		return
	}
	h.respond(w, http.StatusOK, winner)
}

// CloseTender закрывает тендер и выбирает победителя.
func (h *TenderHandler) CloseTender(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	id, err := utils.ParseTenderID(chi.URLParam(r, "tenderId"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.CloseRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	winner, err := h.Closer.CloseTender(ctx, id, req.Caller)
	if err != nil {
		h.fail(w, r, err, "failed to close tender")
		return
	}
	h.respond(w, http.StatusOK, models.CloseResponse{TenderID: id, Winner: winner})
}
