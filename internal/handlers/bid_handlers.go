package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/senyabanana/sealed-tender/internal/models"
	"github.com/senyabanana/sealed-tender/internal/services"
	"github.com/senyabanana/sealed-tender/internal/utils"
)

type BidHandler struct {
	base
	Service *services.BidService
}

// NewBidHandler создает новый экземпляр BidHandler.
func NewBidHandler(service *services.BidService, logger *slog.Logger, timeout time.Duration, tokenAuth bool) *BidHandler {
	return &BidHandler{
		base:    base{Logger: logger, Timeout: timeout, TokenAuth: tokenAuth},
		Service: service,
	}
}

func (h *BidHandler) RegisterRoutes(r chi.Router) {
	r.Post("/bids/new", h.SubmitBid)
	r.Post("/bids/reveal", h.RevealBid)
	r.Post("/bids/seal", h.SealBid)
	r.Get("/bids/{tenderId}/{bidder}", h.GetBid)
}

// SubmitBid принимает запечатанное предложение.
func (h *BidHandler) SubmitBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	var req models.BidRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	sealed, err := utils.DecodeHex(req.Commitment)
	if err != nil {
		utils.SendError(w, &models.ErrorResponse{StatusCode: http.StatusBadRequest, Kind: models.KindInvalidArgument, Message: "commitment: " + err.Error()})
		return
	}

	bid, err := h.Service.SubmitBid(ctx, req.TenderID, req.Bidder, sealed)
	if err != nil {
		h.fail(w, r, err, "failed to submit bid")
		return
	}
	h.respond(w, http.StatusCreated, bid.View())
}

// RevealBid раскрывает сумму предложения.
func (h *BidHandler) RevealBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	var req models.RevealRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	bid, err := h.Service.RevealBid(ctx, req.TenderID, req.Bidder, req.Amount, []byte(req.Secret))
	if err != nil {
		h.fail(w, r, err, "failed to reveal bid")
		return
	}
	h.respond(w, http.StatusOK, bid.View())
}

// SealBid строит обязательство для суммы на стороне сервиса.
func (h *BidHandler) SealBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	var req models.SealRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.Service.SealBid(ctx, req)
	if err != nil {
		h.fail(w, r, err, "failed to seal bid")
		return
	}
	h.respond(w, http.StatusOK, resp)
}

// GetBid возвращает предложение участника.
func (h *BidHandler) GetBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	id, err := utils.ParseTenderID(chi.URLParam(r, "tenderId"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	bid, err := h.Service.GetBid(ctx, id, chi.URLParam(r, "bidder"))
	if err != nil {
		h.fail(w, r, err, "failed to get bid")
		return
	}
	h.respond(w, http.StatusOK, bid)
}
