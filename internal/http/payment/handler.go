package payment

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/brokerledger/internal/http/api"
	"github.com/MrJamesThe3rd/brokerledger/internal/ledger"
	"github.com/MrJamesThe3rd/brokerledger/internal/payment"
)

type Handler struct {
	svc    *payment.Service
	logger *zap.Logger
}

func NewHandler(svc *payment.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.listByDeal)
	r.Get("/{series}/{number}", h.get)
	r.Post("/{series}/{number}/complete", h.complete)
}

type createPaymentRequest struct {
	Series      string          `json:"series" validate:"required"`
	DealID      *int64          `json:"dealId"`
	PaymentType string          `json:"paymentType" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Recipient   string          `json:"recipient"`
	ChequeDate  api.Date        `json:"chequeDate"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	Pending     bool            `json:"pending"`
	Legs        []ledger.Leg    `json:"legs"`
}

type paymentResponse struct {
	Series         string     `json:"series"`
	SequenceNumber int64      `json:"sequenceNumber"`
	DealID         *int64     `json:"dealId,omitempty"`
	PaymentType    string     `json:"paymentType"`
	Amount         string     `json:"amount"`
	Recipient      string     `json:"recipient"`
	ChequeDate     api.Date   `json:"chequeDate"`
	Status         string     `json:"status"`
	GroupID        uuid.UUID  `json:"groupId"`
	Reference      string     `json:"reference"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

type entryResponse struct {
	ID      uuid.UUID `json:"id"`
	Account string    `json:"account"`
	Debit   string    `json:"debit"`
	Credit  string    `json:"credit"`
}

type createPaymentResponse struct {
	Payment paymentResponse `json:"payment"`
	Entries []entryResponse `json:"entries"`
}

func toResponse(p *payment.Payment) paymentResponse {
	return paymentResponse{
		Series:         p.Series,
		SequenceNumber: p.Number,
		DealID:         p.DealID,
		PaymentType:    p.PaymentType,
		Amount:         p.Amount.StringFixed(2),
		Recipient:      p.Recipient,
		ChequeDate:     api.Date{Time: p.ChequeDate},
		Status:         string(p.Status),
		GroupID:        p.GroupID,
		Reference:      p.Reference,
		CreatedAt:      p.CreatedAt,
		CompletedAt:    p.CompletedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, h.logger, err.Error())
		return
	}

	res, err := h.svc.Create(r.Context(), payment.CreateParams{
		Series:      req.Series,
		DealID:      req.DealID,
		PaymentType: req.PaymentType,
		Amount:      req.Amount,
		Recipient:   req.Recipient,
		ChequeDate:  req.ChequeDate.Time,
		Description: req.Description,
		Reference:   req.Reference,
		Pending:     req.Pending,
		Legs:        req.Legs,
	})
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	resp := createPaymentResponse{
		Payment: toResponse(res.Payment),
		Entries: make([]entryResponse, len(res.Entries)),
	}

	for i, e := range res.Entries {
		resp.Entries[i] = entryResponse{
			ID:      e.ID,
			Account: e.AccountNumber,
			Debit:   e.Debit.StringFixed(2),
			Credit:  e.Credit.StringFixed(2),
		}
	}

	api.JSON(w, h.logger, http.StatusCreated, resp)
}

func (h *Handler) listByDeal(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.ParseInt(r.URL.Query().Get("deal"), 10, 64)
	if err != nil {
		api.BadRequest(w, h.logger, "deal query parameter is required")
		return
	}

	payments, err := h.svc.ListByDeal(r.Context(), dealID)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toResponse(p)
	}

	api.JSON(w, h.logger, http.StatusOK, resp)
}

func pathKey(r *http.Request) (string, int64, bool) {
	number, err := strconv.ParseInt(chi.URLParam(r, "number"), 10, 64)
	if err != nil {
		return "", 0, false
	}

	return chi.URLParam(r, "series"), number, true
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	series, number, ok := pathKey(r)
	if !ok {
		api.BadRequest(w, h.logger, "invalid payment number")
		return
	}

	p, err := h.svc.Get(r.Context(), series, number)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.JSON(w, h.logger, http.StatusOK, toResponse(p))
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	series, number, ok := pathKey(r)
	if !ok {
		api.BadRequest(w, h.logger, "invalid payment number")
		return
	}

	p, err := h.svc.Complete(r.Context(), series, number)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.JSON(w, h.logger, http.StatusOK, toResponse(p))
}
