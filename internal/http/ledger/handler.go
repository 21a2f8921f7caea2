package ledger

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/brokerledger/internal/balance"
	"github.com/MrJamesThe3rd/brokerledger/internal/http/api"
	"github.com/MrJamesThe3rd/brokerledger/internal/ledger"
)

type Handler struct {
	ledger   *ledger.Service
	balances *balance.Service
	logger   *zap.Logger
}

func NewHandler(ledgerSvc *ledger.Service, balances *balance.Service, logger *zap.Logger) *Handler {
	return &Handler{ledger: ledgerSvc, balances: balances, logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/postings", h.post)
	r.Get("/postings/{groupID}", h.getGroup)
	r.Post("/postings/{groupID}/reverse", h.reverse)
	r.Get("/entries", h.entries)
	r.Get("/balance", h.closingBalance)
	r.Get("/activity", h.activity)
	r.Get("/trial-balance", h.trialBalance)
}

type postRequest struct {
	Description string       `json:"description"`
	OccurredOn  api.Date     `json:"occurredOn"`
	Legs        []ledger.Leg `json:"legs" validate:"required"`
	DealID      *int64       `json:"dealId"`
	Reference   *string      `json:"reference"`
}

type reverseRequest struct {
	OccurredOn api.Date `json:"occurredOn"`
}

type groupResponse struct {
	GroupID uuid.UUID `json:"groupId"`
}

type entryResponse struct {
	ID          uuid.UUID `json:"id"`
	Seq         int64     `json:"seq"`
	GroupID     uuid.UUID `json:"groupId"`
	Account     string    `json:"account"`
	Debit       string    `json:"debit"`
	Credit      string    `json:"credit"`
	Description string    `json:"description"`
	OccurredOn  api.Date  `json:"occurredOn"`
	Reference   *string   `json:"reference,omitempty"`
	DealID      *int64    `json:"dealId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type activityResponse struct {
	Account     string `json:"account"`
	DebitTotal  string `json:"debitTotal"`
	CreditTotal string `json:"creditTotal"`
	Net         string `json:"net"`
}

type trialBalanceResponse struct {
	From        api.Date           `json:"from"`
	To          api.Date           `json:"to"`
	Rows        []activityResponse `json:"rows"`
	DebitTotal  string             `json:"debitTotal"`
	CreditTotal string             `json:"creditTotal"`
	Balanced    bool               `json:"balanced"`
}

type balanceResponse struct {
	Account string   `json:"account"`
	AsOf    api.Date `json:"asOf"`
	Balance string   `json:"balance"`
}

func toEntryResponses(entries []*ledger.Entry) []entryResponse {
	resp := make([]entryResponse, len(entries))
	for i, e := range entries {
		resp[i] = entryResponse{
			ID:          e.ID,
			Seq:         e.Seq,
			GroupID:     e.GroupID,
			Account:     e.AccountNumber,
			Debit:       e.Debit.StringFixed(2),
			Credit:      e.Credit.StringFixed(2),
			Description: e.Description,
			OccurredOn:  api.Date{Time: e.OccurredOn},
			Reference:   e.Reference,
			DealID:      e.DealID,
			CreatedAt:   e.CreatedAt,
		}
	}

	return resp
}

func toActivityResponse(account string, a balance.Activity) activityResponse {
	return activityResponse{
		Account:     account,
		DebitTotal:  a.DebitTotal.StringFixed(2),
		CreditTotal: a.CreditTotal.StringFixed(2),
		Net:         a.Net.StringFixed(2),
	}
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, h.logger, err.Error())
		return
	}

	groupID, err := h.ledger.Post(r.Context(), ledger.PostParams{
		Description: req.Description,
		OccurredOn:  req.OccurredOn.Time,
		Legs:        req.Legs,
		DealID:      req.DealID,
		Reference:   req.Reference,
	})
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.JSON(w, h.logger, http.StatusCreated, groupResponse{GroupID: groupID})
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "groupID"))
	if err != nil {
		api.BadRequest(w, h.logger, "invalid group id")
		return
	}

	entries, err := h.ledger.ListByGroup(r.Context(), groupID)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.JSON(w, h.logger, http.StatusOK, toEntryResponses(entries))
}

func (h *Handler) reverse(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "groupID"))
	if err != nil {
		api.BadRequest(w, h.logger, "invalid group id")
		return
	}

	var req reverseRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, h.logger, err.Error())
		return
	}

	reversal, err := h.ledger.Reverse(r.Context(), groupID, req.OccurredOn.Time)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.JSON(w, h.logger, http.StatusCreated, groupResponse{GroupID: reversal})
}

// dateRange reads from and to, defaulting to the whole ledger up to today.
func (h *Handler) dateRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, err := api.QueryDate(r, "from", ledger.Beginning)
	if err != nil {
		api.BadRequest(w, h.logger, err.Error())
		return time.Time{}, time.Time{}, false
	}

	to, err := api.QueryDate(r, "to", time.Now().UTC())
	if err != nil {
		api.BadRequest(w, h.logger, err.Error())
		return time.Time{}, time.Time{}, false
	}

	return from, to, true
}

func accountParam(r *http.Request) string {
	return r.URL.Query().Get("account")
}

func (h *Handler) entries(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	var (
		entries []*ledger.Entry
		err     error
	)

	if account := accountParam(r); account != "" {
		entries, err = h.ledger.Query(r.Context(), account, from, to)
	} else {
		entries, err = h.ledger.QueryAll(r.Context(), from, to)
	}

	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.JSON(w, h.logger, http.StatusOK, toEntryResponses(entries))
}

func (h *Handler) closingBalance(w http.ResponseWriter, r *http.Request) {
	account := accountParam(r)
	if account == "" {
		api.BadRequest(w, h.logger, "account query parameter is required")
		return
	}

	asOf, err := api.QueryDate(r, "asOf", time.Now().UTC())
	if err != nil {
		api.BadRequest(w, h.logger, err.Error())
		return
	}

	bal, err := h.balances.ClosingBalance(r.Context(), account, asOf)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.JSON(w, h.logger, http.StatusOK, balanceResponse{
		Account: account,
		AsOf:    api.Date{Time: asOf},
		Balance: bal.StringFixed(2),
	})
}

func (h *Handler) activity(w http.ResponseWriter, r *http.Request) {
	account := accountParam(r)
	if account == "" {
		api.BadRequest(w, h.logger, "account query parameter is required")
		return
	}

	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	a, err := h.balances.RangeActivity(r.Context(), account, from, to)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.JSON(w, h.logger, http.StatusOK, toActivityResponse(account, a))
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	tb, err := h.balances.TrialBalance(r.Context(), from, to)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	resp := trialBalanceResponse{
		From:        api.Date{Time: tb.From},
		To:          api.Date{Time: tb.To},
		Rows:        make([]activityResponse, len(tb.Rows)),
		DebitTotal:  tb.DebitTotal.StringFixed(2),
		CreditTotal: tb.CreditTotal.StringFixed(2),
		Balanced:    tb.Balanced(),
	}

	for i, row := range tb.Rows {
		resp.Rows[i] = toActivityResponse(row.AccountNumber, row.Activity)
	}

	api.JSON(w, h.logger, http.StatusOK, resp)
}
