package reconciliation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/brokerledger/internal/http/api"
	"github.com/MrJamesThe3rd/brokerledger/internal/reconciliation"
	"github.com/MrJamesThe3rd/brokerledger/internal/statement"
)

const maxStatementSize = 10 << 20

type Handler struct {
	svc    *reconciliation.Service
	parser *statement.Parser
	logger *zap.Logger
}

func NewHandler(svc *reconciliation.Service, parser *statement.Parser, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, parser: parser, logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/{account}/{period}", func(r chi.Router) {
		r.Get("/", h.state)
		r.Put("/statement", h.setStatement)
		r.Put("/misc", h.setMisc)
		r.Put("/cleared/{entryID}", h.clear)
		r.Delete("/cleared/{entryID}", h.unclear)
		r.Post("/import", h.importStatement)
	})
}

type amountRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

type formulaResponse struct {
	Book       string  `json:"book"`
	Open       string  `json:"open"`
	Misc       string  `json:"misc"`
	Bank       string  `json:"bank"`
	Statement  *string `json:"statement"`
	Difference *string `json:"difference"`
	Reconciled bool    `json:"reconciled"`
}

type stateResponse struct {
	Account         string          `json:"account"`
	PeriodKey       string          `json:"periodKey"`
	ClearedEntryIDs []uuid.UUID     `json:"clearedEntryIds"`
	OpenEntryIDs    []uuid.UUID     `json:"openEntryIds"`
	Formula         formulaResponse `json:"formula"`
}

type lineResponse struct {
	Row         int      `json:"row"`
	Date        api.Date `json:"date"`
	Description string   `json:"description"`
	Reference   string   `json:"reference,omitempty"`
	Amount      string   `json:"amount"`
}

type matchResponse struct {
	Line    lineResponse `json:"line"`
	EntryID uuid.UUID    `json:"entryId"`
}

type importResponse struct {
	Matched   []matchResponse `json:"matched"`
	Unmatched []lineResponse  `json:"unmatched"`
	State     stateResponse   `json:"state"`
}

func fixed(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}

	return new(d.StringFixed(2))
}

func toStateResponse(st *reconciliation.State) stateResponse {
	f := st.Formula

	return stateResponse{
		Account:         st.AccountNumber,
		PeriodKey:       st.PeriodKey,
		ClearedEntryIDs: nonNil(st.ClearedEntryIDs),
		OpenEntryIDs:    nonNil(st.OpenEntryIDs),
		Formula: formulaResponse{
			Book:       f.Book.StringFixed(2),
			Open:       f.Open.StringFixed(2),
			Misc:       f.Misc.StringFixed(2),
			Bank:       f.Bank.StringFixed(2),
			Statement:  fixed(f.Statement),
			Difference: fixed(f.Difference),
			Reconciled: f.Reconciled(),
		},
	}
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}

	return ids
}

func toLineResponse(l statement.Line) lineResponse {
	return lineResponse{
		Row:         l.Row,
		Date:        api.Date{Time: l.Date},
		Description: l.Description,
		Reference:   l.Reference,
		Amount:      l.Amount.StringFixed(2),
	}
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (string, reconciliation.Period, bool) {
	period, err := reconciliation.ParsePeriodKey(chi.URLParam(r, "period"))
	if err != nil {
		api.Error(w, h.logger, err)
		return "", reconciliation.Period{}, false
	}

	return chi.URLParam(r, "account"), period, true
}

func (h *Handler) writeState(w http.ResponseWriter, r *http.Request, account string, period reconciliation.Period) {
	st, err := h.svc.State(r.Context(), account, period)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.JSON(w, h.logger, http.StatusOK, toStateResponse(st))
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	account, period, ok := h.target(w, r)
	if !ok {
		return
	}

	h.writeState(w, r, account, period)
}

func (h *Handler) setStatement(w http.ResponseWriter, r *http.Request) {
	account, period, ok := h.target(w, r)
	if !ok {
		return
	}

	var req amountRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, h.logger, err.Error())
		return
	}

	if err := h.svc.SetStatementAmount(r.Context(), account, period, req.Amount); err != nil {
		api.Error(w, h.logger, err)
		return
	}

	h.writeState(w, r, account, period)
}

func (h *Handler) setMisc(w http.ResponseWriter, r *http.Request) {
	account, period, ok := h.target(w, r)
	if !ok {
		return
	}

	var req amountRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, h.logger, err.Error())
		return
	}

	amount := decimal.Zero
	if req.Amount != nil {
		amount = *req.Amount
	}

	if err := h.svc.SetMiscAmount(r.Context(), account, period, amount); err != nil {
		api.Error(w, h.logger, err)
		return
	}

	h.writeState(w, r, account, period)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	h.setCleared(w, r, true)
}

func (h *Handler) unclear(w http.ResponseWriter, r *http.Request) {
	h.setCleared(w, r, false)
}

func (h *Handler) setCleared(w http.ResponseWriter, r *http.Request, cleared bool) {
	account, period, ok := h.target(w, r)
	if !ok {
		return
	}

	entryID, err := uuid.Parse(chi.URLParam(r, "entryID"))
	if err != nil {
		api.BadRequest(w, h.logger, "invalid entry id")
		return
	}

	if err := h.svc.SetCleared(r.Context(), account, period, entryID, cleared); err != nil {
		api.Error(w, h.logger, err)
		return
	}

	h.writeState(w, r, account, period)
}

// importStatement parses an uploaded bank CSV and auto-clears the entries
// it matches.
func (h *Handler) importStatement(w http.ResponseWriter, r *http.Request) {
	account, period, ok := h.target(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxStatementSize); err != nil {
		api.BadRequest(w, h.logger, "failed to parse form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		api.BadRequest(w, h.logger, "missing file")
		return
	}
	defer file.Close()

	lines, err := h.parser.Parse(file)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	inPeriod := make([]statement.Line, 0, len(lines))
	for _, l := range lines {
		if period.Contains(l.Date) {
			inPeriod = append(inPeriod, l)
		}
	}

	result, err := h.svc.AutoClear(r.Context(), account, period, inPeriod)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	st, err := h.svc.State(r.Context(), account, period)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	resp := importResponse{
		Matched:   make([]matchResponse, len(result.Matches)),
		Unmatched: make([]lineResponse, len(result.Unmatched)),
		State:     toStateResponse(st),
	}

	for i, m := range result.Matches {
		resp.Matched[i] = matchResponse{Line: toLineResponse(m.Line), EntryID: m.Entry.ID}
	}

	for i, l := range result.Unmatched {
		resp.Unmatched[i] = toLineResponse(l)
	}

	api.JSON(w, h.logger, http.StatusOK, resp)
}
