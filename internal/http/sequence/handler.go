package sequence

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/brokerledger/internal/http/api"
	"github.com/MrJamesThe3rd/brokerledger/internal/sequence"
)

type Handler struct {
	svc    *sequence.Service
	logger *zap.Logger
}

func NewHandler(svc *sequence.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/{series}", h.current)
}

type currentResponse struct {
	Series  string `json:"series"`
	Current int64  `json:"current"`
	Next    string `json:"next"`
}

// current reports the last issued number without allocating one.
func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	ser, err := h.svc.Series(chi.URLParam(r, "series"))
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	n, err := h.svc.Current(r.Context(), ser.Name)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.JSON(w, h.logger, http.StatusOK, currentResponse{
		Series:  ser.Name,
		Current: n,
		Next:    ser.Reference(n + 1),
	})
}
