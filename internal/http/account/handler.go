package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/brokerledger/internal/account"
	"github.com/MrJamesThe3rd/brokerledger/internal/http/api"
)

type Handler struct {
	registry *account.Registry
	logger   *zap.Logger
}

func NewHandler(registry *account.Registry, logger *zap.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{number}", h.get)
}

type accountResponse struct {
	Number string       `json:"number"`
	Name   string       `json:"name"`
	Type   account.Type `json:"type"`
}

func toResponse(a account.Account) accountResponse {
	return accountResponse{Number: a.Number, Name: a.Name, Type: a.Type}
}

func (h *Handler) list(w http.ResponseWriter, _ *http.Request) {
	accounts := h.registry.List()

	resp := make([]accountResponse, len(accounts))
	for i, a := range accounts {
		resp[i] = toResponse(a)
	}

	api.JSON(w, h.logger, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	a, err := h.registry.Lookup(chi.URLParam(r, "number"))
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.JSON(w, h.logger, http.StatusOK, toResponse(a))
}
