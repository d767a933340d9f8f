package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/punchamoorthee/contractledger/internal/command"
	"github.com/punchamoorthee/contractledger/internal/domain"
	"github.com/punchamoorthee/contractledger/internal/logging"
	"github.com/punchamoorthee/contractledger/internal/models"
	"github.com/punchamoorthee/contractledger/internal/service"
	"github.com/punchamoorthee/contractledger/internal/store"
)

type Handler struct {
	dispatcher *command.Dispatcher
	query      *service.LeaderboardQuery
	log        logrus.FieldLogger
}

func NewHandler(d *command.Dispatcher, q *service.LeaderboardQuery, logger logrus.FieldLogger) *Handler {
	return &Handler{dispatcher: d, query: q, log: logging.OrDefault(logger)}
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) CommandHandler(w http.ResponseWriter, r *http.Request) {
	group := mux.Vars(r)["group"]

	var req models.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	kind, ok := command.Lookup(req.Command)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Unknown command")
		return
	}

	resp, err := h.dispatcher.Dispatch(r.Context(), command.Request{
		Kind:     kind,
		Group:    group,
		Sender:   req.SenderID,
		Mentions: req.Mentions,
		Args:     req.Args,
	})
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			h.log.WithFields(logrus.Fields{"command": kind.String(), "group": group}).WithError(err).Error("command failed")
		}
		if resp != nil {
			// Applied in memory but not saved; the client still gets the tx id.
			respondWithJSON(w, code, map[string]any{"error": err.Error(), "result": resp})
			return
		}
		respondWithError(w, code, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	respondWithJSON(w, http.StatusOK, h.query.Account(vars["group"], vars["user"]))
}

func (h *Handler) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	n := service.LeaderboardSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		n = v
	}
	respondWithJSON(w, http.StatusOK, h.query.Top(mux.Vars(r)["group"], n))
}

// statusFor maps the error taxonomy onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case store.IsPersistence(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
