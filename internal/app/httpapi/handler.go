package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	app "github.com/R3E-Network/longshot/internal/app"
	"github.com/R3E-Network/longshot/internal/app/domain/game"
	"github.com/R3E-Network/longshot/internal/app/metrics"
	gamesvc "github.com/R3E-Network/longshot/internal/app/services/game"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a mux exposing the REST API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	mux := http.NewServeMux()
	mux.HandleFunc("/initialize", h.initialize)
	mux.HandleFunc("/config", h.config)
	mux.HandleFunc("/config/", h.configSetters)
	mux.HandleFunc("/shoot", h.shoot)
	mux.HandleFunc("/goal", h.goal)
	mux.HandleFunc("/deadlines/", h.deadline)
	mux.HandleFunc("/balance", h.balance)
	mux.HandleFunc("/transfers", h.transfers)
	mux.HandleFunc("/healthz", h.healthz)
	return mux
}

func (h *handler) initialize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Owner            string  `json:"owner"`
		Denom            string  `json:"denom"`
		TicketPrice      *uint64 `json:"ticket_price"`
		RewardPercentage *uint8  `json:"reward_percentage"`
		AdminPercentage  *uint8  `json:"admin_percentage"`
		RoundDuration    *int64  `json:"round_duration"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg, err := h.app.Game.Initialize(r.Context(), CallerAddress(r.Context()), gamesvc.InitParams{
		Owner:            payload.Owner,
		Denom:            payload.Denom,
		TicketPrice:      payload.TicketPrice,
		RewardPercentage: payload.RewardPercentage,
		AdminPercentage:  payload.AdminPercentage,
		RoundDuration:    payload.RoundDuration,
	})
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

func (h *handler) config(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cfg, err := h.app.Game.Config(r.Context())
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *handler) configSetters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	field := strings.Trim(strings.TrimPrefix(r.URL.Path, "/config"), "/")
	caller := CallerAddress(r.Context())

	var (
		cfg game.Config
		err error
	)
	switch field {
	case "ticket-price":
		var payload struct {
			TicketPrice *uint64 `json:"ticket_price"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if payload.TicketPrice == nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("ticket_price is required"))
			return
		}
		cfg, err = h.app.Game.SetTicketPrice(r.Context(), caller, *payload.TicketPrice)
	case "reward-percentage":
		var payload struct {
			RewardPercentage *uint8 `json:"reward_percentage"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if payload.RewardPercentage == nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("reward_percentage is required"))
			return
		}
		cfg, err = h.app.Game.SetRewardPercentage(r.Context(), caller, *payload.RewardPercentage)
	case "admin-percentage":
		var payload struct {
			AdminPercentage *uint8 `json:"admin_percentage"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if payload.AdminPercentage == nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("admin_percentage is required"))
			return
		}
		cfg, err = h.app.Game.SetAdminPercentage(r.Context(), caller, *payload.AdminPercentage)
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *handler) shoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payment game.Payment
	if err := decodeJSON(r.Body, &payment); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	deadline, err := h.app.Game.Shoot(r.Context(), CallerAddress(r.Context()), payment)
	metrics.RecordShot(err == nil)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, deadline)
}

func (h *handler) goal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Player string `json:"player"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(payload.Player) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("player is required"))
		return
	}

	settlement, err := h.app.Game.GoalShot(r.Context(), CallerAddress(r.Context()), payload.Player)
	metrics.RecordGoalShot(err == nil, settlement.RewardAmount, settlement.AdminAmount)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, settlement)
}

func (h *handler) deadline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	player := strings.Trim(strings.TrimPrefix(r.URL.Path, "/deadlines"), "/")
	if player == "" || strings.Contains(player, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	deadline, status, err := h.app.Game.ShootDeadline(r.Context(), player)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Player        string
		ShootDeadline int64
		Status        game.PlayerStatus
	}{Player: player, ShootDeadline: deadline.ExpiresAt, Status: status})
}

func (h *handler) balance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	balance, denom, err := h.app.Game.PoolBalance(r.Context())
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Denom   string
		Balance uint64
	}{Denom: denom, Balance: balance})
}

func (h *handler) transfers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	transfers, err := h.app.Game.Transfers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, transfers)
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, game.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, game.ErrAlreadyInitialized):
		return http.StatusConflict
	case errors.Is(err, game.ErrNotInitialized):
		return http.StatusConflict
	case errors.Is(err, game.ErrInvalidPayment):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrPlayerNotJoined), errors.Is(err, game.ErrDeadlineNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrDeadlinePassed), errors.Is(err, game.ErrDeadlineNotPassed):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
