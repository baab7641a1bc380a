package webhook

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"rebltasks-bot/internal/rewards"
	"rebltasks-bot/internal/store"
	"rebltasks-bot/internal/utils"
)

// Handler exposes the mini-app endpoints: wallet linking and device token
// registration. Requests may be restricted to the mini-app backend's subnets.
type Handler struct {
	Engine       *rewards.Engine
	Log          *logrus.Logger
	AllowedCIDRs []string // empty = no restriction
}

func NewHandler(engine *rewards.Engine, log *logrus.Logger, allowedCIDRs []string) *Handler {
	return &Handler{
		Engine:       engine,
		Log:          log,
		AllowedCIDRs: allowedCIDRs,
	}
}

func (h *Handler) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/wallet/connect", h.HandleWalletConnect)
	mux.HandleFunc("/device/register", h.HandleDeviceRegister)
	return mux
}

type walletConnectRequest struct {
	UserID        int64  `json:"user_id"`
	WalletAddress string `json:"wallet_address"`
}

type deviceRegisterRequest struct {
	UserID      int64  `json:"user_id"`
	DeviceToken string `json:"device_token"`
}

func (h *Handler) HandleWalletConnect(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	log := h.Log.WithField("request_id", requestID)

	if !h.allow(w, r, log) {
		return
	}

	var req walletConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.WithError(err).Warn("Failed to decode wallet connect request")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	result, err := h.Engine.LinkWallet(r.Context(), req.UserID, req.WalletAddress)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
			return
		}
		log.WithError(err).Error("Wallet connect failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Wallet connection failed"})
		return
	}
	if !result.Linked {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid wallet address"})
		return
	}

	log.WithField("user_id", req.UserID).Info("Wallet connected via webhook")
	writeJSON(w, http.StatusOK, map[string]string{"status": "Wallet connected successfully"})
}

func (h *Handler) HandleDeviceRegister(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	log := h.Log.WithField("request_id", requestID)

	if !h.allow(w, r, log) {
		return
	}

	var req deviceRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeviceToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if err := h.Engine.RegisterDevice(r.Context(), req.UserID, req.DeviceToken); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
			return
		}
		log.WithError(err).Error("Device registration failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Device registration failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "Device registered"})
}

// allow enforces POST and the optional CIDR allowlist.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, log *logrus.Entry) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if len(h.AllowedCIDRs) == 0 {
		return true
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !utils.IsAllowedIP(host, h.AllowedCIDRs) {
		log.WithField("remote_addr", r.RemoteAddr).Warn("Rejected request from disallowed address")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
