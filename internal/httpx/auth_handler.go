package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"market/internal/auth"
	"market/internal/market"
)

type AuthHandler struct {
	Members MemberStore
	Hasher  auth.Hasher
	Tokens  *auth.TokenManager
}

type registerReq struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     market.Role `json:"role"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Username == "" || req.Password == "" || !req.Role.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username, password and a valid role are required"})
		return
	}

	hash, err := h.Hasher.Hash(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	m := market.Member{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.Members.Create(r.Context(), m); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	m, err := h.Members.GetByUsername(r.Context(), req.Username)
	if err != nil || !h.Hasher.Verify(m.PasswordHash, req.Password) {
		// same answer for unknown user and wrong password
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	token, err := h.Tokens.Issue(m)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	m, err := h.Members.GetByID(r.Context(), id.MemberID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]market.Role{"role": m.Role})
}
