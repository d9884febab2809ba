package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"market/internal/auth"
	"market/internal/market"
	"market/internal/redisx"
)

type ProductHandler struct {
	Products ProductStore
	Redis    *redis.Client
}

type productCreateReq struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Stock int64  `json:"stock"`
}

func (h *ProductHandler) create(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	if err := market.Authorize(market.ActionCreateProduct, id.MemberID, id.Role, market.Product{}); err != nil {
		writeError(w, err)
		return
	}

	var req productCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Name == "" || req.Price <= 0 || req.Stock < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, positive price and non-negative stock are required"})
		return
	}

	now := time.Now().UTC()
	p := market.Product{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Price:     req.Price,
		Stock:     req.Stock,
		Status:    market.ProductForSale,
		SellerID:  id.MemberID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Products.Create(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Products.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductHandler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache first, DB is the source of truth
	key := fmt.Sprintf(redisx.KeyProduct, id)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	p, err := h.Products.Get(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Redis != nil {
		if b, err := json.Marshal(p); err == nil {
			_ = h.Redis.Set(ctx, key, b, redisx.TTLProductCache).Err()
		}
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) listMine(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	if id.Role != market.RoleSeller {
		writeError(w, market.ErrUnauthorized)
		return
	}
	ps, err := h.Products.ListBySeller(r.Context(), id.MemberID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductHandler) update(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	productID := chi.URLParam(r, "id")

	var upd market.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	p, err := h.Products.Update(r.Context(), productID, id.MemberID, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	h.invalidate(r.Context(), productID)
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	productID := chi.URLParam(r, "id")

	if err := h.Products.Delete(r.Context(), productID, id.MemberID); err != nil {
		writeError(w, err)
		return
	}
	h.invalidate(r.Context(), productID)
	w.WriteHeader(http.StatusOK)
}

func (h *ProductHandler) invalidate(ctx context.Context, productID string) {
	if h.Redis != nil {
		_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyProduct, productID)).Err()
	}
}
