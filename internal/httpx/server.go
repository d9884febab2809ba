package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// MountRoutes wires the public endpoints and the bearer-authenticated group.
// Listing reads stay public; every other endpoint resolves a caller first.
func MountRoutes(r chi.Router, authed func(http.Handler) http.Handler, ah *AuthHandler, ph *ProductHandler, oh *OrderHandler) {
	r.Post("/auth/register", ah.register)
	r.Post("/auth/login", ah.login)
	r.Get("/product/all", ph.list)
	r.Get("/product/{id}", ph.get)

	r.Group(func(g chi.Router) {
		g.Use(authed)
		g.Get("/auth/me", ah.me)
		g.Post("/product/add", ph.create)
		g.Get("/product/seller/products", ph.listMine)
		g.Patch("/product/{id}", ph.update)
		g.Delete("/product/{id}", ph.remove)
		g.Post("/order/{id}/reserve", oh.reserve)
		g.Post("/order/{id}/approve", oh.approve)
		g.Get("/order/buyer-list", oh.buyerList)
		g.Get("/order/seller-list/{productId}", oh.sellerList)
	})
}
