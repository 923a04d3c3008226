package app

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	coursehandler "github.com/koyif/billing/internal/handler/course"
	"github.com/koyif/billing/internal/handler/middleware"
	paymenthandler "github.com/koyif/billing/internal/handler/payment"
	transactionhandler "github.com/koyif/billing/internal/handler/transaction"
	userhandler "github.com/koyif/billing/internal/handler/user"
)

func (a *App) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.LogRequest)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5))

	userHandler := userhandler.New(a.Users)
	courseHandler := coursehandler.New(a.Catalog)
	paymentHandler := paymenthandler.New(a.Payments)
	transactionHandler := transactionhandler.New(a.Transactions)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/register", userHandler.Register)
		r.Post("/auth", userHandler.Login)
		r.Get("/courses", courseHandler.List)
		r.Get("/courses/{code}", courseHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.WithAuth(a.Config.PrivateKey))

			r.Get("/users/current", userHandler.Current)
			r.Post("/deposit", paymentHandler.Deposit)
			r.Post("/courses/{code}/pay", paymentHandler.PayCourse)
			r.Get("/transactions", transactionHandler.List)
		})
	})

	return r
}
