package wire

import (
	"context"
	"net/http"
	"time"

	"showtime-reservation/internal/adaptor"
	"showtime-reservation/internal/data/repository"
	"showtime-reservation/internal/usecase"
	"showtime-reservation/pkg/middleware"
	"showtime-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker func(ctx context.Context) error

type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds the services and the router on top of repo.
func Wiring(repo *repository.Repository, config *utils.Config, deps usecase.Dependencies, health HealthChecker, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, deps, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router:  setupRouter(handler, health, logger),
		Service: service,
	}
}

func setupRouter(handler *adaptor.Handler, health HealthChecker, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))

	wireBooking(r, handler.Booking)
	wireSlot(r, handler.Slot)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := health(ctx); err != nil {
				logger.Warn("Health check failed", zap.Error(err))
				utils.ResponseJSON(w, http.StatusServiceUnavailable, false, "unavailable", nil, nil)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
