package adaptor

import (
	"errors"
	"net/http"

	"showtime-reservation/internal/data/entity"
	"showtime-reservation/pkg/utils"

	"go.uber.org/zap"
)

// handleServiceError maps core errors onto HTTP statuses.
func handleServiceError(log *zap.Logger, w http.ResponseWriter, err error, operation string) {
	var (
		unavailable *entity.SeatUnavailableError
		unknown     *entity.UnknownSeatError
		terminal    *entity.AlreadyTerminalError
	)

	switch {
	case errors.Is(err, entity.ErrSlotNotFound), errors.Is(err, entity.ErrBookingNotFound), errors.Is(err, entity.ErrShowNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err), zap.String("operation", operation))
		utils.ResponseNotFound(w, err.Error())

	case errors.As(err, &unavailable):
		log.Warn(operation+" failed - seats unavailable", zap.Error(err), zap.String("operation", operation))
		utils.ResponseConflict(w, "Seats unavailable", map[string]any{"seats": unavailable.Seats})

	case errors.As(err, &terminal):
		log.Warn(operation+" failed - booking terminal", zap.Error(err), zap.String("operation", operation))
		utils.ResponseConflict(w, err.Error(), map[string]any{"status": terminal.Status})

	case errors.Is(err, entity.ErrDuplicateActiveBooking), errors.Is(err, entity.ErrHoldExpired):
		log.Warn(operation+" failed - conflict", zap.Error(err), zap.String("operation", operation))
		utils.ResponseConflict(w, err.Error(), nil)

	case errors.As(err, &unknown):
		log.Warn("Invalid input for "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseBadRequest(w, "Unknown seat", map[string]any{"seats": unknown.Seats})

	case errors.Is(err, entity.ErrInvalidSeatCount), errors.Is(err, entity.ErrInvalidPage):
		log.Warn("Invalid input for "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseBadRequest(w, err.Error(), nil)

	default:
		log.Error(operation+" failed", zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
