package handlers

import (
	"carpool/internal/booking"
	"carpool/internal/middleware"
	"carpool/internal/services"
	"carpool/internal/utils"
	"carpool/internal/validators"
	"carpool/pkg/logger"

	"github.com/gin-gonic/gin"
)

type TripHandler struct {
	reservationService services.ReservationService
	logger             *logger.Logger
}

func NewTripHandler(reservationService services.ReservationService, log *logger.Logger) *TripHandler {
	return &TripHandler{
		reservationService: reservationService,
		logger:             log,
	}
}

// SearchTrips lists trips that have not departed yet
func (h *TripHandler) SearchTrips(c *gin.Context) {
	var request validators.TripSearchRequest
	if err := c.ShouldBindQuery(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
		return
	}
	if errs := validators.ValidateTripSearch(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	query := booking.TripQuery{
		DepartureCity: request.DepartureCity,
		ArrivalCity:   request.ArrivalCity,
	}
	if request.Date != "" {
		// already checked by the trip_date rule
		query.Date, _ = booking.ParseDate(request.Date)
	}

	trips, err := h.reservationService.SearchTrips(c.Request.Context(), middleware.CurrentSession(c), query)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Trips retrieved successfully", trips, &utils.Meta{
		Count: len(trips),
		Total: int64(len(trips)),
		Mode:  modeActive,
	})
}
