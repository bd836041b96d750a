package handlers

import (
	"net/http"
	"strconv"

	"carpool/internal/booking"
	"carpool/internal/middleware"
	"carpool/internal/services"
	"carpool/internal/utils"
	"carpool/internal/validators"
	"carpool/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	modeActive = "active"
	modeAll    = "all"
)

type ReservationHandler struct {
	reservationService services.ReservationService
	logger             *logger.Logger
}

func NewReservationHandler(reservationService services.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		reservationService: reservationService,
		logger:             log,
	}
}

// ListMine returns the caller's reservations as a passenger
func (h *ReservationHandler) ListMine(c *gin.Context) {
	opts, ok := listOptions(c, true)
	if !ok {
		return
	}

	records, err := h.reservationService.ListMine(c.Request.Context(), middleware.CurrentSession(c), opts)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Reservations retrieved successfully", records, listMeta(records, opts))
}

// ListForDriver returns the reservations made on the caller's trips
func (h *ReservationHandler) ListForDriver(c *gin.Context) {
	opts, ok := listOptions(c, false)
	if !ok {
		return
	}

	records, err := h.reservationService.ListForDriver(c.Request.Context(), middleware.CurrentSession(c), opts)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Reservations retrieved successfully", records, listMeta(records, opts))
}

// ListForTrip returns the reservations of one trip
func (h *ReservationHandler) ListForTrip(c *gin.Context) {
	tripID := c.Param("id")
	if errs := validators.ValidateReservationID(tripID); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}
	opts, ok := listOptions(c, false)
	if !ok {
		return
	}

	records, err := h.reservationService.ListForTrip(c.Request.Context(), middleware.CurrentSession(c), tripID, opts)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Reservations retrieved successfully", records, listMeta(records, opts))
}

func (h *ReservationHandler) Summary(c *gin.Context) {
	summary, err := h.reservationService.Summary(c.Request.Context(), middleware.CurrentSession(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Summary retrieved successfully", summary)
}

func (h *ReservationHandler) Get(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}

	record, err := h.reservationService.Get(c.Request.Context(), middleware.CurrentSession(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Reservation retrieved successfully", record)
}

// Cancel cancels one of the caller's reservations
func (h *ReservationHandler) Cancel(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}

	record, err := h.reservationService.Cancel(c.Request.Context(), middleware.CurrentSession(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Reservation cancelled successfully", record)
}

// Respond records the driver's accept or refuse decision
func (h *ReservationHandler) Respond(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, utils.MaxRequestBodyBytes)

	var request validators.RespondRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateRespond(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	record, err := h.reservationService.Respond(c.Request.Context(), middleware.CurrentSession(c), id, services.Decision(request.Decision))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Reservation updated successfully", record)
}

func reservationID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if errs := validators.ValidateReservationID(id); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return "", false
	}
	return id, true
}

// listOptions reads ?active=. Passengers default to active reservations,
// drivers keep departed ones marked as expired.
func listOptions(c *gin.Context, defaultActive bool) (services.ListOptions, bool) {
	value := c.Query("active")
	if value == "" {
		return services.ListOptions{ActiveOnly: defaultActive}, true
	}

	active, err := strconv.ParseBool(value)
	if err != nil {
		utils.ValidationErrorResponse(c, map[string]string{"active": "active must be true or false"})
		return services.ListOptions{}, false
	}
	return services.ListOptions{ActiveOnly: active}, true
}

func listMeta(records []booking.Record, opts services.ListOptions) *utils.Meta {
	meta := &utils.Meta{
		Count: len(records),
		Total: int64(len(records)),
		Mode:  modeAll,
	}
	if opts.ActiveOnly {
		meta.Mode = modeActive
	}
	for _, record := range records {
		if record.HasIssue(booking.IssueIDMissing) {
			meta.Unidentified++
		}
	}
	return meta
}
