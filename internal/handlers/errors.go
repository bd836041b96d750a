package handlers

import (
	"errors"
	"net/http"

	"carpool/internal/repositories/api"
	"carpool/internal/services"
	"carpool/internal/utils"
	"carpool/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError maps service and upstream failures onto the response envelope.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		utils.UnauthorizedResponse(c)
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c)
	case errors.Is(err, services.ErrReservationNotFound):
		utils.NotFoundResponse(c, "reservation")
	case errors.Is(err, services.ErrNotCancellable):
		utils.ConflictResponse(c, utils.CodeNotCancellable, utils.ErrReservationNotCancel)
	case errors.Is(err, services.ErrNotRespondable):
		utils.ConflictResponse(c, utils.CodeNotRespondable, utils.ErrReservationNotRespond)
	case errors.Is(err, services.ErrInvalidDecision):
		utils.BadRequestResponse(c, err.Error())
	default:
		if apiErr, ok := api.AsError(err); ok {
			if apiErr.Client() {
				utils.ErrorResponse(c, apiErr.StatusCode, upstreamCode(apiErr.StatusCode), apiErr.Message())
				return
			}
			log.WithContext(c.Request.Context()).WithError(err).Error("reservation backend failed")
			utils.BadGatewayResponse(c, utils.ErrUpstreamUnavailable)
			return
		}
		log.WithContext(c.Request.Context()).WithError(err).Error("request failed")
		utils.InternalServerErrorResponse(c)
	}
}

func upstreamCode(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return utils.CodeUnauthorized
	case http.StatusForbidden:
		return utils.CodeForbidden
	case http.StatusNotFound:
		return utils.CodeNotFound
	case http.StatusConflict:
		return utils.CodeConflict
	}
	return utils.CodeBadRequest
}
