package routes

import (
	"net/http"

	"carpool/internal/handlers"
	"carpool/internal/middleware"
	"carpool/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// MineSuccessor is the canonical path the legacy list aliases point to.
const MineSuccessor = "/api/v1/reservations/me"

// legacyMinePaths are the list routes older clients still call.
var legacyMinePaths = []string{
	"/my-reservations",
	"/reservations/my",
	"/user/reservations",
}

type Handlers struct {
	Reservations *handlers.ReservationHandler
	Trips        *handlers.TripHandler
	Health       *handlers.HealthHandler
	WebSocket    *websocket.Handler
	Metrics      http.Handler
}

func SetupRoutes(router *gin.Engine, h Handlers, auth gin.HandlerFunc) {
	router.GET("/health", h.Health.Health)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	router.GET("/ws", auth, h.WebSocket.HandleWebSocket)

	api := router.Group("/api")
	SetupReservationRoutes(api.Group("/v1"), h.Reservations, h.Trips, auth)
	SetupLegacyRoutes(api, h.Reservations, auth)
}

// SetupReservationRoutes sets up the reservation and trip routes
func SetupReservationRoutes(r *gin.RouterGroup, reservationHandler *handlers.ReservationHandler, tripHandler *handlers.TripHandler, auth gin.HandlerFunc) {
	reservations := r.Group("/reservations")
	reservations.Use(auth)
	{
		// Passenger views
		reservations.GET("/me", reservationHandler.ListMine)
		reservations.GET("/me/summary", reservationHandler.Summary)
		reservations.GET("/:id", reservationHandler.Get)
		reservations.DELETE("/:id", reservationHandler.Cancel)

		// Driver views
		reservations.GET("/driver", middleware.DriverRequired(), reservationHandler.ListForDriver)
		reservations.PUT("/:id/respond", middleware.DriverRequired(), reservationHandler.Respond)
	}

	trips := r.Group("/trips")
	trips.Use(auth)
	{
		trips.GET("", tripHandler.SearchTrips)
		trips.GET("/:id/reservations", reservationHandler.ListForTrip)
	}
}

// SetupLegacyRoutes keeps the old list paths alive and points callers to the
// canonical route.
func SetupLegacyRoutes(r *gin.RouterGroup, reservationHandler *handlers.ReservationHandler, auth gin.HandlerFunc) {
	for _, path := range legacyMinePaths {
		r.GET(path, middleware.Deprecated(MineSuccessor), auth, reservationHandler.ListMine)
	}
}
