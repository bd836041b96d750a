package validators

import "strings"

const (
	DecisionAccept = "accept"
	DecisionRefuse = "refuse"
)

type RespondRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accept refuse"`
}

type TripSearchRequest struct {
	DepartureCity string `form:"departure_city" validate:"max=100"`
	ArrivalCity   string `form:"arrival_city" validate:"max=100"`
	Date          string `form:"date" validate:"trip_date"`
}

type ReservationIDRequest struct {
	ID string `uri:"id" validate:"required,resource_id"`
}

func ValidateRespond(req *RespondRequest) ValidationErrors {
	req.Decision = strings.ToLower(SanitizeInput(req.Decision))
	return ValidateStruct(req)
}

func ValidateTripSearch(req *TripSearchRequest) ValidationErrors {
	req.DepartureCity = SanitizeInput(req.DepartureCity)
	req.ArrivalCity = SanitizeInput(req.ArrivalCity)
	req.Date = SanitizeInput(req.Date)
	return ValidateStruct(req)
}

func ValidateReservationID(id string) ValidationErrors {
	return ValidateStruct(&ReservationIDRequest{ID: id})
}
