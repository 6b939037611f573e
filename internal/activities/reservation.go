package activities

import (
	"context"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/engine"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
	"github.com/Youmanvi/venuereserve/internal/reservation"
)

// CheckAvailabilityInput is the input of availability:check
type CheckAvailabilityInput struct {
	Resource domain.ResourceRef `json:"resource"`
	CheckIn  string             `json:"checkin"`
	CheckOut string             `json:"checkout"`
	Quantity int                `json:"quantity"`
}

// CreateReservationInput is the input of reservation:create. Dates are YYYY-MM-DD.
type CreateReservationInput struct {
	Customer    domain.Customer           `json:"customer"`
	CheckIn     string                    `json:"checkin"`
	CheckOut    string                    `json:"checkout"`
	Lines       []reservation.LineRequest `json:"lines"`
	DownPayment domain.DownPaymentPolicy  `json:"down_payment"`
	Draft       bool                      `json:"draft"`
	Notes       string                    `json:"notes"`
	CreatedBy   string                    `json:"created_by"`
}

// UpdateStatusInput is the input of reservation:update_status
type UpdateStatusInput struct {
	ID     string                   `json:"id"`
	Status domain.ReservationStatus `json:"status"`
}

// LookupInput identifies a reservation or sale by id, or a reservation by code
type LookupInput struct {
	ID   string `json:"id"`
	Code string `json:"code,omitempty"`
}

// CheckAvailabilityActivity answers checkAvailability
func CheckAvailabilityActivity(eng Engine) ActivityFunc {
	return jsonActivity(engine.OpCheckAvailability, func(ctx context.Context, in CheckAvailabilityInput) (domain.Availability, error) {
		r, err := domain.ParseDateRange(in.CheckIn, in.CheckOut)
		if err != nil {
			return domain.Availability{}, err
		}
		return eng.CheckAvailability(ctx, in.Resource, r, in.Quantity)
	})
}

// CreateReservationActivity commits a reservation with its lines
func CreateReservationActivity(eng Engine) ActivityFunc {
	return jsonActivity(engine.OpCreateReservation, func(ctx context.Context, in CreateReservationInput) (*domain.Reservation, error) {
		r, err := domain.ParseDateRange(in.CheckIn, in.CheckOut)
		if err != nil {
			return nil, err
		}
		return eng.CreateReservation(ctx, reservation.CreateRequest{
			Customer:    in.Customer,
			Range:       r,
			Lines:       in.Lines,
			DownPayment: in.DownPayment,
			Draft:       in.Draft,
			Notes:       in.Notes,
			CreatedBy:   in.CreatedBy,
		})
	})
}

// UpdateReservationStatusActivity applies a lifecycle transition
func UpdateReservationStatusActivity(eng Engine) ActivityFunc {
	return jsonActivity(engine.OpUpdateReservationStatus, func(ctx context.Context, in UpdateStatusInput) (*domain.Reservation, error) {
		return eng.UpdateReservationStatus(ctx, in.ID, in.Status)
	})
}

// CancelReservationActivity cancels a reservation given by id or code
func CancelReservationActivity(eng Engine) ActivityFunc {
	return jsonActivity(engine.OpCancelReservation, func(ctx context.Context, in LookupInput) (*domain.Reservation, error) {
		id := in.ID
		if id == "" && in.Code != "" {
			res, err := eng.GetReservation(ctx, "", in.Code)
			if err != nil {
				return nil, err
			}
			id = res.ID
		}
		if id == "" {
			return nil, errors.Validation("reservation id or code is required")
		}
		return eng.CancelReservation(ctx, id)
	})
}

// GetReservationActivity reads a reservation by id or code
func GetReservationActivity(eng Engine) ActivityFunc {
	return jsonActivity(engine.OpGetReservation, func(ctx context.Context, in LookupInput) (*domain.Reservation, error) {
		return eng.GetReservation(ctx, in.ID, in.Code)
	})
}
