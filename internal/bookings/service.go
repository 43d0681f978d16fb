// Package bookings creates appointments with the provider picked on a map
// session as the default doctor.
package bookings

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/healthhub-platform/internal/dataapi"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

var bookingsTracer = otel.Tracer("healthhub.internal.bookings")

// AppointmentCreator forwards bookings to the data API.
type AppointmentCreator interface {
	CreateAppointment(ctx context.Context, req dataapi.AppointmentRequest) (*dataapi.Appointment, error)
}

// SelectionSource reports the provider selected on a map session.
type SelectionSource interface {
	SelectedProvider(sessionID string) (string, bool)
}

// Request is a booking attempt. SessionID is optional.
type Request struct {
	DoctorID  string `json:"doctorId"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	SessionID string `json:"session_id,omitempty"`
}

// Service books appointments.
type Service struct {
	creator    AppointmentCreator
	selections SelectionSource
	logger     *logging.Logger
}

// NewService constructs a bookings service. selections may be nil.
func NewService(creator AppointmentCreator, selections SelectionSource, logger *logging.Logger) *Service {
	if creator == nil {
		panic("bookings: appointment creator required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{creator: creator, selections: selections, logger: logger}
}

// Book fills an empty DoctorID from the session's map selection, checks the
// required fields and creates the appointment.
func (s *Service) Book(ctx context.Context, req Request) (*dataapi.Appointment, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.book")
	defer span.End()

	doctorID := strings.TrimSpace(req.DoctorID)
	if doctorID == "" && req.SessionID != "" && s.selections != nil {
		if selected, ok := s.selections.SelectedProvider(req.SessionID); ok {
			doctorID = selected
			span.SetAttributes(attribute.Bool("healthhub.doctor_from_map", true))
		}
	}
	span.SetAttributes(attribute.String("healthhub.doctor_id", doctorID))

	appt, err := s.creator.CreateAppointment(ctx, dataapi.AppointmentRequest{
		DoctorID: doctorID,
		Date:     strings.TrimSpace(req.Date),
		Time:     strings.TrimSpace(req.Time),
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("appointment booked", "appointment_id", appt.ID, "doctor_id", doctorID)
	return appt, nil
}
