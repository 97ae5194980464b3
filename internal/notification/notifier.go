package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/messaging"
)

const sendTimeout = 30 * time.Second

// Notifier mails patients about changes to their appointments. It consumes
// the envelopes the outbox processor publishes.
type Notifier struct {
	patients repository.PatientRepository
	sender   Sender
	logger   *logger.Logger
}

func NewNotifier(patients repository.PatientRepository, sender Sender, logger *logger.Logger) *Notifier {
	return &Notifier{
		patients: patients,
		sender:   sender,
		logger:   logger,
	}
}

// Start subscribes to channel. Messages are handled until ctx is cancelled.
func (n *Notifier) Start(ctx context.Context, broker messaging.MessageBroker, channel string) error {
	return broker.Subscribe(ctx, channel, func(payload []byte) error {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()
		return n.Handle(sendCtx, payload)
	})
}

// Handle decodes one envelope and mails the patient. Unknown event types
// are ignored.
func (n *Notifier) Handle(ctx context.Context, payload []byte) error {
	var env model.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("failed to decode envelope: %w", err)
	}

	subject, ok := subjects[env.Type]
	if !ok {
		n.logger.Debug("Ignoring event", "type", env.Type, "event_id", env.ID)
		return nil
	}

	var event model.AppointmentEvent
	if err := json.Unmarshal(env.Payload, &event); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", env.Type, err)
	}

	patient, err := n.patients.Get(ctx, event.PatientID)
	if err != nil {
		return fmt.Errorf("failed to load patient for %s: %w", event.AppointmentCode, err)
	}
	if patient.Email == "" {
		n.logger.Warn("Patient has no email", "patient_code", patient.Code, "appointment_code", event.AppointmentCode)
		return nil
	}

	body := renderBody(env.Type, patient, &event)
	if err := n.sender.Send(ctx, patient.Email, fmt.Sprintf(subject, event.AppointmentCode), body); err != nil {
		return err
	}

	n.logger.Info("Notification sent",
		"type", env.Type,
		"appointment_code", event.AppointmentCode,
		"patient_code", patient.Code,
	)
	return nil
}

var subjects = map[string]string{
	model.EventAppointmentBooked:      "Appointment %s booked",
	model.EventAppointmentConfirmed:   "Appointment %s confirmed",
	model.EventAppointmentRescheduled: "Appointment %s rescheduled",
	model.EventAppointmentCancelled:   "Appointment %s cancelled",
	model.EventAppointmentCompleted:   "Appointment %s completed",
	model.EventAppointmentNoShow:      "Appointment %s missed",
}

func renderBody(eventType string, patient *model.Patient, e *model.AppointmentEvent) string {
	slot := fmt.Sprintf("%s at %s", e.Date, e.Time)

	var line string
	switch eventType {
	case model.EventAppointmentBooked:
		line = fmt.Sprintf("your appointment %s is booked for %s.", e.AppointmentCode, slot)
	case model.EventAppointmentConfirmed:
		line = fmt.Sprintf("your appointment %s on %s is confirmed.", e.AppointmentCode, slot)
	case model.EventAppointmentRescheduled:
		line = fmt.Sprintf("your appointment %s has moved to %s.", e.AppointmentCode, slot)
		if e.PreviousDate != nil && e.PreviousTime != nil {
			line += fmt.Sprintf(" It was previously on %s at %s.", e.PreviousDate, e.PreviousTime)
		}
	case model.EventAppointmentCancelled:
		line = fmt.Sprintf("your appointment %s on %s has been cancelled.", e.AppointmentCode, slot)
		if e.Reason != "" {
			line += " Reason: " + e.Reason
		}
	case model.EventAppointmentCompleted:
		line = fmt.Sprintf("your appointment %s on %s is complete.", e.AppointmentCode, slot)
		if e.TreatmentCode != "" {
			line += " Treatment record: " + e.TreatmentCode
		}
	case model.EventAppointmentNoShow:
		line = fmt.Sprintf("you missed appointment %s on %s. Please book a new slot.", e.AppointmentCode, slot)
	}

	return fmt.Sprintf("Dear %s,\n\n%s\n", patient.Name, line)
}
