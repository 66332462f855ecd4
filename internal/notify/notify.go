// Package notify delivers update and error notifications.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"comics_mailer/internal/model"
)

// ErrDelivery is returned when a channel fails to deliver a message.
var ErrDelivery = errors.New("notification delivery failed")

// Message is a rendered notification.
type Message struct {
	Subject string
	Body    string
}

// Channel delivers rendered messages to one destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Notifier is the notification surface used by the checker.
type Notifier interface {
	NotifyUpdate(ctx context.Context, matches []string) error
	NotifyError(ctx context.Context, reason model.FailureReason, detail string) error
}

// Service renders notifications and fans them out to every channel.
// A Service without channels only logs what it would have sent.
type Service struct {
	channels []Channel
	log      *slog.Logger
}

// NewService creates a Service delivering to the given channels.
func NewService(log *slog.Logger, channels ...Channel) *Service {
	return &Service{channels: channels, log: log}
}

// NotifyUpdate sends the list of matched comics.
func (s *Service) NotifyUpdate(ctx context.Context, matches []string) error {
	msg, err := UpdateMessage(matches)
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}

// NotifyError sends a failure report for reason with an optional detail.
func (s *Service) NotifyError(ctx context.Context, reason model.FailureReason, detail string) error {
	msg, err := ErrorMessage(reason, detail)
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}

func (s *Service) send(ctx context.Context, msg Message) error {
	if len(s.channels) == 0 {
		s.log.Info("notification not sent, no channels configured", "subject", msg.Subject)
		return nil
	}

	var errs []error
	for _, ch := range s.channels {
		if err := ch.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		s.log.Debug("notification sent", "channel", ch.Name(), "subject", msg.Subject)
	}
	return errors.Join(errs...)
}
