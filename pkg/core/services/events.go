package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

// Routing keys for domain events
const (
	EventTeeTimeCreated               = "teetime.created"
	EventTeeTimeUpdated               = "teetime.updated"
	EventTeeTimeJoined                = "teetime.joined"
	EventTeeTimeLeft                  = "teetime.left"
	EventTeeTimeCancellationRequested = "teetime.cancellation_requested"
	EventTeeTimeCancellationDenied    = "teetime.cancellation_denied"
	EventTeeTimeRemoved               = "teetime.removed"

	EventStandingCreated               = "standing.created"
	EventStandingApproved              = "standing.approved"
	EventStandingDenied                = "standing.denied"
	EventStandingCancellationRequested = "standing.cancellation_requested"
	EventStandingCancellationDenied    = "standing.cancellation_denied"
	EventStandingRemoved               = "standing.removed"
)

// EventPublisher delivers domain events. Implementations marshal v as JSON.
type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}

// TeeTimeEvent describes a committed change to a tee time
type TeeTimeEvent struct {
	EventID    string    `json:"eventId"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	TeeTimeID  int       `json:"teeTimeId"`
	Date       string    `json:"date"`
	Slot       string    `json:"slot"`
	MemberID   int       `json:"memberId"`
	ActorID    int       `json:"actorId,omitempty"`
	Players    int       `json:"players"`
}

// StandingEvent describes a committed change to a standing request
type StandingEvent struct {
	EventID           string    `json:"eventId"`
	Type              string    `json:"type"`
	OccurredAt        time.Time `json:"occurredAt"`
	StandingRequestID int       `json:"standingRequestId"`
	MemberID          int       `json:"memberId"`
	DayOfWeek         string    `json:"dayOfWeek"`
	RequestedStart    string    `json:"requestedStart"`
	ActorID           int       `json:"actorId,omitempty"`
}

func newTeeTimeEvent(kind string, t *model.TeeTime, actorID int, at time.Time) TeeTimeEvent {
	return TeeTimeEvent{
		EventID:    uuid.NewString(),
		Type:       kind,
		OccurredAt: at,
		TeeTimeID:  t.ID,
		Date:       t.Date.Format(time.DateOnly),
		Slot:       t.Slot().Label(),
		MemberID:   t.MemberID,
		ActorID:    actorID,
		Players:    t.Players,
	}
}

func newStandingEvent(kind string, r *model.StandingRequest, actorID int, at time.Time) StandingEvent {
	return StandingEvent{
		EventID:           uuid.NewString(),
		Type:              kind,
		OccurredAt:        at,
		StandingRequestID: r.ID,
		MemberID:          r.MemberID,
		DayOfWeek:         r.DayOfWeek.String(),
		RequestedStart:    r.RequestedStartTime.String(),
		ActorID:           actorID,
	}
}

// notify publishes after commit. Failures are logged and dropped; the change is already durable.
func notify(ctx context.Context, publisher EventPublisher, logger *zap.Logger, routingKey string, v any) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishJSON(ctx, routingKey, v); err != nil {
		logger.Warn("Failed to publish event", zap.String("routing_key", routingKey), zap.Error(err))
		return
	}
	logger.Debug("Published event", zap.String("routing_key", routingKey))
}
