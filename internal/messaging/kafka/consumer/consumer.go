package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go-leave/internal/bootstrap"
	"go-leave/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// ConsumeLeaveLifecycle writes every leave lifecycle event to the audit log.
// Undecodable messages are committed and skipped so they never block the
// partition.
func ConsumeLeaveLifecycle(
	ctx context.Context,
	reader MessageReader,
	auditLogger bootstrap.AuditLogger,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave_lifecycle")
	log.Info("leave lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave lifecycle consumer stopped")
				return
			}
			log.Error("fetch leave lifecycle message failed", zap.Error(err))
			continue
		}

		entry, err := auditEntryFromMessage(msg)
		if err != nil {
			log.Error("decode leave lifecycle event failed",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		auditLogger.Log(ctx, entry)

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit leave lifecycle message failed", zap.Error(err))
			continue
		}
	}
}

func auditEntryFromMessage(msg kafkago.Message) (bootstrap.AuditLog, error) {
	var event events.LeaveLifecycleEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return bootstrap.AuditLog{}, err
	}
	if event.EventType == "" || event.LeaveID == "" {
		return bootstrap.AuditLog{}, fmt.Errorf("leave lifecycle event missing event_type or leave_id")
	}

	return bootstrap.AuditLog{
		Action:  event.EventType,
		Message: fmt.Sprintf("leave %s is now %s", event.LeaveID, event.Status),
		Meta: map[string]any{
			"leave_id":       event.LeaveID,
			"employee_id":    event.EmployeeID,
			"manager_id":     event.ManagerID,
			"actor_id":       event.ActorID,
			"request_id":     event.RequestID,
			"start_date":     event.StartDate,
			"end_date":       event.EndDate,
			"number_of_days": event.NumberOfDays,
			"occurred_at":    event.OccurredAt,
		},
	}, nil
}
