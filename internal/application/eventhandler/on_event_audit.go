package eventhandler

import (
	"github.com/ingvionio/fullstack/internal/domain/shared"
	"github.com/ingvionio/fullstack/pkg/logger"
)

// AuditLogger пишет каждое опубликованное событие в журнал.
type AuditLogger struct {
	log *logger.Logger
}

// NewAuditLogger создаёт журнал событий.
func NewAuditLogger(log *logger.Logger) *AuditLogger {
	if log == nil {
		log = logger.Nop()
	}
	return &AuditLogger{log: log.With(logger.Component("event_audit"))}
}

// Register подписывает журнал на все события.
func (a *AuditLogger) Register(sub shared.EventSubscriber) error {
	return sub.SubscribeAll(a.Handle)
}

// Handle реализует shared.EventHandler.
func (a *AuditLogger) Handle(event shared.Event) error {
	a.log.Debug("domain event",
		logger.EventType(string(event.EventType())),
		logger.String("aggregate_id", event.AggregateID()),
		logger.Time("occurred_at", event.OccurredAt()),
		logger.Any("payload", event.Payload()),
	)
	return nil
}
