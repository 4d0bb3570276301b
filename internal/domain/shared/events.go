package shared

import (
	"strconv"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types published after a unit of work commits.
const (
	EventPointCreated        EventType = "point.created"
	EventMarkCreated         EventType = "mark.created"
	EventMarkDeleted         EventType = "mark.deleted"
	EventXPGained            EventType = "progress.xp_gained"
	EventLevelUp             EventType = "progress.level_up"
	EventLevelReconciled     EventType = "progress.level_reconciled"
	EventAchievementUnlocked EventType = "achievement.unlocked"
	EventUserDeleted         EventType = "user.deleted"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event for a numeric aggregate id.
func NewBaseEvent(eventType EventType, aggregateID int64, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: strconv.FormatInt(aggregateID, 10),
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Content Events
// ═══════════════════════════════════════════════════════════════════════════

// PointCreatedEvent is emitted when a point is created.
type PointCreatedEvent struct {
	BaseEvent
	PointID   int64
	CreatorID *int64
}

func (e PointCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"point_id":   e.PointID,
		"creator_id": e.CreatorID,
	}
}

// NewPointCreatedEvent creates a PointCreatedEvent.
func NewPointCreatedEvent(pointID int64, creatorID *int64, at time.Time) PointCreatedEvent {
	return PointCreatedEvent{
		BaseEvent: NewBaseEvent(EventPointCreated, pointID, at),
		PointID:   pointID,
		CreatorID: creatorID,
	}
}

// MarkChangedEvent is emitted when a mark is created or deleted and the
// point rating was recomputed.
type MarkChangedEvent struct {
	BaseEvent
	MarkID      int64
	PointID     int64
	UserID      *int64
	PointRating float64
}

func (e MarkChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"mark_id":      e.MarkID,
		"point_id":     e.PointID,
		"user_id":      e.UserID,
		"point_rating": e.PointRating,
	}
}

// NewMarkChangedEvent creates a mark.created or mark.deleted event.
func NewMarkChangedEvent(eventType EventType, markID, pointID int64, userID *int64, rating float64, at time.Time) MarkChangedEvent {
	return MarkChangedEvent{
		BaseEvent:   NewBaseEvent(eventType, markID, at),
		MarkID:      markID,
		PointID:     pointID,
		UserID:      userID,
		PointRating: rating,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// XPGainedEvent is emitted when a user gains XP.
type XPGainedEvent struct {
	BaseEvent
	UserID   int64
	Username string
	Amount   int
	NewTotal int
	Level    int
	Source   string
}

func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"username":  e.Username,
		"amount":    e.Amount,
		"new_total": e.NewTotal,
		"level":     e.Level,
		"source":    e.Source,
	}
}

// NewXPGainedEvent creates an XPGainedEvent.
func NewXPGainedEvent(userID int64, username string, amount, newTotal, level int, source string, at time.Time) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: NewBaseEvent(EventXPGained, userID, at),
		UserID:    userID,
		Username:  username,
		Amount:    amount,
		NewTotal:  newTotal,
		Level:     level,
		Source:    source,
	}
}

// LevelChangedEvent is emitted on level-up and on level reconciliation.
type LevelChangedEvent struct {
	BaseEvent
	UserID   int64
	OldLevel int
	NewLevel int
}

func (e LevelChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
	}
}

// NewLevelChangedEvent creates a progress.level_up or progress.level_reconciled event.
func NewLevelChangedEvent(eventType EventType, userID int64, oldLevel, newLevel int, at time.Time) LevelChangedEvent {
	return LevelChangedEvent{
		BaseEvent: NewBaseEvent(eventType, userID, at),
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// AchievementUnlockedEvent is emitted when a user completes an achievement.
type AchievementUnlockedEvent struct {
	BaseEvent
	UserID          int64
	AchievementID   int64
	AchievementName string
	XPReward        int
}

func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":          e.UserID,
		"achievement_id":   e.AchievementID,
		"achievement_name": e.AchievementName,
		"xp_reward":        e.XPReward,
	}
}

// NewAchievementUnlockedEvent creates an AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(userID, achievementID int64, name string, xpReward int, at time.Time) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:       NewBaseEvent(EventAchievementUnlocked, userID, at),
		UserID:          userID,
		AchievementID:   achievementID,
		AchievementName: name,
		XPReward:        xpReward,
	}
}

// UserDeletedEvent is emitted after a user and their content were removed.
type UserDeletedEvent struct {
	BaseEvent
	UserID int64
}

func (e UserDeletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"user_id": e.UserID}
}

// NewUserDeletedEvent creates a UserDeletedEvent.
func NewUserDeletedEvent(userID int64, at time.Time) UserDeletedEvent {
	return UserDeletedEvent{
		BaseEvent: NewBaseEvent(EventUserDeleted, userID, at),
		UserID:    userID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Bus contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NoopPublisher discards events. Used when no bus is configured.
type NoopPublisher struct{}

// Publish implements EventPublisher.
func (NoopPublisher) Publish(Event) error { return nil }
