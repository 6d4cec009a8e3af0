package entity

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber is a ROD newsletter recipient with engagement counters.
type Subscriber struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Status         string     `json:"status"`
	Segment        *string    `json:"segment,omitempty"`
	Score          int        `json:"score"`
	OpensCount     int        `json:"opens_count"`
	ClicksCount    int        `json:"clicks_count"`
	EmailsReceived int        `json:"emails_received"`
	LastOpenedAt   *time.Time `json:"last_opened_at,omitempty"`
	LastClickedAt  *time.Time `json:"last_clicked_at,omitempty"`
	SubscribedAt   time.Time  `json:"subscribed_at"`
}

// LastActivity returns the most recent open or click, if any.
func (s Subscriber) LastActivity() *time.Time {
	switch {
	case s.LastOpenedAt == nil:
		return s.LastClickedAt
	case s.LastClickedAt == nil:
		return s.LastOpenedAt
	case s.LastClickedAt.After(*s.LastOpenedAt):
		return s.LastClickedAt
	default:
		return s.LastOpenedAt
	}
}

// Template is a reusable ROD email template with aggregate performance.
type Template struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Category       *string   `json:"category,omitempty"`
	TargetSegments []string  `json:"target_segments"`
	TimesUsed      int       `json:"times_used"`
	AvgOpenRate    float64   `json:"avg_open_rate"`
	AvgClickRate   float64   `json:"avg_click_rate"`
}

// Campaign is a ROD send addressed to one subscriber segment.
type Campaign struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	TemplateID  *uuid.UUID `json:"template_id,omitempty"`
	Segment     *string    `json:"segment,omitempty"`
	Status      string     `json:"status"`
	Recipients  int        `json:"recipients"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	TriggeredAt *time.Time `json:"triggered_at,omitempty"`
}
