package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	ticketdomain "github.com/clubhive/clubhive/internal/ticket/domain"
)

// SeatsUpdate is the envelope pushed to subscribers whenever seat
// availability for an event changes.
type SeatsUpdate struct {
	Type    string                            `json:"type"`
	EventID snowflake.ID                      `json:"event_id"`
	Tickets []ticketdomain.TicketAvailability `json:"tickets"`
	SentAt  time.Time                         `json:"sent_at"`
}

// Publisher pushes availability changes to live subscribers. Publishing is
// best effort: a failed publish never fails the booking flow that caused it.
type Publisher interface {
	PublishSeatsUpdate(ctx context.Context, summary *ticketdomain.AvailabilitySummary) error
}

func channelFor(eventID snowflake.ID) string {
	return fmt.Sprintf("event:%s", eventID)
}

func marshalUpdate(summary *ticketdomain.AvailabilitySummary, now time.Time) ([]byte, error) {
	return json.Marshal(SeatsUpdate{
		Type:    "seats_update",
		EventID: summary.EventID,
		Tickets: summary.Tickets,
		SentAt:  now,
	})
}
