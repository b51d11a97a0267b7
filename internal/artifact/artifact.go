package artifact

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	qrcode "github.com/skip2/go-qrcode"
)

// TicketClaim is the payload encoded into the entry QR for a confirmed
// booking. Scanners decode it at the venue gate.
type TicketClaim struct {
	BookingID snowflake.ID `json:"booking_id"`
	EventID   snowflake.ID `json:"event_id"`
	UserID    snowflake.ID `json:"user_id"`
	Quantity  int64        `json:"quantity"`
	IssuedAt  time.Time    `json:"issued_at"`
}

// Generator renders a scannable ticket artifact for a claim.
type Generator interface {
	Generate(claim TicketClaim) ([]byte, error)
}

// Store persists a rendered artifact and returns its public URL.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

type qrGenerator struct{}

func NewQRGenerator() Generator {
	return qrGenerator{}
}

func (qrGenerator) Generate(claim TicketClaim) ([]byte, error) {
	payload, err := json.Marshal(claim)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(string(payload), qrcode.Medium, 256)
}
