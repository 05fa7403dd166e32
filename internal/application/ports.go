package application

import (
	"context"
	"io"
	"time"

	"github.com/oksasatya/doitnow-api/internal/domain/entity"
)

// ProofStore persists completion evidence and returns a stable reference.
// The content is never interpreted.
type ProofStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
}

// TaskIndex is the search side of tasks. Implementations may be no-ops.
type TaskIndex interface {
	Index(ctx context.Context, t *entity.Task) error
	Search(ctx context.Context, ownerID, q string, size int) ([]TaskHit, error)
}

// TaskHit is one search result.
type TaskHit struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Priority  string    `json:"priority"`
	Completed bool      `json:"completed"`
	DueDate   time.Time `json:"due_date"`
}

// OTPMessage is what the OTP sender needs to reach the user.
type OTPMessage struct {
	Email     string
	Name      string
	Code      string
	ExpiresAt time.Time
	IP        string
	UserAgent string
}

// OTPSender delivers a one-time passcode. A nil error means the transport
// accepted the message.
type OTPSender interface {
	SendOTP(ctx context.Context, msg OTPMessage) error
}
