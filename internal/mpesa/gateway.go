package mpesa

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrGateway occurs when the mobile-money network rejects a request, times
// out, or is unreachable.
var ErrGateway = errors.New("mobile money gateway request failed")

const (
	// StatusAccepted indicates the gateway queued the request for asynchronous
	// processing.
	StatusAccepted = "accepted"
)

// Ack is the gateway's synchronous acknowledgment. The actual money movement
// on the mobile-money side completes asynchronously.
type Ack struct {
	Reference   string
	Status      string
	Description string
}

// Gateway is the contract for the external mobile-money network: collections
// pull funds from a subscriber (C2B), disbursements push funds out (B2C).
type Gateway interface {
	InitiateCollection(ctx context.Context, phone string, amount int64, reference string) (Ack, error)
	InitiateDisbursement(ctx context.Context, phone string, amount int64, reason string) (Ack, error)
}

// StaticGateway simulates a gateway that accepts every request. Used in dev
// mode and as the default collaborator when no base URL is configured.
type StaticGateway struct{}

// InitiateCollection acknowledges the collection with a synthetic reference.
func (StaticGateway) InitiateCollection(_ context.Context, _ string, _ int64, _ string) (Ack, error) {
	return Ack{Reference: uuid.NewString(), Status: StatusAccepted, Description: "collection queued"}, nil
}

// InitiateDisbursement acknowledges the payout with a synthetic reference.
func (StaticGateway) InitiateDisbursement(_ context.Context, _ string, _ int64, _ string) (Ack, error) {
	return Ack{Reference: uuid.NewString(), Status: StatusAccepted, Description: "disbursement queued"}, nil
}
