package mpesa

import "context"

// Call records one outbound gateway invocation for test assertions.
type Call struct {
	Op        string
	Phone     string
	Amount    int64
	Reference string
}

// ScriptedGateway is a test double whose outcomes are configured per
// operation. The zero value accepts everything.
type ScriptedGateway struct {
	CollectErr  error
	DisburseErr error
	Calls       []Call
}

// InitiateCollection records the call and returns the scripted outcome.
func (g *ScriptedGateway) InitiateCollection(_ context.Context, phone string, amount int64, reference string) (Ack, error) {
	g.Calls = append(g.Calls, Call{Op: "collect", Phone: phone, Amount: amount, Reference: reference})
	if g.CollectErr != nil {
		return Ack{}, g.CollectErr
	}
	return Ack{Reference: "GW-" + reference, Status: StatusAccepted}, nil
}

// InitiateDisbursement records the call and returns the scripted outcome.
func (g *ScriptedGateway) InitiateDisbursement(_ context.Context, phone string, amount int64, reason string) (Ack, error) {
	g.Calls = append(g.Calls, Call{Op: "disburse", Phone: phone, Amount: amount, Reference: reason})
	if g.DisburseErr != nil {
		return Ack{}, g.DisburseErr
	}
	return Ack{Reference: "GW-" + reason, Status: StatusAccepted}, nil
}
