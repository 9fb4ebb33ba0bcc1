package gateway

import (
	"errors"
	"fmt"

	"audiosurv/internal/alerts"
)

// Tier names the analysis stage that failed.
type Tier string

const (
	TierInitial Tier = "initial"
	TierDeep    Tier = "deep"
	TierKeyword Tier = "keyword"
)

// GatewayError is returned for every failed analysis call. Error returns the
// operator-facing message; Detail includes the underlying cause for logs.
type GatewayError struct {
	Tier    Tier
	Op      string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	return e.Message
}

// DisplayMessage implements the display contract used by alerts.Message.
func (e *GatewayError) DisplayMessage() string {
	return e.Message
}

// Detail renders the message together with its cause.
func (e *GatewayError) Detail() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (%s)", e.Message, e.Op)
	}
	return fmt.Sprintf("%s (%s): %v", e.Message, e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Is matches alerts.ErrGateway.
func (e *GatewayError) Is(target error) bool {
	return target == alerts.ErrGateway
}

func newError(tier Tier, provider, op string, err error) *GatewayError {
	return &GatewayError{Tier: tier, Op: op, Message: tierMessage(tier, provider), Err: err}
}

func tierMessage(tier Tier, provider string) string {
	switch tier {
	case TierInitial:
		return fmt.Sprintf("Failed to get a valid initial analysis from the %s API.", provider)
	case TierDeep:
		return fmt.Sprintf("Failed to get a valid deep analysis from the %s API.", provider)
	default:
		return fmt.Sprintf("Failed to get a valid analysis from the %s API.", provider)
	}
}

// AsGatewayError extracts a *GatewayError from err.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}
