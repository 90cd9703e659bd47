package loggly

import (
	"errors"
	"fmt"
)

// Construction and API precondition errors. Missing required configuration
// is fatal: a client cannot be created without the account subdomain and
// the ingestion token.
var (
	ErrMissingSubdomain = errors.New("loggly: subdomain is required")
	ErrMissingToken     = errors.New("loggly: token is required")
	ErrMissingAuth      = errors.New("loggly: auth credentials are required")
)

// DeliveryError reports a delivery the service answered with a non-200
// status. It reaches the caller through the completion callback like every
// other delivery failure.
type DeliveryError struct {
	Code   int
	Status string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("loggly: delivery failed with status %d %s", e.Code, e.Status)
}
