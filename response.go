package loggly

import (
	"encoding/json"
	"fmt"
)

// IngestAck is the structured acknowledgment the ingestion service returns
// for an accepted delivery.
type IngestAck struct {
	Response string `json:"response"`
}

// LogResult is surfaced to per-call callbacks and OnLog subscribers after a
// delivery completes successfully.
type LogResult struct {
	// Ack is the parsed service acknowledgment. It is nil when the service
	// answered 200 with an empty body.
	Ack *IngestAck

	// Truncated reports whether any event in the delivery was cut down to
	// the maximum event size before shipping.
	Truncated bool
}

// Callback receives the outcome of one delivery: a nil error and a result
// on success, or a non-nil error (*DeliveryError for status failures,
// wrapped transport errors otherwise).
type Callback func(err error, res *LogResult)

const deliveryErrPrefix = "unspecified delivery error"

// parseAck decodes the service acknowledgment body. Decode failures carry
// the fixed delivery-error prefix.
func parseAck(body []byte) (*IngestAck, error) {
	ack := new(IngestAck)
	if err := json.Unmarshal(body, ack); err != nil {
		return nil, fmt.Errorf("%s: %w", deliveryErrPrefix, err)
	}
	return ack, nil
}
