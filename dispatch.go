package loggly

import "strings"

// DeliveryRequest fully describes one delivery to the ingestion service:
// destination, method, headers, and the ordered event bodies. It is a plain
// value handed to a Transport; building one performs no I/O.
type DeliveryRequest struct {
	URI    string
	Method string
	Header map[string]string

	// Bodies holds the prepared event bodies in submission order. Single
	// deliveries carry exactly one; bulk deliveries carry the whole batch,
	// which the transport joins with newlines. Bulk ingestion is
	// order-sensitive, so the order must not be disturbed.
	Bodies []string

	// Truncated reports whether any body in the request was cut down to
	// the maximum event size.
	Truncated bool
}

const (
	headerTag     = "X-LOGGLY-TAG"
	headerAppName = "X-LOGGLY-APPNAME"

	contentTypeJSON  = "application/json"
	contentTypePlain = "text/plain"
)

// buildRequest assembles a complete delivery request from prepared
// payloads, resolved tags, and the client options. Bulk mode targets the
// bulk ingestion endpoint, single mode the per-token endpoint. A non-empty
// tag set is attached per the configured placement; an empty one attaches
// nothing, because the service rejects an empty tag header.
func buildRequest(payloads []PreparedPayload, tags TagSet, opts *ClientOptions) *DeliveryRequest {

	uri := "https://" + opts.Host + "/inputs/" + opts.Token
	if opts.Bulk {
		uri = "https://" + opts.Host + "/bulk/" + opts.Token
	}

	header := map[string]string{"content-type": contentTypePlain}
	if opts.JSON {
		header["content-type"] = contentTypeJSON
	}
	if len(opts.AppName) > 0 {
		header[headerAppName] = opts.AppName
	}

	if len(tags) > 0 {
		joined := strings.Join(tags, ",")
		switch opts.TagPlacement {
		case TagsInHeader:
			header[headerTag] = joined
		case TagsInPath:
			uri += "/tag/" + joined + "/"
		}
	}

	req := &DeliveryRequest{
		URI:    uri,
		Method: "POST",
		Header: header,
		Bodies: make([]string, 0, len(payloads)),
	}
	for i := 0; i < len(payloads); i++ {
		req.Bodies = append(req.Bodies, payloads[i].Body)
		req.Truncated = req.Truncated || payloads[i].Truncated
	}

	return req
}
