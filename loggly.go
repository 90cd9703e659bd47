/*
Package loggly provides a client for shipping application log events to the
Loggly ingestion service, including:

  - `loggly.Client` - prepares events (serialization, size enforcement, tag
    resolution) and assembles delivery requests
  - `loggly.HTTPTransport` - owns network I/O, retries, and bulk batching
    behind the narrow `Transport` interface

Events are shipped one per request to the token ingestion endpoint, or, in
bulk mode, batched and newline-joined to the bulk ingestion endpoint. Tags
travel either in the X-LOGGLY-TAG header or as a /tag/.../ path segment,
depending on the configured placement.

Example of basic usage:

	c, err := loggly.New(&loggly.ClientOptions{
		Subdomain: "example",
		Token:     "00000000-0000-0000-0000-000000000000",
		JSON:      true,
		Tags:      []string{"backend"},
	})
	if err != nil {
	   log.Fatalln(err)
	}

	c.Log(loggly.Structured(map[string]any{"user_id": userID}), nil, nil)
*/
package loggly
