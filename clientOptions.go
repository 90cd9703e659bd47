package loggly

import "time"

// TagPlacement selects how resolved tags travel with a delivery.
type TagPlacement int

const (
	// TagsInHeader sends tags comma-joined in the X-LOGGLY-TAG header. This
	// is the default placement.
	TagsInHeader TagPlacement = iota

	// TagsInPath appends a /tag/<comma-joined>/ segment to the ingestion
	// URI instead of using the header.
	TagsInPath
)

// BasicAuth carries the credentials used by the account-info and search
// endpoints. The ingestion endpoints authenticate with the token alone.
type BasicAuth struct {
	Username string
	Password string
}

// ClientOptions are used to customize the Client.
//
// # Invalid options are coerced
//
// Optional fields holding invalid values are coerced to their defaults
// rather than rejected; only the required Subdomain and Token are validated
// by the constructor.
type ClientOptions struct {

	// Subdomain is the Loggly account subdomain. Required.
	Subdomain string

	// Token is the ingestion token routing events to the account. Required.
	Token string

	// Host of the ingestion service. The default is "logs-01.loggly.com".
	Host string

	// JSON enables structured mode: events are shipped as JSON with an
	// application/json content type. The default ships plain text.
	JSON bool

	// Auth supplies credentials for the account-info and search endpoints.
	// Ingestion does not use it.
	Auth *BasicAuth

	// Proxy optionally routes deliveries through an HTTP proxy, given as
	// host:port.
	Proxy string

	// TagPlacement selects header or URL-path tag transport. The default is
	// TagsInHeader.
	TagPlacement TagPlacement

	// Bulk batches events and ships them newline-joined to the bulk
	// ingestion endpoint in a single request.
	Bulk bool

	// Tags are the default tags attached to every event. They are resolved
	// once at construction; invalid entries are dropped.
	Tags []string

	// AppName, when set, is attached to every delivery in the
	// X-LOGGLY-APPNAME header.
	AppName string

	// MaxEventBytes caps the serialized size of one event. Longer events
	// are truncated at the byte boundary and flagged, never rejected. The
	// default is 1,000,000 bytes.
	MaxEventBytes int

	// BufferSize caps how many prepared events a bulk batch may hold before
	// a flush is forced. The default is 500.
	BufferSize int

	// FlushInterval is the cadence at which a non-empty bulk batch is
	// shipped even when it has not reached BufferSize. The default is 5s.
	FlushInterval time.Duration

	// RetryInterval bounds the exponential backoff between delivery
	// attempts. The default is 30s.
	RetryInterval time.Duration

	// Timeout bounds each delivery round-trip. The default is 10s.
	Timeout time.Duration

	// Concurrency controls the number of transport workers. Each worker
	// independently pulls deliveries from the shared queue. The default
	// is 1.
	Concurrency int

	// QueueDepth sets the maximum number of deliveries that can be queued
	// before Deliver blocks. The default depth is 16; a depth of 0 makes
	// hand-off to the transport synchronous.
	QueueDepth int

	// MaxRetries limits transport attempts per delivery. The default is 3.
	MaxRetries int

	// Verbose controls whether debug logs are written to the internal
	// logger.
	Verbose bool
}

const (
	defaultHost          = "logs-01.loggly.com"
	defaultBufferSize    = 500
	defaultFlushInterval = time.Second * 5
	defaultRetryInterval = time.Second * 30
	defaultTimeout       = time.Second * 10
	defaultConcurrency   = 1
	defaultQueueDepth    = 16
	defaultMaxRetries    = 3
)

// DefaultClientOptions returns *ClientOptions with all default values. The
// required Subdomain and Token still need to be set before constructing a
// Client.
func DefaultClientOptions() *ClientOptions {
	return &ClientOptions{
		Host:          defaultHost,
		MaxEventBytes: defaultMaxEventBytes,
		BufferSize:    defaultBufferSize,
		FlushInterval: defaultFlushInterval,
		RetryInterval: defaultRetryInterval,
		Timeout:       defaultTimeout,
		Concurrency:   defaultConcurrency,
		QueueDepth:    defaultQueueDepth,
		MaxRetries:    defaultMaxRetries,
	}
}

// resolve ensures that all optional fields hold valid values.
func (o *ClientOptions) resolve() {

	if len(o.Host) == 0 {
		o.Host = defaultHost
	}

	// only the two defined placements
	if o.TagPlacement != TagsInHeader && o.TagPlacement != TagsInPath {
		o.TagPlacement = TagsInHeader
	}

	// must be positive
	if o.MaxEventBytes < 1 {
		o.MaxEventBytes = defaultMaxEventBytes
	}

	// must be positive
	if o.BufferSize < 1 {
		o.BufferSize = defaultBufferSize
	}

	// must be positive
	if o.FlushInterval < 1 {
		o.FlushInterval = defaultFlushInterval
	}

	// must be positive
	if o.RetryInterval < 1 {
		o.RetryInterval = defaultRetryInterval
	}

	// must be positive
	if o.Timeout < 1 {
		o.Timeout = defaultTimeout
	}

	// must have at least one worker
	if o.Concurrency < 1 {
		o.Concurrency = defaultConcurrency
	}

	// 0 is valid (synchronous hand-off), negative is not
	if o.QueueDepth < 0 {
		o.QueueDepth = defaultQueueDepth
	}

	// must be positive
	if o.MaxRetries < 1 {
		o.MaxRetries = defaultMaxRetries
	}
}

// validate reports the construction-time fatal errors.
func (o *ClientOptions) validate() error {
	if len(o.Subdomain) == 0 {
		return ErrMissingSubdomain
	}
	if len(o.Token) == 0 {
		return ErrMissingToken
	}
	return nil
}
