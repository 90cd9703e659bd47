package loggly

import (
	"context"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

// Client ships log events to the Loggly ingestion service. Each Log call
// prepares the event (serialization, size enforcement, tag resolution),
// assembles a delivery request, and hands it to the Transport; completion
// is reported asynchronously through the optional per-call callback.
//
//	// Example of basic usage
//	c, err := loggly.New(&loggly.ClientOptions{
//		Subdomain: "example",
//		Token:     token,
//	})
//	if err != nil {
//	   log.Fatalln(err)
//	}
//
//	c.Log(loggly.Text("ready"), nil, nil)
type Client struct {
	opts        *ClientOptions
	defaultTags TagSet
	transport   Transport
	api         *fasthttp.Client

	subMu sync.Mutex
	subs  []func(*LogResult)

	// bulk mode batch state
	batchMu   sync.Mutex
	batch     []PreparedPayload
	batchTags TagSet
	batchCbs  []Callback
	flushDone chan struct{}
	flushWG   sync.WaitGroup
}

// New creates a Client backed by an HTTPTransport. A missing Subdomain or
// Token is a fatal construction error; all other options are coerced to
// valid values.
func New(opts *ClientOptions) (*Client, error) {

	if opts == nil {
		opts = DefaultClientOptions()
	} else {
		opts.resolve()
	}

	if err := opts.validate(); err != nil {
		return nil, err
	}

	return NewCustom(opts, NewHTTPTransport(opts))
}

// NewCustom creates a Client over a caller-supplied Transport, for full
// control over delivery (or for capturing requests in tests).
func NewCustom(opts *ClientOptions, transport Transport) (*Client, error) {

	if opts == nil {
		opts = DefaultClientOptions()
	} else {
		opts.resolve()
	}

	if err := opts.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		opts:        opts,
		defaultTags: ResolveTags(opts.Tags...),
		transport:   transport,
		api: &fasthttp.Client{
			ReadTimeout:  opts.Timeout,
			WriteTimeout: opts.Timeout,
		},
	}

	c.debug("starting Client with the resolved ClientOptions: %+v", c.opts)

	if opts.Bulk {
		c.flushDone = make(chan struct{})
		c.flushWG.Add(1)
		go c.flushLoop()
	}

	return c, nil
}

// Log prepares and ships one event. tags may be nil; when present they are
// resolved and appended after the client's default tags. cb may be nil;
// when set it receives the delivery outcome, including whether the event
// was truncated. Log returns the Client so calls can be chained.
//
// In bulk mode the event joins the pending batch instead of being shipped
// immediately; the batch goes out when it reaches BufferSize, when
// FlushInterval elapses, or on Flush/Shutdown.
func (c *Client) Log(m Message, tags []string, cb Callback) *Client {

	payload := preparePayload(m, c.opts.JSON, c.opts.MaxEventBytes)

	if c.opts.Bulk {
		c.enqueue(payload, ResolveTags(tags...), cb)
		return c
	}

	effective := c.defaultTags
	if len(tags) > 0 {
		effective = append(append(TagSet{}, c.defaultTags...), ResolveTags(tags...)...)
	}

	req := buildRequest([]PreparedPayload{payload}, effective, c.opts)
	c.transport.Deliver(req, c.completion(cb))

	return c
}

// OnLog registers fn to be notified after every successful delivery, in
// addition to any per-call callback. Subscriptions are independent of the
// per-call completion path; both are fed by the same completion event.
func (c *Client) OnLog(fn func(*LogResult)) {
	c.subMu.Lock()
	c.subs = append(c.subs, fn)
	c.subMu.Unlock()
}

// completion wraps a per-call callback so successful deliveries also reach
// OnLog subscribers.
func (c *Client) completion(cb Callback) Callback {
	return func(err error, res *LogResult) {
		if err == nil && res != nil {
			c.subMu.Lock()
			subs := append([]func(*LogResult){}, c.subs...)
			c.subMu.Unlock()
			for i := 0; i < len(subs); i++ {
				subs[i](res)
			}
		}
		if cb != nil {
			cb(err, res)
		}
	}
}

func (c *Client) enqueue(p PreparedPayload, callTags TagSet, cb Callback) {
	c.batchMu.Lock()
	c.batch = append(c.batch, p)
	c.batchTags = append(c.batchTags, callTags...)
	if cb != nil {
		c.batchCbs = append(c.batchCbs, cb)
	}
	full := len(c.batch) >= c.opts.BufferSize
	c.batchMu.Unlock()

	if full {
		c.Flush()
	}
}

// Flush ships the pending bulk batch immediately. It is a no-op when the
// batch is empty or the client is not in bulk mode.
func (c *Client) Flush() {
	c.batchMu.Lock()
	if len(c.batch) == 0 {
		c.batchMu.Unlock()
		return
	}
	payloads, callTags, cbs := c.batch, c.batchTags, c.batchCbs
	c.batch, c.batchTags, c.batchCbs = nil, nil, nil
	c.batchMu.Unlock()

	tags := c.defaultTags
	if len(callTags) > 0 {
		tags = append(append(TagSet{}, c.defaultTags...), callTags...)
	}

	c.debug("flushing bulk batch of %d events", len(payloads))

	req := buildRequest(payloads, tags, c.opts)
	c.transport.Deliver(req, c.completion(func(err error, res *LogResult) {
		// every buffered event shares the batch outcome
		for i := 0; i < len(cbs); i++ {
			cbs[i](err, res)
		}
	}))
}

func (c *Client) flushLoop() {
	defer c.flushWG.Done()

	ticker := time.NewTicker(c.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Flush()
		case <-c.flushDone:
			return
		}
	}
}

// Shutdown is used to support graceful shutdown. It stops the bulk flusher,
// ships any pending batch, and drains the transport queue. You MUST NOT
// call Log after calling Shutdown.
func (c *Client) Shutdown(ctx context.Context) error {
	if c.opts.Bulk {
		close(c.flushDone)
		c.flushWG.Wait()
		c.Flush()
	}
	return c.transport.Shutdown(ctx)
}

// internal logging helper:
func (c *Client) debug(format string, args ...any) {
	if !c.opts.Verbose {
		return
	}
	InternalLogger().Printf(format, args...)
}
