package loggly

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bitdabbler/backoff"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpproxy"
)

// Transport accepts fully assembled delivery requests and owns everything
// past that point: network I/O, retries, and buffering. Completion is
// reported asynchronously through the per-delivery callback.
type Transport interface {
	Deliver(req *DeliveryRequest, done Callback)
	Shutdown(ctx context.Context) error
}

type delivery struct {
	req  *DeliveryRequest
	done Callback
}

type transportWorker struct {
	*ClientOptions
	id     int
	client *fasthttp.Client
	wg     *sync.WaitGroup
	sendCh chan delivery
}

// HTTPTransport is the production Transport. Worker goroutines pull
// deliveries from a shared queue and POST them to the ingestion service,
// retrying transport-level failures with exponential backoff. Rejections
// the service answered (any non-200 status) are not retried; they complete
// immediately with a *DeliveryError.
type HTTPTransport struct {
	opts    *ClientOptions
	workers []*transportWorker
	wg      *sync.WaitGroup
	sendCh  chan delivery
}

// compile-time check
var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a transport from the client options, spinning up
// Concurrency worker goroutines.
func NewHTTPTransport(opts *ClientOptions) *HTTPTransport {

	if opts == nil {
		opts = DefaultClientOptions()
	} else {
		opts.resolve()
	}

	hc := &fasthttp.Client{
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,

		// header names go out exactly as assembled
		DisableHeaderNamesNormalizing: true,
	}
	if len(opts.Proxy) > 0 {
		hc.Dial = fasthttpproxy.FasthttpHTTPDialer(opts.Proxy)
	}

	t := &HTTPTransport{
		opts:    opts,
		workers: make([]*transportWorker, opts.Concurrency),
		wg:      &sync.WaitGroup{},
		sendCh:  make(chan delivery, opts.QueueDepth),
	}

	// add workers and track concurrency
	t.wg.Add(opts.Concurrency)
	for i := 0; i < opts.Concurrency; i++ {
		t.workers[i] = &transportWorker{
			ClientOptions: opts,
			id:            i + 1,
			client:        hc,
			wg:            t.wg,
			sendCh:        t.sendCh,
		}
		go t.workers[i].run()
	}

	return t
}

// Deliver places the request into the send queue. It blocks when the queue
// is full (or when QueueDepth is 0).
func (t *HTTPTransport) Deliver(req *DeliveryRequest, done Callback) {
	t.sendCh <- delivery{req: req, done: done}
}

// Shutdown is used to support graceful shutdown. It closes the send queue,
// so any further calls to Deliver will panic. Shutdown blocks until the
// queue is fully drained and all worker goroutines have stopped, or the
// context expires, whichever occurs first.
func (t *HTTPTransport) Shutdown(ctx context.Context) error {
	close(t.sendCh)
	t.debug("delivery queue closed; shipping previously enqueued deliveries")

	doneCh := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-doneCh:
		t.debug("delivery queue successfully drained")
		return nil
	}
}

func (w *transportWorker) run() {

	// loop until the fan-in sendCh closes
	for d := range w.sendCh {
		w.send(d)
	}

	w.debug("returning from worker goroutine")
	w.wg.Done()
}

// send performs the round-trip with retries and applies the completion
// contract to the outcome.
func (w *transportWorker) send(d delivery) {

	body := strings.Join(d.req.Bodies, "\n")

	b, err := backoff.New(
		backoff.WithInitialDelay(0),
		backoff.WithExponentialLimit(w.RetryInterval),
	)
	if err != nil {
		w.complete(d, 0, nil, err)
		return
	}

	var lastErr error
	for i := 0; i < w.MaxRetries; i++ {
		if i > 0 {
			b.Sleep()
		}

		status, respBody, err := w.roundTrip(d.req, body)
		if err != nil {
			lastErr = err
			w.debug("delivery attempt %d failed: %v\n", i+1, err)
			continue
		}

		w.complete(d, status, respBody, nil)
		return
	}

	w.reportError("delivery abandoned after %d attempts: %v\n", w.MaxRetries, lastErr)
	w.complete(d, 0, nil, lastErr)
}

func (w *transportWorker) roundTrip(r *DeliveryRequest, body string) (int, []byte, error) {

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()

	req.SetRequestURI(r.URI)
	req.Header.SetMethod(r.Method)
	for k, v := range r.Header {
		req.Header.Set(k, v)
	}
	req.SetBodyString(body)

	err := w.client.DoTimeout(req, resp, w.Timeout)

	// capture the response before releasing
	status := resp.StatusCode()
	respBody := append([]byte(nil), resp.Body()...)

	fasthttp.ReleaseRequest(req)
	fasthttp.ReleaseResponse(resp)

	if err != nil {
		return 0, nil, fmt.Errorf("failed to deliver log event: %w", err)
	}

	return status, respBody, nil
}

// complete applies the completion contract: a 200 with a non-empty body
// parses the acknowledgment, any other status surfaces a typed
// *DeliveryError, and transport failures pass through error-first.
func (w *transportWorker) complete(d delivery, status int, body []byte, err error) {

	if err != nil {
		d.invoke(err, nil)
		return
	}

	if status != fasthttp.StatusOK {
		rejection := &DeliveryError{Code: status, Status: fasthttp.StatusMessage(status)}
		w.reportError("delivery rejected: %v\n", rejection)
		d.invoke(rejection, nil)
		return
	}

	if len(body) == 0 {
		d.invoke(nil, &LogResult{Truncated: d.req.Truncated})
		return
	}

	ack, err := parseAck(body)
	if err != nil {
		d.invoke(err, nil)
		return
	}

	d.invoke(nil, &LogResult{Ack: ack, Truncated: d.req.Truncated})
}

func (d delivery) invoke(err error, res *LogResult) {
	if d.done != nil {
		d.done(err, res)
	}
}

// internal logging helpers:
func (t *HTTPTransport) debug(format string, args ...any) {
	if !t.opts.Verbose {
		return
	}
	InternalLogger().Printf(format, args...)
}

func (w *transportWorker) debug(format string, args ...any) {
	if !w.Verbose {
		return
	}
	args = append([]any{w.id}, args...)
	InternalLogger().Printf("worker %d: "+format, args...)
}

func (w *transportWorker) reportError(format string, args ...any) {
	args = append([]any{w.id}, args...)
	InternalLogger().Printf("worker %d: "+format, args...)
}
