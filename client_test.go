package loggly

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
)

// memoryTransport records delivery requests instead of shipping them, and
// completes each one the way the production transport would.
type memoryTransport struct {
	mu   sync.Mutex
	reqs []*DeliveryRequest
	ack  *IngestAck
	err  error
}

func newMemoryTransport() *memoryTransport {
	return &memoryTransport{ack: &IngestAck{Response: "ok"}}
}

func (m *memoryTransport) Deliver(req *DeliveryRequest, done Callback) {
	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	m.mu.Unlock()

	if m.err != nil {
		done(m.err, nil)
		return
	}
	done(nil, &LogResult{Ack: m.ack, Truncated: req.Truncated})
}

func (m *memoryTransport) Shutdown(ctx context.Context) error { return nil }

func (m *memoryTransport) requests() []*DeliveryRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*DeliveryRequest{}, m.reqs...)
}

func TestNew_requiredOptions(t *testing.T) {

	tests := []struct {
		name   string
		opts   *ClientOptions
		expect error
	}{
		{"missing subdomain is fatal", &ClientOptions{Token: "tok"}, ErrMissingSubdomain},
		{"missing token is fatal", &ClientOptions{Subdomain: "example"}, ErrMissingToken},
	}
	for i := 0; i < len(tests); i++ {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			if !errors.Is(err, tt.expect) {
				t.Errorf("failed: %s, expected: %v, got: %v", tt.name, tt.expect, err)
			}
		})
	}
}

func TestClient_LogPlainText(t *testing.T) {

	mt := newMemoryTransport()
	c, err := NewCustom(testOptions(), mt)
	if err != nil {
		t.Fatalf("failed to get NewCustom client: %v", err)
	}

	if got := c.Log(Text("hello"), nil, nil); got != c {
		t.Error("expected Log to return the client for chaining")
	}

	reqs := mt.requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 delivery, got: %d", len(reqs))
	}
	req := reqs[0]

	if req.URI != "https://logs-01.loggly.com/inputs/test-token" {
		t.Errorf("unexpected URI: %s", req.URI)
	}
	if !reflect.DeepEqual(req.Bodies, []string{"hello"}) {
		t.Errorf("expected verbatim plain body, got: %v", req.Bodies)
	}
	if got := req.Header["content-type"]; got != contentTypePlain {
		t.Errorf("expected %s, got: %s", contentTypePlain, got)
	}
	if _, ok := req.Header[headerTag]; ok {
		t.Error("expected no tag header without tags")
	}
}

func TestClient_LogStructuredWithTags(t *testing.T) {

	opts := testOptions()
	opts.JSON = true

	mt := newMemoryTransport()
	c, err := NewCustom(opts, mt)
	if err != nil {
		t.Fatalf("failed to get NewCustom client: %v", err)
	}

	c.Log(Structured(map[string]int{"a": 1}), []string{"Foo-1"}, nil)

	reqs := mt.requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 delivery, got: %d", len(reqs))
	}
	req := reqs[0]

	var got map[string]int
	if err := json.Unmarshal([]byte(req.Bodies[0]), &got); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]int{"a": 1}) {
		t.Errorf("expected structured body {a:1}, got: %q", req.Bodies[0])
	}
	if h := req.Header[headerTag]; h != "Foo-1" {
		t.Errorf("expected tag header Foo-1, got: %q", h)
	}
	if ct := req.Header["content-type"]; ct != contentTypeJSON {
		t.Errorf("expected %s, got: %s", contentTypeJSON, ct)
	}
}

func TestClient_tagMergePolicy(t *testing.T) {

	opts := testOptions()
	opts.Tags = []string{"base", "bad tag!"}

	mt := newMemoryTransport()
	c, err := NewCustom(opts, mt)
	if err != nil {
		t.Fatalf("failed to get NewCustom client: %v", err)
	}

	// call tags append after the resolved defaults
	c.Log(Text("x"), []string{"extra"}, nil)

	// no call tags falls back to the defaults alone
	c.Log(Text("y"), nil, nil)

	reqs := mt.requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 deliveries, got: %d", len(reqs))
	}
	if h := reqs[0].Header[headerTag]; h != "base,extra" {
		t.Errorf("expected merged tags base,extra, got: %q", h)
	}
	if h := reqs[1].Header[headerTag]; h != "base" {
		t.Errorf("expected default tags alone, got: %q", h)
	}
}

func TestClient_callbackCarriesTruncation(t *testing.T) {

	opts := testOptions()
	opts.MaxEventBytes = 4

	mt := newMemoryTransport()
	c, err := NewCustom(opts, mt)
	if err != nil {
		t.Fatalf("failed to get NewCustom client: %v", err)
	}

	var res *LogResult
	c.Log(Text("longer than four"), nil, func(err error, r *LogResult) {
		if err != nil {
			t.Errorf("unexpected callback error: %v", err)
		}
		res = r
	})

	if res == nil || !res.Truncated {
		t.Errorf("expected truncation surfaced in the result, got: %+v", res)
	}
}

func TestClient_bulkPreservesOrder(t *testing.T) {

	opts := testOptions()
	opts.Bulk = true
	opts.BufferSize = 2

	mt := newMemoryTransport()
	c, err := NewCustom(opts, mt)
	if err != nil {
		t.Fatalf("failed to get NewCustom client: %v", err)
	}
	defer c.Shutdown(context.Background())

	c.Log(Text("a"), nil, nil).Log(Text("b"), nil, nil)

	reqs := mt.requests()
	if len(reqs) != 1 {
		t.Fatalf("expected a single batched delivery, got: %d", len(reqs))
	}
	req := reqs[0]

	if req.URI != "https://logs-01.loggly.com/bulk/test-token" {
		t.Errorf("unexpected bulk URI: %s", req.URI)
	}
	if !reflect.DeepEqual(req.Bodies, []string{"a", "b"}) {
		t.Errorf("expected ordered batch [a b], got: %v", req.Bodies)
	}
}

func TestClient_bulkFlushesOnShutdown(t *testing.T) {

	opts := testOptions()
	opts.Bulk = true

	mt := newMemoryTransport()
	c, err := NewCustom(opts, mt)
	if err != nil {
		t.Fatalf("failed to get NewCustom client: %v", err)
	}

	c.Log(Text("pending"), nil, nil)

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	reqs := mt.requests()
	if len(reqs) != 1 || !reflect.DeepEqual(reqs[0].Bodies, []string{"pending"}) {
		t.Fatalf("expected pending batch shipped on shutdown, got: %+v", reqs)
	}
}

func TestClient_onLogSubscription(t *testing.T) {

	mt := newMemoryTransport()
	c, err := NewCustom(testOptions(), mt)
	if err != nil {
		t.Fatalf("failed to get NewCustom client: %v", err)
	}

	var notified []*LogResult
	c.OnLog(func(res *LogResult) {
		notified = append(notified, res)
	})

	var cbRes *LogResult
	c.Log(Text("hello"), nil, func(err error, r *LogResult) { cbRes = r })

	if len(notified) != 1 {
		t.Fatalf("expected 1 subscriber notification, got: %d", len(notified))
	}
	if notified[0].Ack == nil || notified[0].Ack.Response != "ok" {
		t.Errorf("expected parsed ack in notification, got: %+v", notified[0])
	}
	if cbRes == nil {
		t.Error("expected the per-call callback to fire as well")
	}
}

func TestClient_deliveryErrorReachesCallback(t *testing.T) {

	mt := newMemoryTransport()
	mt.err = &DeliveryError{Code: 500, Status: "Internal Server Error"}

	c, err := NewCustom(testOptions(), mt)
	if err != nil {
		t.Fatalf("failed to get NewCustom client: %v", err)
	}

	var notified int
	c.OnLog(func(*LogResult) { notified++ })

	var got error
	c.Log(Text("x"), nil, func(err error, _ *LogResult) { got = err })

	var de *DeliveryError
	if !errors.As(got, &de) || de.Code != 500 {
		t.Errorf("expected *DeliveryError with code 500, got: %v", got)
	}
	if notified != 0 {
		t.Error("expected no subscriber notification on failure")
	}
}
