package ingress

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"

	"iracing-broadcast/broadcasterr"
	"iracing-broadcast/client"
	"iracing-broadcast/codec"
	"iracing-broadcast/message"
	"iracing-broadcast/middleware"
	"iracing-broadcast/protocol"
	"iracing-broadcast/relay"
	"iracing-broadcast/transport/transporttest"
)

const simTitle = "iRacing.com Simulator"

// newTestServer wires ingress to a running relay over the fake transport.
func newTestServer(t *testing.T, mws ...middleware.Middleware) (*httptest.Server, *transporttest.Fake, *prometheus.Registry) {
	t.Helper()
	return newTestServerWith(t, []Option{WithRequestTimeout(time.Second)}, mws...)
}

func newTestServerWith(t *testing.T, opts []Option, mws ...middleware.Middleware) (*httptest.Server, *transporttest.Fake, *prometheus.Registry) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	fake := transporttest.NewFake()
	fake.OpenWindow(protocol.DefaultWindowClass, simTitle)
	c, err := client.NewWithTransport(fake)
	if err != nil {
		t.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	mws = append([]middleware.Middleware{middleware.Metrics(middleware.WithRegistry(reg))}, mws...)
	rl := relay.New(c, logger, mws...)
	in := New(logger, append([]Option{WithGatherer(reg)}, opts...)...)

	errc := make(chan error, 1)
	go func() { errc <- rl.Serve(context.Background(), in) }()

	srv := httptest.NewServer(in.Handler())
	t.Cleanup(func() {
		srv.Close()
		rl.Shutdown(time.Second)
		<-errc
	})
	return srv, fake, reg
}

func post(t *testing.T, srv *httptest.Server, body string) (int, errorBody) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/commands", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var eb errorBody
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil {
			t.Fatalf("decode error body: %v", err)
		}
	}
	return resp.StatusCode, eb
}

func TestPostCommand(t *testing.T) {
	srv, fake, _ := newTestServer(t)

	status, _ := post(t, srv, `{"type":"pit","mode":"fuel","value":40}`)
	if status != http.StatusNoContent {
		t.Fatalf("expect 204, got %d", status)
	}

	got := fake.Deliveries()
	if len(got) != 1 {
		t.Fatalf("expect 1 delivery, got %d", len(got))
	}
	if got[0].Words.A != 0x00020009 || got[0].Words.B != 40 {
		t.Fatalf("unexpected words %v", got[0].Words)
	}
}

func TestPostCommandErrors(t *testing.T) {
	srv, fake, _ := newTestServer(t)

	status, eb := post(t, srv, `{"type":"chat","mode":"macro","macro":16}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expect 400 for invalid macro, got %d (%s)", status, eb.Error)
	}
	if status, _ := post(t, srv, `not json`); status != http.StatusBadRequest {
		t.Fatalf("expect 400 for malformed body, got %d", status)
	}
	if status, _ := post(t, srv, `{"type":"warp"}`); status != http.StatusBadRequest {
		t.Fatalf("expect 400 for unknown type, got %d", status)
	}

	fake.CloseWindow(protocol.DefaultWindowClass, simTitle)
	status, eb = post(t, srv, `{"type":"pit","mode":"tearoff"}`)
	if status != http.StatusNotFound {
		t.Fatalf("expect 404 without a window, got %d", status)
	}
	if eb.Kind != "target not found" {
		t.Fatalf("expect kind in body, got %+v", eb)
	}

	fake.OpenWindow(protocol.DefaultWindowClass, simTitle)
	fake.SetSendErr(errors.New("queue full"))
	if status, _ := post(t, srv, `{"type":"pit","mode":"tearoff"}`); status != http.StatusBadGateway {
		t.Fatalf("expect 502 on delivery failure, got %d", status)
	}
}

func TestPostCommandRateLimited(t *testing.T) {
	srv, _, _ := newTestServer(t, middleware.RateLimit(0.001, 1))

	if status, _ := post(t, srv, `{"type":"pit","mode":"tearoff"}`); status != http.StatusNoContent {
		t.Fatalf("expect first command accepted, got %d", status)
	}
	if status, _ := post(t, srv, `{"type":"pit","mode":"tearoff"}`); status != http.StatusTooManyRequests {
		t.Fatalf("expect 429, got %d", status)
	}
}

func TestPostCommandWithoutRelay(t *testing.T) {
	in := New(zaptest.NewLogger(t), WithRequestTimeout(20*time.Millisecond))
	srv := httptest.NewServer(in.Handler())
	defer srv.Close()

	if status, _ := post(t, srv, `{"type":"pit","mode":"tearoff"}`); status != http.StatusServiceUnavailable {
		t.Fatalf("expect 503 with no relay, got %d", status)
	}
}

// delay holds every send for d before passing it on.
func delay(d time.Duration) middleware.Middleware {
	return func(next middleware.SendFunc) middleware.SendFunc {
		return func(ctx context.Context, msg message.BroadcastMessage) error {
			time.Sleep(d)
			return next(ctx, msg)
		}
	}
}

func TestPostCommandSlowSendNotReportedAsFailure(t *testing.T) {
	srv, fake, _ := newTestServerWith(t, []Option{WithRequestTimeout(100 * time.Millisecond)}, delay(300*time.Millisecond))

	status, eb := post(t, srv, `{"type":"pit","mode":"tearoff"}`)
	if status != http.StatusAccepted {
		t.Fatalf("expect 202 for a command still sending, got %d (%s)", status, eb.Error)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(fake.Deliveries()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := len(fake.Deliveries()); n != 1 {
		t.Fatalf("expect the accepted command delivered once, got %d", n)
	}
}

func TestPostCommandWaitsForSlowSend(t *testing.T) {
	srv, fake, _ := newTestServerWith(t, []Option{WithRequestTimeout(2 * time.Second)}, delay(300*time.Millisecond))

	if status, eb := post(t, srv, `{"type":"pit","mode":"tearoff"}`); status != http.StatusNoContent {
		t.Fatalf("expect 204 once the slow send completes, got %d (%s)", status, eb.Error)
	}
	if n := len(fake.Deliveries()); n != 1 {
		t.Fatalf("expect 1 delivery, got %d", n)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusNoContent},
		{broadcasterr.Invalid("test", "x", "bad"), http.StatusBadRequest},
		{broadcasterr.NotFound("SimWinClass", "", nil), http.StatusNotFound},
		{middleware.ErrRateLimited, http.StatusTooManyRequests},
		{broadcasterr.Delivery(errors.New("x")), http.StatusBadGateway},
		{middleware.ErrTimeout, http.StatusGatewayTimeout},
		{broadcasterr.Registration("IRSDK_BROADCASTMSG", nil), http.StatusServiceUnavailable},
		{relay.ErrShuttingDown, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{relay.ErrOutcomeUnknown, http.StatusAccepted},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Fatalf("StatusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestTypesAndHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/types")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var types []codec.TypeInfo
	if err := json.NewDecoder(resp.Body).Decode(&types); err != nil {
		t.Fatal(err)
	}
	if len(types) != int(protocol.MaxMessageType)+1 {
		t.Fatalf("expect %d types, got %d", protocol.MaxMessageType+1, len(types))
	}
	if types[9].Name != "pit" || types[9].Tag != protocol.PitCommand {
		t.Fatalf("unexpected entry %+v", types[9])
	}

	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expect 200 from healthz, got %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	post(t, srv, `{"type":"pit","mode":"tearoff"}`)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `irbroadcast_messages_total{status="ok",type="PitCommand"} 1`) {
		t.Fatalf("expect send counter in exposition, got:\n%s", body)
	}
}

func TestWebSocket(t *testing.T) {
	srv, fake, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	frames := []string{
		`{"type":"camera-number","car_number":"64","group":1,"camera":2}`,
		`{"type":"replay-speed","speed":-16}`,
		`{"type":"ffb","mode":"max-force","value":1e39}`,
	}
	for _, f := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
			t.Fatal(err)
		}
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i := range frames {
		var reply wsReply
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatal(err)
		}
		if reply.Seq != uint64(i+1) {
			t.Fatalf("expect seq %d, got %d", i+1, reply.Seq)
		}
		wantOK := i < 2
		if reply.OK != wantOK {
			t.Fatalf("frame %d: expect ok=%v, got %+v", i, wantOK, reply)
		}
		if !wantOK && reply.Status != http.StatusBadRequest {
			t.Fatalf("frame %d: expect 400, got %d", i, reply.Status)
		}
	}

	if n := len(fake.Deliveries()); n != 2 {
		t.Fatalf("expect 2 deliveries, got %d", n)
	}
}
