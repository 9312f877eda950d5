package relay

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"iracing-broadcast/broadcasterr"
	"iracing-broadcast/client"
	"iracing-broadcast/message"
	"iracing-broadcast/middleware"
	"iracing-broadcast/protocol"
	"iracing-broadcast/transport/transporttest"
)

func newRelay(t *testing.T, mws ...middleware.Middleware) (*Relay, *transporttest.Fake) {
	t.Helper()
	fake := transporttest.NewFake()
	fake.OpenWindow(protocol.DefaultWindowClass, "iRacing.com Simulator")
	c, err := client.NewWithTransport(fake)
	if err != nil {
		t.Fatalf("NewWithTransport: %v", err)
	}
	return New(c, zaptest.NewLogger(t), mws...), fake
}

func fuel(t *testing.T, liters uint16) message.BroadcastMessage {
	t.Helper()
	msg, err := message.NewPitCommand(message.PitFuel, liters)
	if err != nil {
		t.Fatal(err)
	}
	return msg
}

func serve(t *testing.T, r *Relay, sources ...Source) <-chan error {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- r.Serve(context.Background(), sources...) }()
	return errc
}

func TestServeDeliversInOrder(t *testing.T) {
	r, fake := newRelay(t)
	ch := make(chan Command)
	errc := serve(t, r, ChanSource(ch))

	for i := uint16(1); i <= 10; i++ {
		if err := Submit(context.Background(), ch, Command{ID: "c", Origin: "test", Message: fuel(t, i)}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	got := fake.Deliveries()
	if len(got) != 10 {
		t.Fatalf("expect 10 deliveries, got %d", len(got))
	}
	for i, d := range got {
		if d.Words.B != uint32(i+1) {
			t.Fatalf("delivery %d: expect fuel %d, got %d", i, i+1, d.Words.B)
		}
	}

	if err := r.Shutdown(time.Second); err != nil {
		t.Fatal(err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("Serve after Shutdown: %v", err)
	}
	if sent, failed := r.Stats(); sent != 10 || failed != 0 {
		t.Fatalf("expect 10/0, got %d/%d", sent, failed)
	}
}

func TestServeReportsFailure(t *testing.T) {
	r, fake := newRelay(t)
	fake.CloseWindow(protocol.DefaultWindowClass, "iRacing.com Simulator")

	ch := make(chan Command)
	serve(t, r, ChanSource(ch))
	defer r.Shutdown(time.Second)

	err := Submit(context.Background(), ch, Command{Message: fuel(t, 5)})
	if !errors.Is(err, broadcasterr.ErrTargetNotFound) {
		t.Fatalf("expect TargetNotFound, got %v", err)
	}
	if _, failed := r.Stats(); failed != 1 {
		t.Fatalf("expect 1 failure, got %d", failed)
	}
}

func TestServeMultipleSources(t *testing.T) {
	r, fake := newRelay(t)
	a, b := make(chan Command), make(chan Command)
	serve(t, r, ChanSource(a), ChanSource(b))
	defer r.Shutdown(time.Second)

	var wg sync.WaitGroup
	for _, ch := range []chan Command{a, b} {
		wg.Add(1)
		go func(ch chan Command) {
			defer wg.Done()
			for i := uint16(0); i < 20; i++ {
				if err := Submit(context.Background(), ch, Command{Message: fuel(t, i)}); err != nil {
					t.Errorf("submit: %v", err)
					return
				}
			}
		}(ch)
	}
	wg.Wait()

	if n := len(fake.Deliveries()); n != 40 {
		t.Fatalf("expect 40 deliveries, got %d", n)
	}
}

func TestServeEndsWhenSourcesClose(t *testing.T) {
	r, fake := newRelay(t)
	ch := make(chan Command, 3)
	for i := uint16(1); i <= 3; i++ {
		ch <- Command{Message: fuel(t, i)}
	}
	close(ch)

	if err := r.Serve(context.Background(), ChanSource(ch)); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if n := len(fake.Deliveries()); n != 3 {
		t.Fatalf("expect 3 deliveries, got %d", n)
	}
}

func TestMiddlewareApplied(t *testing.T) {
	r, fake := newRelay(t, middleware.RateLimit(0.001, 1))
	ch := make(chan Command)
	serve(t, r, ChanSource(ch))
	defer r.Shutdown(time.Second)

	if err := Submit(context.Background(), ch, Command{Message: fuel(t, 1)}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := Submit(context.Background(), ch, Command{Message: fuel(t, 2)}); !errors.Is(err, middleware.ErrRateLimited) {
		t.Fatalf("expect ErrRateLimited, got %v", err)
	}
	if n := len(fake.Deliveries()); n != 1 {
		t.Fatalf("expect 1 delivery, got %d", n)
	}
}

func TestDispatchAfterShutdown(t *testing.T) {
	r, fake := newRelay(t)
	if err := r.Shutdown(time.Second); err != nil {
		t.Fatal(err)
	}

	var got error
	err := r.Dispatch(context.Background(), Command{
		Message: fuel(t, 1),
		Done:    func(err error) { got = err },
	})
	if !errors.Is(err, ErrShuttingDown) || !errors.Is(got, ErrShuttingDown) {
		t.Fatalf("expect ErrShuttingDown, got %v / %v", err, got)
	}
	if len(fake.Deliveries()) != 0 {
		t.Fatal("expect nothing delivered after shutdown")
	}
	if err := r.Serve(context.Background(), ChanSource(make(chan Command))); !errors.Is(err, ErrShuttingDown) {
		t.Fatalf("expect Serve to refuse after shutdown, got %v", err)
	}
}

func TestShutdownWaitsForInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	block := func(next middleware.SendFunc) middleware.SendFunc {
		return func(ctx context.Context, msg message.BroadcastMessage) error {
			close(started)
			<-release
			return next(ctx, msg)
		}
	}
	r, fake := newRelay(t, block)

	done := make(chan error, 1)
	go func() { done <- r.Dispatch(context.Background(), Command{Message: fuel(t, 1)}) }()
	<-started

	if err := r.Shutdown(20 * time.Millisecond); err == nil {
		t.Fatal("expect timeout while a send is blocked")
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("in-flight send: %v", err)
	}
	if err := r.Shutdown(time.Second); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
	if n := len(fake.Deliveries()); n != 1 {
		t.Fatalf("expect in-flight send delivered, got %d", n)
	}
}

func TestServeNoSources(t *testing.T) {
	r, _ := newRelay(t)
	if err := r.Serve(context.Background()); err == nil {
		t.Fatal("expect error without sources")
	}
}

func TestSubmitContextCancelled(t *testing.T) {
	ch := make(chan Command) // nobody reads
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := Submit(ctx, ch, Command{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expect DeadlineExceeded, got %v", err)
	}
}

func TestSubmitOutcomeUnknownAfterAccept(t *testing.T) {
	release := make(chan struct{})
	var sends int32
	slow := func(next middleware.SendFunc) middleware.SendFunc {
		return func(ctx context.Context, msg message.BroadcastMessage) error {
			<-release
			atomic.AddInt32(&sends, 1)
			return next(ctx, msg)
		}
	}
	r, fake := newRelay(t, slow)
	ch := make(chan Command)
	serve(t, r, ChanSource(ch))
	defer r.Shutdown(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := Submit(ctx, ch, Command{Message: fuel(t, 1)})
	if !errors.Is(err, ErrOutcomeUnknown) {
		t.Fatalf("expect ErrOutcomeUnknown once the relay took the command, got %v", err)
	}

	close(release)
	deadline := time.Now().Add(time.Second)
	for len(fake.Deliveries()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := len(fake.Deliveries()); n != 1 || atomic.LoadInt32(&sends) != 1 {
		t.Fatalf("expect the accepted command sent once, got %d deliveries", n)
	}
}
