package client

import (
	"errors"
	"sync"
	"syscall"
	"testing"

	"iracing-broadcast/broadcasterr"
	"iracing-broadcast/message"
	"iracing-broadcast/protocol"
	"iracing-broadcast/transport"
	"iracing-broadcast/transport/transporttest"
)

func newFakeClient(t *testing.T, opts ...Option) (*Client, *transporttest.Fake, transport.Window) {
	t.Helper()
	fake := transporttest.NewFake()
	hwnd := fake.OpenWindow(protocol.DefaultWindowClass, "iRacing.com Simulator")

	c, err := NewWithTransport(fake, opts...)
	if err != nil {
		t.Fatalf("NewWithTransport failed: %v", err)
	}
	return c, fake, hwnd
}

func TestNewRegistersOnce(t *testing.T) {
	c, fake, _ := newFakeClient(t)

	tearoff, _ := message.NewPitCommand(message.PitTearoff, 0)
	for i := 0; i < 3; i++ {
		if err := c.SendMessage(tearoff); err != nil {
			t.Fatal(err)
		}
	}

	if fake.RegisterCalls != 1 {
		t.Fatalf("expect 1 registration, got %d", fake.RegisterCalls)
	}
	if fake.FindCalls != 3 {
		t.Fatalf("expect a window lookup per send, got %d", fake.FindCalls)
	}
}

func TestNewIdempotentID(t *testing.T) {
	fake := transporttest.NewFake()

	c1, err := NewWithTransport(fake)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := NewWithTransport(fake)
	if err != nil {
		t.Fatal(err)
	}

	if c1.MessageID() != c2.MessageID() {
		t.Fatalf("message ids differ: %#x vs %#x", c1.MessageID(), c2.MessageID())
	}
}

func TestNewRegistrationFailed(t *testing.T) {
	fake := transporttest.NewFake()
	fake.RegisterErr = syscall.Errno(8) // ERROR_NOT_ENOUGH_MEMORY

	c, err := NewWithTransport(fake)
	if c != nil {
		t.Fatal("expect no client on registration failure")
	}
	if !errors.Is(err, broadcasterr.ErrRegistrationFailed) {
		t.Fatalf("expect RegistrationFailed, got %v", err)
	}
	var errno syscall.Errno
	if !errors.As(err, &errno) || errno != 8 {
		t.Fatalf("expect the OS error to be wrapped, got %v", err)
	}
}

func TestSendTearoffEndToEnd(t *testing.T) {
	c, fake, hwnd := newFakeClient(t)

	msg, err := message.NewPitCommand(message.PitTearoff, 0)
	if err != nil {
		t.Fatal(err)
	}

	w := message.Encode(msg)
	tag, mode, param, _ := w.Fields()
	if tag != protocol.PitCommand || message.PitCommandMode(mode) != message.PitTearoff || param != 0 || w.B != 0 {
		t.Fatalf("unexpected encoding %v", w)
	}

	if err := c.SendMessage(msg); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	got := fake.Deliveries()
	if len(got) != 1 {
		t.Fatalf("expect 1 delivery, got %d", len(got))
	}
	if got[0].Window != hwnd || got[0].MessageID != c.MessageID() || got[0].Words != w {
		t.Fatalf("unexpected delivery %+v", got[0])
	}

	// The simulator exits: the same client reports TargetNotFound.
	fake.CloseWindow(protocol.DefaultWindowClass, "iRacing.com Simulator")
	err = c.SendMessage(msg)
	if !errors.Is(err, broadcasterr.ErrTargetNotFound) {
		t.Fatalf("expect TargetNotFound, got %v", err)
	}
	if !broadcasterr.IsRetryable(err) {
		t.Fatal("TargetNotFound must be retryable")
	}

	// And recovers once it is back.
	fake.OpenWindow(protocol.DefaultWindowClass, "iRacing.com Simulator")
	if err := c.SendMessage(msg); err != nil {
		t.Fatalf("expect send to succeed after restart, got %v", err)
	}
}

func TestSendDeliveryFailed(t *testing.T) {
	c, fake, _ := newFakeClient(t)
	fake.SetSendErr(syscall.Errno(1400)) // ERROR_INVALID_WINDOW_HANDLE

	msg, _ := message.NewVideoCapture(message.VideoScreenShot)
	err := c.SendMessage(msg)
	if !errors.Is(err, broadcasterr.ErrDeliveryFailed) {
		t.Fatalf("expect DeliveryFailed, got %v", err)
	}

	fake.SetSendErr(nil)
	if err := c.SendMessage(msg); err != nil {
		t.Fatalf("client must stay usable after a failure, got %v", err)
	}
}

func TestWithWindow(t *testing.T) {
	fake := transporttest.NewFake()
	hwnd := fake.OpenWindow("ReplayWin", "Replay")
	fake.OpenWindow(protocol.DefaultWindowClass, "")

	c, err := NewWithTransport(fake, WithWindow("ReplayWin", "Replay"))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SendMessage(message.NewReloadAllTextures()); err != nil {
		t.Fatal(err)
	}
	if d := fake.Deliveries(); d[0].Window != hwnd {
		t.Fatalf("delivered to %#x, want %#x", d[0].Window, hwnd)
	}

	wrongTitle, _ := NewWithTransport(fake, WithWindow("ReplayWin", "Other"))
	err = wrongTitle.SendMessage(message.NewReloadAllTextures())
	if !errors.Is(err, broadcasterr.ErrTargetNotFound) {
		t.Fatalf("expect TargetNotFound, got %v", err)
	}
}

func TestWithBroadcast(t *testing.T) {
	c, fake, _ := newFakeClient(t, WithBroadcast())

	if err := c.SendMessage(message.NewReloadAllTextures()); err != nil {
		t.Fatal(err)
	}
	if d := fake.Deliveries(); d[0].Window != transport.Broadcast {
		t.Fatalf("delivered to %#x, want HWND_BROADCAST", d[0].Window)
	}

	// Broadcasting still requires the simulator to be running.
	fake.CloseWindow(protocol.DefaultWindowClass, "iRacing.com Simulator")
	err := c.SendMessage(message.NewReloadAllTextures())
	if !errors.Is(err, broadcasterr.ErrTargetNotFound) {
		t.Fatalf("expect TargetNotFound, got %v", err)
	}
}

func TestConcurrentSend(t *testing.T) {
	c, fake, _ := newFakeClient(t)

	const n = 64
	msgs := make([]message.BroadcastMessage, n)
	for i := range msgs {
		m, err := message.NewPitCommand(message.PitFuel, uint16(i+1))
		if err != nil {
			t.Fatal(err)
		}
		msgs[i] = m
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.SendMessage(msgs[i])
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
	}

	seen := make(map[uint16]bool)
	for _, d := range fake.Deliveries() {
		tag, mode, value, _ := d.Words.Fields()
		if tag != protocol.PitCommand || message.PitCommandMode(mode) != message.PitFuel {
			t.Fatalf("corrupted delivery %v", d.Words)
		}
		seen[value] = true
	}
	if len(seen) != n {
		t.Fatalf("expect %d distinct payloads, got %d", n, len(seen))
	}
}

func TestSendNilMessage(t *testing.T) {
	c, fake, _ := newFakeClient(t)

	err := c.SendMessage(nil)
	if !errors.Is(err, broadcasterr.ErrInvalidParameter) {
		t.Fatalf("expect InvalidParameter, got %v", err)
	}
	if fake.FindCalls != 0 || len(fake.Deliveries()) != 0 {
		t.Fatalf("nil message must not reach the transport")
	}
}

func TestSendFindWindowFailure(t *testing.T) {
	c, fake, _ := newFakeClient(t)
	lookupErr := errors.New("string with NUL passed to StringToUTF16")
	fake.FindErr = lookupErr

	msg, _ := message.NewVideoCapture(message.VideoScreenShot)
	err := c.SendMessage(msg)
	if !errors.Is(err, broadcasterr.ErrInvalidParameter) {
		t.Fatalf("expect InvalidParameter, got %v", err)
	}
	if broadcasterr.IsRetryable(err) {
		t.Fatalf("lookup failure must not be retryable: %v", err)
	}
	if !errors.Is(err, lookupErr) {
		t.Fatalf("expect underlying error kept, got %v", err)
	}
	if len(fake.Deliveries()) != 0 {
		t.Fatalf("expect no delivery")
	}
}

func TestNewRejectsNULInWindow(t *testing.T) {
	cases := []struct{ class, title string }{
		{"Sim\x00WinClass", ""},
		{protocol.DefaultWindowClass, "iRacing\x00"},
	}
	for _, tc := range cases {
		fake := transporttest.NewFake()
		_, err := NewWithTransport(fake, WithWindow(tc.class, tc.title))
		if !errors.Is(err, broadcasterr.ErrInvalidParameter) {
			t.Fatalf("WithWindow(%q, %q): expect InvalidParameter, got %v", tc.class, tc.title, err)
		}
		if fake.RegisterCalls != 0 {
			t.Fatalf("expect no registration for invalid window")
		}
	}
}
