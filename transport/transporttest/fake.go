// Package transporttest provides an in-memory transport for tests.
package transporttest

import (
	"errors"
	"sync"

	"iracing-broadcast/protocol"
	"iracing-broadcast/transport"
)

// Delivery is one message accepted by the fake.
type Delivery struct {
	Window    transport.Window
	MessageID uint32
	Words     protocol.Words
}

// Fake records deliveries. Windows are opened and closed by tests; message
// ids are handed out per name, starting at 0xC000 like the real registry.
type Fake struct {
	mu         sync.Mutex
	ids        map[string]uint32
	windows    map[windowKey]transport.Window
	deliveries []Delivery

	nextID     uint32
	nextWindow transport.Window

	// Failure injection. Each is returned as-is while non-nil.
	RegisterErr error
	FindErr     error
	SendErr     error

	RegisterCalls int
	FindCalls     int
}

type windowKey struct {
	class, title string
}

func NewFake() *Fake {
	return &Fake{
		ids:        make(map[string]uint32),
		windows:    make(map[windowKey]transport.Window),
		nextID:     0xC000,
		nextWindow: 0x10000,
	}
}

// OpenWindow creates a window with class and title and returns its handle.
func (f *Fake) OpenWindow(class, title string) transport.Window {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextWindow += 0x10
	f.windows[windowKey{class, title}] = f.nextWindow
	return f.nextWindow
}

// CloseWindow removes the window with class and title.
func (f *Fake) CloseWindow(class, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.windows, windowKey{class, title})
}

func (f *Fake) RegisterMessage(name string) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RegisterCalls++
	if f.RegisterErr != nil {
		return 0, f.RegisterErr
	}
	if name == "" {
		return 0, errors.New("transporttest: empty message name")
	}
	id, ok := f.ids[name]
	if !ok {
		id = f.nextID
		f.nextID++
		f.ids[name] = id
	}
	return id, nil
}

func (f *Fake) FindWindow(class, title string) (transport.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FindCalls++
	if f.FindErr != nil {
		return 0, f.FindErr
	}
	for k, w := range f.windows {
		if k.class == class && (title == "" || k.title == title) {
			return w, nil
		}
	}
	return 0, transport.ErrWindowNotFound
}

func (f *Fake) Send(w transport.Window, messageID uint32, words protocol.Words) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return f.SendErr
	}
	if w != transport.Broadcast && !f.hasWindow(w) {
		return errors.New("transporttest: invalid window handle")
	}
	f.deliveries = append(f.deliveries, Delivery{Window: w, MessageID: messageID, Words: words})
	return nil
}

func (f *Fake) hasWindow(w transport.Window) bool {
	for _, v := range f.windows {
		if v == w {
			return true
		}
	}
	return false
}

// SetSendErr changes the injected send failure under the lock.
func (f *Fake) SetSendErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SendErr = err
}

// Deliveries returns a copy of every accepted message in order.
func (f *Fake) Deliveries() []Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Delivery, len(f.deliveries))
	copy(out, f.deliveries)
	return out
}

var _ transport.Transport = (*Fake)(nil)
