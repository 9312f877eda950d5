//go:build windows

package transport

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"iracing-broadcast/protocol"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procRegisterWindowMessageW = user32.NewProc("RegisterWindowMessageW")
	procFindWindowW            = user32.NewProc("FindWindowW")
	procSendNotifyMessageW     = user32.NewProc("SendNotifyMessageW")
)

// User32 is the Windows transport backed by user32.dll.
type User32 struct{}

// NewUser32 returns the Windows transport. The DLL is loaded on first use.
func NewUser32() *User32 {
	return &User32{}
}

func (User32) RegisterMessage(name string) (uint32, error) {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, err
	}
	if err := procRegisterWindowMessageW.Find(); err != nil {
		return 0, err
	}
	id, _, callErr := procRegisterWindowMessageW.Call(uintptr(unsafe.Pointer(p)))
	if id == 0 {
		return 0, lastError(callErr)
	}
	return uint32(id), nil
}

func (User32) FindWindow(class, title string) (Window, error) {
	classPtr, err := windows.UTF16PtrFromString(class)
	if err != nil {
		return 0, err
	}
	var titlePtr *uint16
	if title != "" {
		if titlePtr, err = windows.UTF16PtrFromString(title); err != nil {
			return 0, err
		}
	}
	if err := procFindWindowW.Find(); err != nil {
		return 0, err
	}
	hwnd, _, callErr := procFindWindowW.Call(
		uintptr(unsafe.Pointer(classPtr)),
		uintptr(unsafe.Pointer(titlePtr)),
	)
	if hwnd == 0 {
		if errno, ok := callErr.(windows.Errno); ok && errno != 0 {
			return 0, fmt.Errorf("%w: %v", ErrWindowNotFound, errno)
		}
		return 0, ErrWindowNotFound
	}
	return Window(hwnd), nil
}

func (User32) Send(w Window, messageID uint32, words protocol.Words) error {
	if err := procSendNotifyMessageW.Find(); err != nil {
		return err
	}
	// LPARAM is signed: word B is sign-extended the way the C SDK passes an int.
	lparam := uintptr(int64(int32(words.B)))
	ok, _, callErr := procSendNotifyMessageW.Call(
		uintptr(w),
		uintptr(messageID),
		uintptr(words.A),
		lparam,
	)
	if ok == 0 {
		return lastError(callErr)
	}
	return nil
}

// lastError turns the error captured by LazyProc.Call into a non-nil error.
func lastError(err error) error {
	if errno, ok := err.(windows.Errno); ok && errno != 0 {
		return errno
	}
	return fmt.Errorf("user32 call failed without an error code")
}
