package main

import (
	"syscall"
	"unsafe"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"
)

var (
	user32             = syscall.NewLazyDLL("user32.dll")
	procRegisterHotKey = user32.NewProc("RegisterHotKey")
	procGetMessage     = user32.NewProc("GetMessageW")
)

const (
	modControl  = 0x0002
	modNoRepeat = 0x4000
	vkM         = 0x4D
	wmHotkey    = 0x0312

	toggleHotkeyID = 1
)

type msg struct {
	HWND    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// RegisterToggleHotkey binds Ctrl+M to show or hide the overlay.
func (a *App) RegisterToggleHotkey() {
	go func() {
		// RegisterHotKey binds to the calling thread's message queue, so
		// registration and the message loop share this goroutine.
		ret, _, err := procRegisterHotKey.Call(
			0,
			toggleHotkeyID,
			uintptr(modControl|modNoRepeat),
			uintptr(vkM),
		)
		if ret == 0 {
			a.logger.Warn("Failed to register hotkey", zap.Error(err))
			return
		}
		a.logger.Info("Registered Ctrl+M to toggle overlay")

		var m msg
		for {
			ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if ret == 0 {
				return
			}
			if m.Message == wmHotkey {
				a.ToggleWindow()
			}
		}
	}()
}

// ToggleWindow flips overlay visibility.
func (a *App) ToggleWindow() {
	if a.ctx == nil {
		return
	}
	a.mu.Lock()
	a.windowVisible = !a.windowVisible
	visible := a.windowVisible
	a.mu.Unlock()

	if visible {
		go wailsRuntime.WindowShow(a.ctx)
	} else {
		go wailsRuntime.WindowHide(a.ctx)
	}
}
