//go:build !windows

package main

// RegisterToggleHotkey is only supported on Windows.
func (a *App) RegisterToggleHotkey() {
	a.logger.Debug("Global hotkey not supported on this platform")
}

// ToggleWindow is a no-op without a global hotkey.
func (a *App) ToggleWindow() {}
