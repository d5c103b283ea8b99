// Package tray provides a system tray menu for the pose overlay service.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(visible bool)
	onSwitch func()
	onViewer func()
	onQuit   func()
	visible  bool
	facing   string
	mu       sync.RWMutex

	menuToggle *systray.MenuItem
	menuFacing *systray.MenuItem
}

// New creates a new Tray with the overlay shown.
func New() *Tray {
	return &Tray{
		visible: true,
	}
}

// OnToggle sets the callback invoked when the overlay is shown or hidden.
func (t *Tray) OnToggle(fn func(visible bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSwitchCamera sets the callback invoked when the camera switch is clicked.
func (t *Tray) OnSwitchCamera(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSwitch = fn
}

// OnOpenViewer sets the callback invoked when the viewer item is clicked.
func (t *Tray) OnOpenViewer(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onViewer = fn
}

// OnQuit sets the callback invoked when quit is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Bodyway")
	systray.SetTooltip("Bodyway Pose Overlay")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.visible), "Show or hide the skeleton overlay")
	systray.AddSeparator()
	t.menuFacing = systray.AddMenuItem(facingTitle(t.facing), "Active camera")
	t.menuFacing.Disable()
	t.mu.Unlock()

	menuSwitch := systray.AddMenuItem("Switch Camera", "Toggle between front and back camera")
	systray.AddSeparator()

	menuViewer := systray.AddMenuItem("Open Viewer...", "Open the overlay viewer in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Bodyway")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSwitch.ClickedCh:
				t.call(func() func() { return t.onSwitch })
			case <-menuViewer.ClickedCh:
				t.call(func() func() { return t.onViewer })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle flips the overlay visibility and notifies the callback.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.visible = !t.visible
	visible := t.visible
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(visible))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(visible)
	}
}

// call runs the callback returned by get, read under the lock and invoked outside it.
func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// SetFacing updates the active camera shown in the menu.
func (t *Tray) SetFacing(facing string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.facing = facing
	if t.menuFacing != nil {
		t.menuFacing.SetTitle(facingTitle(facing))
	}
}

// SetVisible updates the overlay state without invoking the toggle callback.
func (t *Tray) SetVisible(visible bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.visible = visible
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(visible))
	}
}

// IsVisible returns whether the overlay is shown.
func (t *Tray) IsVisible() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.visible
}

func toggleTitle(visible bool) string {
	if visible {
		return "● Overlay On"
	}
	return "○ Overlay Off"
}

func facingTitle(facing string) string {
	if facing == "" {
		return "Camera: none"
	}
	return "Camera: " + facing
}
