// Package session runs the interactive viewer loop. The Controller is the
// single authority over the on-screen layer: it reconciles timer, signal,
// file-change and keyboard events into at most one compositor transaction
// per tick.
package session

import (
	"fmt"
	"image"
	"log"
	"time"

	"github.com/pixview/pixview/internal/compositor"
	"github.com/pixview/pixview/internal/imagesource"
	"github.com/pixview/pixview/internal/input"
	"github.com/pixview/pixview/internal/signals"
	"github.com/pixview/pixview/internal/watch"
)

const (
	tickPeriod       = 10 * time.Millisecond
	tickMs           = uint32(tickPeriod / time.Millisecond)
	fileCheckMs      = 1000
	reloadRetryPause = 200 * time.Millisecond
)

// stepLadder holds the movement granularities; +/- moves exactly one rung
// and saturates at the ends.
var stepLadder = []int{1, 5, 10, 20}

// Options configure a Controller.
type Options struct {
	Source   imagesource.Source
	Watcher  watch.ModTimer
	Keyboard input.Keyboard // nil disables interactivity
	Latch    *signals.Latch

	Monitor   bool // poll the source path for modification
	TimeoutMs uint32
	Position  image.Point
	Z         int
}

// Controller owns the layer for its lifetime. All state below is mutated
// only inside the loop; the latch is the only value touched from outside.
type Controller struct {
	disp     compositor.Display
	layer    compositor.Layer
	source   imagesource.Source
	watcher  watch.ModTimer
	keyboard input.Keyboard
	latch    *signals.Latch

	running       bool
	reloadPending bool
	position      image.Point
	stepIdx       int
	elapsedMs     uint32
	lastCheckMs   uint32
	lastModTime   time.Time
	timeoutMs     uint32
	monitor       bool

	pendingBuf    *image.RGBA // staged content swap, nil when clean
	positionDirty bool

	sleep func(time.Duration)
}

// New creates the on-screen layer for buf and prepares the loop. The layer
// is owned by the controller and destroyed when Run returns.
func New(disp compositor.Display, buf *image.RGBA, opts Options) (*Controller, error) {
	layer, err := disp.CreateLayer(buf, opts.Position, opts.Z)
	if err != nil {
		return nil, fmt.Errorf("create layer: %w", err)
	}

	c := &Controller{
		disp:     disp,
		layer:    layer,
		source:   opts.Source,
		watcher:  opts.Watcher,
		keyboard: opts.Keyboard,
		latch:    opts.Latch,

		running:   true,
		position:  opts.Position,
		timeoutMs: opts.TimeoutMs,
		monitor:   opts.Monitor && opts.Source.Reloadable(),

		sleep: time.Sleep,
	}

	if c.monitor {
		// A query failure here just means the first change check compares
		// against the zero time.
		if mod, err := c.watcher.ModTime(c.source.Path()); err == nil {
			c.lastModTime = mod
		}
	}
	return c, nil
}

// Run drives the loop at the fixed tick period until a stop request, quit
// key or timeout. The only non-nil return is a failed transaction submit,
// which is fatal because the mirrored layer state would diverge from the
// compositor.
func (c *Controller) Run() error {
	defer c.layer.Destroy()
	for c.running {
		if err := c.Tick(tickMs); err != nil {
			return err
		}
		c.sleep(tickPeriod)
	}
	return nil
}

// Tick processes one loop iteration: timeout check, file-change check,
// signal drain, reload attempt, one keyboard event, commit-if-dirty.
func (c *Controller) Tick(elapsedMs uint32) error {
	c.elapsedMs += elapsedMs
	if c.timeoutMs != 0 && c.elapsedMs >= c.timeoutMs {
		// Timeout takes precedence over everything else in this tick.
		c.running = false
		return nil
	}

	c.checkFileChange()

	c.drainSignals()
	if !c.running {
		// Stop is honored before any reload attempt.
		return nil
	}

	c.applyReload()
	c.applyInput()
	return c.commitIfDirty()
}

// checkFileChange polls the source's modification time at a coarser period
// than the tick and latches a reload when it differs from the last one seen.
func (c *Controller) checkFileChange() {
	if !c.monitor || c.elapsedMs-c.lastCheckMs < fileCheckMs {
		return
	}
	c.lastCheckMs = c.elapsedMs
	mod, err := c.watcher.ModTime(c.source.Path())
	if err != nil {
		// An unreadable path is "no change", not a reload trigger.
		return
	}
	if !mod.Equal(c.lastModTime) {
		c.reloadPending = true
	}
	// Recorded even if the decode below fails: the pending reload keeps
	// retrying on its own, so a stale timestamp must not re-trigger it.
	c.lastModTime = mod
}

func (c *Controller) drainSignals() {
	stop, reload := c.latch.TakeAndClear()
	if stop {
		c.running = false
	}
	if reload && c.source.Reloadable() {
		c.reloadPending = true
	}
}

// applyReload re-reads the image from its path. Failure keeps the reload
// pending and pauses briefly; the session never aborts over a transiently
// unreadable or malformed file.
func (c *Controller) applyReload() {
	if !c.reloadPending || !c.source.Reloadable() {
		return
	}
	buf, err := c.source.Load()
	if err != nil {
		log.Printf("reload: %v", err)
		c.sleep(reloadRetryPause)
		return
	}
	c.reloadPending = false
	c.pendingBuf = buf
}

// applyInput consumes at most one key per tick.
func (c *Controller) applyInput() {
	if c.keyboard == nil {
		return
	}
	key, ok := c.keyboard.Poll()
	if !ok {
		return
	}
	step := stepLadder[c.stepIdx]
	switch key {
	case input.KeyQuit:
		c.running = false
	case input.KeyLeft:
		c.position.X -= step
		c.positionDirty = true
	case input.KeyRight:
		c.position.X += step
		c.positionDirty = true
	case input.KeyUp:
		c.position.Y -= step
		c.positionDirty = true
	case input.KeyDown:
		c.position.Y += step
		c.positionDirty = true
	case input.KeyStepUp:
		if c.stepIdx < len(stepLadder)-1 {
			c.stepIdx++
		}
	case input.KeyStepDown:
		if c.stepIdx > 0 {
			c.stepIdx--
		}
	}
}

// commitIfDirty submits exactly one transaction covering every change staged
// this tick, or none at all.
func (c *Controller) commitIfDirty() error {
	if c.pendingBuf == nil && !c.positionDirty {
		return nil
	}
	u := c.disp.Begin()
	if c.pendingBuf != nil {
		u.Replace(c.layer, c.pendingBuf)
	}
	if c.positionDirty {
		u.Move(c.layer, c.position)
	}
	if err := u.Submit(); err != nil {
		return fmt.Errorf("submit update: %w", err)
	}
	c.pendingBuf = nil
	c.positionDirty = false
	return nil
}
