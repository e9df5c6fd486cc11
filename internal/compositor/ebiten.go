package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/pixview/pixview/internal/input"
)

// EbitenDisplay is an Ebitengine-backed Display. The session loop commits
// layer changes from its own goroutine; Draw composes the committed state
// under a mutex on the render goroutine. It also implements input.Keyboard:
// keys pressed in the window are queued for the session loop to poll.
type EbitenDisplay struct {
	mu     sync.Mutex
	layers []*ebitenLayer // ascending z
	closed bool

	mode Mode
	keys chan input.Key
}

// NewEbitenDisplay selects the monitor identified by displayIndex and
// prepares a fullscreen display on it.
func NewEbitenDisplay(displayIndex int) (*EbitenDisplay, error) {
	monitors := ebiten.AppendMonitors(nil)
	if displayIndex < 0 || displayIndex >= len(monitors) {
		return nil, fmt.Errorf("display %d not found (%d available)", displayIndex, len(monitors))
	}
	mon := monitors[displayIndex]
	ebiten.SetMonitor(mon)
	w, h := mon.Size()
	return &EbitenDisplay{
		mode: Mode{Width: w, Height: h},
		keys: make(chan input.Key, 16),
	}, nil
}

func (d *EbitenDisplay) Mode() Mode { return d.mode }

func (d *EbitenDisplay) CreateLayer(buf *image.RGBA, pos image.Point, z int) (Layer, error) {
	l := &ebitenLayer{d: d, z: z, pos: pos, buf: buf, stale: true}
	return l, d.addLayer(l)
}

func (d *EbitenDisplay) FillLayer(c color.Color, z int) (Layer, error) {
	l := &ebitenLayer{d: d, z: z, fill: c}
	return l, d.addLayer(l)
}

func (d *EbitenDisplay) addLayer(l *ebitenLayer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.New("display closed")
	}
	d.layers = append(d.layers, l)
	sort.SliceStable(d.layers, func(i, j int) bool { return d.layers[i].z < d.layers[j].z })
	return nil
}

func (d *EbitenDisplay) Begin() Update {
	return &ebitenUpdate{d: d}
}

// Close terminates the game loop; Run returns once the current frame ends.
func (d *EbitenDisplay) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Run starts the Ebitengine game loop fullscreen. Must be called from the
// main goroutine.
func (d *EbitenDisplay) Run() error {
	ebiten.SetWindowTitle("pixview")
	ebiten.SetFullscreen(true)
	if err := ebiten.RunGame(d); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

// Poll returns one queued key press, if any. Implements input.Keyboard.
func (d *EbitenDisplay) Poll() (input.Key, bool) {
	select {
	case k := <-d.keys:
		return k, true
	default:
		return input.KeyNone, false
	}
}

// --- ebiten.Game interface ---

func (d *EbitenDisplay) Draw(screen *ebiten.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, l := range d.layers {
		l.draw(screen)
	}
}

func (d *EbitenDisplay) Layout(outsideWidth, outsideHeight int) (int, int) {
	return d.mode.Width, d.mode.Height
}

func (d *EbitenDisplay) Update() error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return ebiten.Termination
	}
	d.pollKeys()
	return nil
}

var keyBindings = []struct {
	key    ebiten.Key
	action input.Key
}{
	{ebiten.KeyEscape, input.KeyQuit},
	{ebiten.KeyQ, input.KeyQuit},
	{ebiten.KeyA, input.KeyLeft},
	{ebiten.KeyArrowLeft, input.KeyLeft},
	{ebiten.KeyD, input.KeyRight},
	{ebiten.KeyArrowRight, input.KeyRight},
	{ebiten.KeyW, input.KeyUp},
	{ebiten.KeyArrowUp, input.KeyUp},
	{ebiten.KeyS, input.KeyDown},
	{ebiten.KeyArrowDown, input.KeyDown},
	{ebiten.KeyEqual, input.KeyStepUp},
	{ebiten.KeyMinus, input.KeyStepDown},
}

func (d *EbitenDisplay) pollKeys() {
	for _, b := range keyBindings {
		if inpututil.IsKeyJustPressed(b.key) {
			select {
			case d.keys <- b.action:
			default:
				// queue full, drop
			}
		}
	}
}

// --- layers ---

// ebitenLayer binds one pixel buffer (or solid fill) to one screen placement.
// Both are created and destroyed together.
type ebitenLayer struct {
	d    *EbitenDisplay
	z    int
	pos  image.Point
	fill color.Color // non-nil for fill layers

	buf       *image.RGBA
	img       *ebiten.Image // created lazily on the render goroutine
	stale     bool          // buf changed since img was last written
	destroyed bool
}

func (l *ebitenLayer) Destroy() error {
	l.d.mu.Lock()
	defer l.d.mu.Unlock()
	if l.destroyed {
		return errors.New("layer already destroyed")
	}
	l.destroyed = true
	for i, cur := range l.d.layers {
		if cur == l {
			l.d.layers = append(l.d.layers[:i], l.d.layers[i+1:]...)
			break
		}
	}
	l.buf = nil
	l.img = nil
	return nil
}

// draw runs on the render goroutine with the display mutex held.
func (l *ebitenLayer) draw(screen *ebiten.Image) {
	if l.fill != nil {
		screen.Fill(l.fill)
		return
	}
	if l.buf == nil {
		return
	}
	w, h := l.buf.Bounds().Dx(), l.buf.Bounds().Dy()
	if l.img == nil || l.img.Bounds().Dx() != w || l.img.Bounds().Dy() != h {
		l.img = ebiten.NewImage(w, h)
		l.stale = true
	}
	if l.stale {
		l.img.WritePixels(l.buf.Pix)
		l.stale = false
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(l.pos.X), float64(l.pos.Y))
	screen.DrawImage(l.img, op)
}

// --- transactions ---

type layerOp struct {
	layer *ebitenLayer
	buf   *image.RGBA // content swap when non-nil
	pos   image.Point
	move  bool
}

type ebitenUpdate struct {
	d   *EbitenDisplay
	ops []layerOp
	err error
}

func (u *ebitenUpdate) Replace(l Layer, buf *image.RGBA) {
	el, ok := l.(*ebitenLayer)
	if !ok || el.d != u.d {
		u.err = errors.New("layer does not belong to this display")
		return
	}
	u.ops = append(u.ops, layerOp{layer: el, buf: buf})
}

func (u *ebitenUpdate) Move(l Layer, pos image.Point) {
	el, ok := l.(*ebitenLayer)
	if !ok || el.d != u.d {
		u.err = errors.New("layer does not belong to this display")
		return
	}
	u.ops = append(u.ops, layerOp{layer: el, pos: pos, move: true})
}

// Submit applies all staged changes under the display mutex; the next frame
// composes them together. The state swap is the synchronous acknowledgment.
func (u *ebitenUpdate) Submit() error {
	if u.err != nil {
		return u.err
	}
	u.d.mu.Lock()
	defer u.d.mu.Unlock()
	if u.d.closed {
		return errors.New("display closed")
	}
	for _, op := range u.ops {
		if op.layer.destroyed {
			return errors.New("layer destroyed")
		}
		if op.move {
			op.layer.pos = op.pos
		} else {
			op.layer.buf = op.buf
			op.layer.stale = true
		}
	}
	u.ops = nil
	return nil
}
