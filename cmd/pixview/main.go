package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"os"

	"github.com/pixview/pixview/internal/compositor"
	"github.com/pixview/pixview/internal/config"
	"github.com/pixview/pixview/internal/control"
	"github.com/pixview/pixview/internal/imagesource"
	"github.com/pixview/pixview/internal/input"
	"github.com/pixview/pixview/internal/session"
	"github.com/pixview/pixview/internal/signals"
	"github.com/pixview/pixview/internal/watch"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}

	// Image source.
	var src imagesource.Source
	if cfg.ImagePath == "-" {
		src = imagesource.NewStream(os.Stdin)
	} else {
		src = imagesource.NewFile(cfg.ImagePath)
	}
	buf, err := src.Load()
	if err != nil {
		log.Fatalf("unable to load %s: %v", cfg.ImagePath, err)
	}

	// Compositor.
	disp, err := compositor.NewEbitenDisplay(cfg.Display)
	if err != nil {
		log.Fatalf("display init: %v", err)
	}

	mode := disp.Mode()
	pos := image.Pt(cfg.XOffset, cfg.YOffset)
	if !cfg.XOffsetSet {
		pos.X = (mode.Width - buf.Bounds().Dx()) / 2
	}
	if !cfg.YOffsetSet {
		pos.Y = (mode.Height - buf.Bounds().Dy()) / 2
	}

	if cfg.Background != 0 {
		bg, err := disp.FillLayer(compositor.ColorFromRGBA16(cfg.Background), 0)
		if err != nil {
			log.Fatalf("background layer: %v", err)
		}
		defer bg.Destroy()
	}

	// Signal latch: SIGHUP reloads, SIGINT/SIGTERM stop.
	latch := &signals.Latch{}
	signals.Notify(latch)

	// Optional remote control endpoint.
	if cfg.ControlAddr != "" {
		srv := control.NewServer(latch, src.Reloadable())
		if err := srv.Listen(cfg.ControlAddr); err != nil {
			log.Fatalf("%v", err)
		}
		defer srv.Close()
		log.Printf("control endpoint on ws://%s/control", srv.Addr())
	}

	var kb input.Keyboard
	if cfg.Interactive {
		kb = disp
	}

	ctrl, err := session.New(disp, buf, session.Options{
		Source:    src,
		Watcher:   watch.Stat{},
		Keyboard:  kb,
		Latch:     latch,
		Monitor:   cfg.Monitor,
		TimeoutMs: cfg.TimeoutMs,
		Position:  pos,
		Z:         cfg.Layer,
	})
	if err != nil {
		log.Fatalf("session init: %v", err)
	}

	// The session loop runs beside the render loop; Ebitengine must own the
	// main goroutine.
	errCh := make(chan error, 1)
	go func() {
		err := ctrl.Run()
		disp.Close()
		errCh <- err
	}()

	if err := disp.Run(); err != nil {
		log.Fatalf("display: %v", err)
	}
	// The window may have been closed directly; make sure the loop winds down.
	latch.RequestStop()
	if err := <-errCh; err != nil {
		log.Fatalf("session: %v", err)
	}
}
