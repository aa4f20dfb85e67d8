// ember - Terminal software renderer
// Views GLB models inside a surface-cached room, rasterized on the CPU and
// drawn with half-block characters.
//
// Controls:
//
//	Mouse drag  - Orbit camera
//	Scroll      - Zoom in/out
//	W/S/A/D     - Orbit pitch/yaw
//	Space       - Random spin
//	R           - Reset view
//	T           - Toggle texture on/off
//	X           - Toggle wireframe
//	B           - Toggle room
//	F           - Toggle bilinear filtering
//	C           - Clear the surface cache
//	L           - Move the lamp to the camera
//	?           - Toggle HUD overlay
//	+/-         - Adjust zoom
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"go.uber.org/zap"

	"github.com/taigrr/ember/internal/config"
	"github.com/taigrr/ember/internal/logger"
	"github.com/taigrr/ember/pkg/math3d"
	"github.com/taigrr/ember/pkg/models"
	"github.com/taigrr/ember/pkg/render"
	"github.com/taigrr/ember/pkg/seam"
	"github.com/taigrr/ember/pkg/surfcache"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "ember - Terminal software renderer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: ember [options] <model.glb|model.gltf>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Mouse drag  - Orbit camera\n")
		fmt.Fprintf(os.Stderr, "  Scroll, +/- - Zoom in/out\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Pitch and yaw\n")
		fmt.Fprintf(os.Stderr, "  Space       - Random spin\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  T/X/B/F     - Texture, wireframe, room, filter\n")
		fmt.Fprintf(os.Stderr, "  C           - Clear surface cache\n")
		fmt.Fprintf(os.Stderr, "  L           - Move lamp to camera\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD overlay\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	config.ParseFlags()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The terminal owns the screen, so logs only ever go to a file.
	if cfg.Logging.LogFile != "" {
		fileCfg := logger.DefaultFileConfig(cfg.Logging.LogFile)
		if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, false); err != nil {
			fmt.Fprintf(os.Stderr, "Error: init logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	if err := run(cfg, flag.Arg(0)); err != nil {
		logger.Error("viewer exited", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// ViewState holds all view-related settings (UI state, not library code)
type ViewState struct {
	TextureEnabled bool
	Wireframe      bool
	Room           bool
	ShowHUD        bool
	Filter         render.FilterMode
	LightDir       math3d.Vec3
}

// Scene is everything drawn each frame.
type Scene struct {
	Mesh      *models.Mesh
	Texture   *render.Texture
	Walls     *render.Texture
	Room      []*render.WorldFace
	Lamp      math3d.Vec3
	Transform math3d.Mat4
}

// loadScene loads the model and its texture, corrects texture seams, and
// builds the room.
func loadScene(cfg *config.Config, modelPath string) (*Scene, error) {
	mesh, err := models.LoadGLB(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	mesh.FitTo(2)

	var texture *render.Texture
	if cfg.Render.Texture != "" {
		texture, err = render.LoadTexture(cfg.Render.Texture)
		if err != nil {
			logger.Warn("could not load texture", zap.String("path", cfg.Render.Texture), zap.Error(err))
		}
	}
	if texture == nil {
		if img := mesh.BaseMap(); img != nil {
			texture = render.TextureFromImage(img)
		}
	}

	if texture != nil && cfg.Seam.Enabled {
		pix := texture.RGBA()
		res, err := seam.CorrectTexture(seam.FromMesh(mesh), texture.Width, texture.Height, pix)
		if err != nil {
			return nil, fmt.Errorf("correct texture seams: %w", err)
		}
		texture.SetRGBA(pix, texture.Width*4)
		logger.Info("texture seams corrected",
			zap.Int("dilated", res.Dilated),
			zap.Int("covered", res.Covered),
		)
	}

	// Generate fallback texture if none
	if texture == nil {
		texture = render.NewCheckerTexture(64, 64, 8, render.RGB(200, 200, 200), render.RGB(100, 100, 100))
	}

	lamp := math3d.V3(0, roomHalfSize*0.8, 0)
	walls := render.NewBrickTexture(32, 32, 16, 8, render.RGB(150, 70, 50), render.RGB(180, 175, 160))

	logger.Info("scene loaded",
		zap.String("model", filepath.Base(modelPath)),
		zap.Int("vertices", mesh.VertexCount()),
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Int("texture_width", texture.Width),
		zap.Int("texture_height", texture.Height),
	)

	return &Scene{
		Mesh:      mesh,
		Texture:   texture,
		Walls:     walls,
		Room:      buildRoom(roomHalfSize, walls, lamp),
		Lamp:      lamp,
		Transform: math3d.Identity(),
	}, nil
}

// alphaRef prefers the cutoff of the model's first mask material.
func alphaRef(mesh *models.Mesh, fallback int) uint8 {
	for i := range mesh.Materials {
		if mesh.Materials[i].AlphaMode == models.AlphaMask {
			return mesh.Materials[i].AlphaRef()
		}
	}
	return uint8(fallback)
}

func newCache(cfg *config.Config, fbWidth, fbHeight int) *surfcache.Cache {
	if cfg.Cache.SizeKB > 0 {
		return surfcache.New(cfg.Cache.SizeKB * 1024)
	}
	return surfcache.NewForViewport(fbWidth, fbHeight)
}

func run(cfg *config.Config, modelPath string) error {
	filter, err := render.ParseFilterMode(cfg.Render.Filter)
	if err != nil {
		return err
	}

	scene, err := loadScene(cfg, modelPath)
	if err != nil {
		return err
	}

	bg := cfg.Graphics.Background
	bgColor := render.RGB(uint8(bg[0]), uint8(bg[1]), uint8(bg[2]))

	// Create terminal
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	presenter := render.NewPresenter(width, height)
	presenter.HUDBackground = render.ColorBlack
	fbWidth, fbHeight := presenter.FramebufferSize()
	fb := render.NewFramebuffer(fbWidth, fbHeight)

	camera := render.NewCamera()
	camera.SetAspectRatio(float64(fbWidth) / float64(fbHeight))
	camera.SetFOV(cfg.Render.FOVDegrees * math.Pi / 180)
	camera.SetClipPlanes(cfg.Render.Near, cfg.Render.Far)

	newRasterizer := func(fb *render.Framebuffer) *render.Rasterizer {
		r := render.NewRasterizer(camera, fb)
		r.DisableBackfaceCulling = !cfg.Render.BackfaceCulling
		r.AlphaRef = alphaRef(scene.Mesh, cfg.Render.AlphaRef)
		return r
	}
	rasterizer := newRasterizer(fb)
	world := render.NewWorldRenderer(rasterizer, newCache(cfg, fbWidth, fbHeight))

	hud := NewHUD(filepath.Base(modelPath), scene.Mesh.TriangleCount())
	orbit := NewOrbit(cfg.Graphics.FPS)
	view := &ViewState{
		TextureEnabled: true,
		Room:           cfg.Render.Room,
		ShowHUD:        cfg.Graphics.ShowHUD,
		Filter:         filter,
		LightDir:       math3d.V3(0.5, 1, 0.3).Normalize(),
	}
	scene.Texture.FilterMode = view.Filter

	// Context for clean shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Events are forwarded to the frame loop so renderer state is only
	// touched from one goroutine.
	events := make(chan uv.Event, 64)
	go func() {
		for ev := range term.Events() {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	var mouseDown bool
	var lastMouseX, lastMouseY int

	handle := func(ev uv.Event) {
		switch ev := ev.(type) {
		case uv.WindowSizeEvent:
			width, height = ev.Width, ev.Height
			term.Erase()
			term.Resize(width, height)
			presenter = render.NewPresenter(width, height)
			presenter.HUDBackground = render.ColorBlack
			fbWidth, fbHeight = presenter.FramebufferSize()
			fb = render.NewFramebuffer(fbWidth, fbHeight)
			rasterizer = newRasterizer(fb)
			world.SetRasterizer(rasterizer)
			if cfg.Cache.SizeKB == 0 {
				world.SetCache(newCache(cfg, fbWidth, fbHeight), scene.Room...)
			}
			camera.SetAspectRatio(float64(fbWidth) / float64(fbHeight))
			logger.Debug("resized", zap.Int("columns", width), zap.Int("rows", height))

		case uv.KeyPressEvent:
			switch {
			case ev.MatchString("escape", "ctrl+c"):
				cancel()
			case ev.MatchString("r"):
				orbit.Reset()
			case ev.MatchString("w", "up"):
				orbit.ApplyImpulse(0.05, 0)
			case ev.MatchString("s", "down"):
				orbit.ApplyImpulse(-0.05, 0)
			case ev.MatchString("a", "left"):
				orbit.ApplyImpulse(0, -0.05)
			case ev.MatchString("d", "right"):
				orbit.ApplyImpulse(0, 0.05)
			case ev.MatchString("space"):
				orbit.ApplyImpulse((rand.Float64()-0.5)*0.2, (rand.Float64()-0.5)*0.5)
			case ev.MatchString("+", "="):
				orbit.Zoom.Step(-0.5)
			case ev.MatchString("-", "_"):
				orbit.Zoom.Step(0.5)
			case ev.MatchString("t"):
				view.TextureEnabled = !view.TextureEnabled
			case ev.MatchString("x"):
				view.Wireframe = !view.Wireframe
			case ev.MatchString("b"):
				view.Room = !view.Room
			case ev.MatchString("f"):
				if view.Filter == render.FilterNearest {
					view.Filter = render.FilterBilinear
				} else {
					view.Filter = render.FilterNearest
				}
				scene.Texture.FilterMode = view.Filter
				scene.Walls.FilterMode = view.Filter
				relight(scene.Room, scene.Lamp, roomHalfSize)
			case ev.MatchString("c"):
				world.Cache().Clear()
			case ev.MatchString("l"):
				scene.Lamp = camera.Position
				view.LightDir = camera.Position.Normalize()
				relight(scene.Room, scene.Lamp, roomHalfSize)
			case ev.MatchString("?"), ev.MatchString("shift+/"):
				view.ShowHUD = !view.ShowHUD
			}

		case uv.MouseClickEvent:
			mouseDown = true
			lastMouseX, lastMouseY = ev.X, ev.Y

		case uv.MouseReleaseEvent:
			mouseDown = false

		case uv.MouseMotionEvent:
			if mouseDown {
				dx := ev.X - lastMouseX
				dy := ev.Y - lastMouseY
				orbit.ApplyImpulse(float64(dy)*0.01, float64(-dx)*0.01)
				lastMouseX, lastMouseY = ev.X, ev.Y
			}

		case uv.MouseWheelEvent:
			switch ev.Button {
			case uv.MouseWheelUp:
				orbit.Zoom.Step(-0.5)
			case uv.MouseWheelDown:
				orbit.Zoom.Step(0.5)
			}
		}
	}

	targetDuration := time.Second / time.Duration(cfg.Graphics.FPS)

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	logger.Info("viewer started", zap.Int("columns", width), zap.Int("rows", height))

	for {
		now := time.Now()

	drain:
		for {
			select {
			case ev := <-events:
				handle(ev)
			default:
				break drain
			}
		}

		select {
		case <-ctx.Done():
			cleanup()
			stats := world.Cache().Stats()
			logger.Info("viewer stopped",
				zap.Uint64("epoch", stats.Epoch),
				zap.Int("allocations", stats.Allocations),
				zap.Int("wraps", stats.Wraps),
			)
			return nil
		default:
		}

		orbit.Update()
		orbit.Apply(camera)
		rasterizer.InvalidateFrustum()
		rasterizer.ResetStats()
		world.ResetStats()

		fb.Clear(bgColor)
		rasterizer.ClearDepth()

		if view.Room {
			for _, f := range scene.Room {
				world.DrawFace(f)
			}
		}

		switch {
		case view.Wireframe:
			rasterizer.DrawMeshWireframe(scene.Mesh, scene.Transform, render.RGB(0, 255, 128))
		case view.TextureEnabled:
			rasterizer.DrawMeshTextured(scene.Mesh, scene.Transform, scene.Texture, view.LightDir)
		default:
			rasterizer.DrawMeshGouraud(scene.Mesh, scene.Transform, render.RGB(200, 200, 200), view.LightDir)
		}

		hud.UpdateFPS()
		presenter.HUD = nil
		if view.ShowHUD {
			presenter.HUD = hud.Lines(view, rasterizer.ClipStats, world.Stats, world.Cache().Stats())
		}
		presenter.Present(term, fb)
		if err := term.Display(); err != nil {
			cleanup()
			return fmt.Errorf("display: %w", err)
		}

		// Frame timing
		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}
