package main

import (
	"errors"
	"runtime"
	"strconv"
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/envy"
	"github.com/gobuffalo/packr"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/lumen/core"
	"github.com/devblok/lumen/gfx"
	"github.com/devblok/lumen/gfx/vkr"
)

func init() {
	runtime.LockOSThread()
}

//go:generate glslangValidator -V ../../shaders/triangle.vert -o ../../shaders/triangle.vert.spv
//go:generate glslangValidator -V ../../shaders/triangle.frag -o ../../shaders/triangle.frag.spv

// StaticResources holds the default compiled shaders that ship with the
// binary, used when no shader directory is configured. The binaries are
// produced from the GLSL sources in shaders/ by go generate, which needs
// glslangValidator on PATH; run it once before building.
var StaticResources packr.Box

func init() {
	StaticResources = packr.NewBox("../../shaders")
}

// Essential globals
var (
	vkInstance *vkr.Instance
	vkDevice   *vkr.Device
	renderer   core.Renderer
	sdlWindow  *sdl.Window
	sdlSurface unsafe.Pointer
)

func envInt(key string, def int) int {
	v, err := strconv.Atoi(envy.Get(key, strconv.Itoa(def)))
	if err != nil {
		log.WithField("key", key).Warn("ignoring malformed numeric setting")
		return def
	}
	return v
}

func loadConfiguration() core.Configuration {
	// An optional local env file overrides the shell environment.
	godotenv.Load(".env.local")

	return core.Configuration{
		Time: core.TimeConfiguration{
			FramesPerSecond: envInt("LUMEN_FPS", 60),
			EventPollDelay:  envInt("LUMEN_EVENT_POLL_MS", 2),
		},
		Renderer: core.RendererConfiguration{
			ScreenWidth:  uint32(envInt("LUMEN_WIDTH", 800)),
			ScreenHeight: uint32(envInt("LUMEN_HEIGHT", 600)),
		},
	}
}

func loadShaders(cfg *core.RendererConfiguration) error {
	if bundle := envy.Get("LUMEN_SHADER_BUNDLE", ""); bundle != "" {
		vert, frag, err := core.LoadShaderBundle(bundle)
		if err != nil {
			return err
		}
		cfg.VertexShader, cfg.FragmentShader = vert, frag
		return nil
	}
	if dir := envy.Get("LUMEN_SHADER_DIR", ""); dir != "" {
		vert, frag, err := core.LoadShaderDirectory(dir)
		if err != nil {
			return err
		}
		cfg.VertexShader, cfg.FragmentShader = vert, frag
		return nil
	}

	vert, err := StaticResources.MustBytes("triangle.vert.spv")
	if err != nil {
		return err
	}
	frag, err := StaticResources.MustBytes("triangle.frag.spv")
	if err != nil {
		return err
	}
	cfg.VertexShader, cfg.FragmentShader = vert, frag
	return nil
}

func newWindow(cfg core.RendererConfiguration) *sdl.Window {
	window, err := sdl.CreateWindow("Lumen",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.ScreenWidth),
		int32(cfg.ScreenHeight),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		panic(err)
	}
	return window
}

// pollInput drains the SDL event queue into a single FrameInput.
func pollInput() core.FrameInput {
	var input core.FrameInput
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.QuitEvent:
			input.CloseRequested = true
		case *sdl.KeyboardEvent:
			if et.Keysym.Sym == sdl.K_ESCAPE {
				input.CloseRequested = true
			}
		case *sdl.WindowEvent:
			if et.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				input.ResizedTo = &gfx.Extent{
					Width:  uint32(et.Data1),
					Height: uint32(et.Data2),
				}
			}
		case *sdl.MouseMotionEvent:
			pos := glm.Vec2{float32(et.X), float32(et.Y)}
			input.PointerMovedTo = &pos
		}
	}
	return input
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logger := log.WithField("component", "lumen")

	configuration := loadConfiguration()
	if err := loadShaders(&configuration.Renderer); err != nil {
		logger.WithError(err).Fatal("shader loading failed")
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		panic(err)
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		panic(err)
	}
	defer sdl.VulkanUnloadLibrary()

	sdlWindow = newWindow(configuration.Renderer)
	defer sdlWindow.Destroy()

	{
		cfg := vkr.InstanceConfiguration{
			DebugMode:  envy.Get("LUMEN_VKDBG", "") != "",
			Extensions: sdlWindow.VulkanGetInstanceExtensions(),
			Layers:     []string{},
		}

		vi, err := vkr.NewInstance(vkr.NewApplicationInfo("Lumen"), sdl.VulkanGetVkGetInstanceProcAddr(), cfg)
		if err != nil {
			logger.WithError(err).Fatal("instance creation failed")
		}
		vkInstance = vi
	}
	defer vkInstance.Destroy()

	if srf, err := sdlWindow.VulkanCreateSurface(vkInstance.Inner()); err != nil {
		logger.WithError(err).Fatal("surface creation failed")
	} else {
		sdlSurface = srf
		vkInstance.SetSurface(sdlSurface)
	}

	{
		dev, err := vkr.NewDevice(vkInstance)
		if err != nil {
			logger.WithError(err).Fatal("device selection failed")
		}
		vkDevice = dev
	}
	defer vkDevice.Destroy()

	renderer = core.NewRenderer(vkDevice, logger, configuration.Renderer)
	if err := renderer.Initialise(); err != nil {
		logger.WithError(err).Fatal("renderer initialisation failed")
	}
	defer renderer.Destroy()

	time := core.NewTime(configuration.Time)
	state := core.LocalState{
		FrameWidth:  float32(configuration.Renderer.ScreenWidth),
		FrameHeight: float32(configuration.Renderer.ScreenHeight),
	}

EventLoop:
	for {
		select {
		case <-time.EventTicker().C:
			input := pollInput()
			if input.CloseRequested {
				logger.Info("event loop exited")
				break EventLoop
			}
			state.Update(input)
			if input.ResizedTo != nil {
				if err := renderer.RecreateSwapchain(*input.ResizedTo); err != nil {
					logger.WithError(err).Fatal("swapchain recreation failed")
				}
			}
		case <-time.FpsTicker().C:
			err := renderer.DrawTriangleFrame(state.Triangle())
			if err == nil {
				continue
			}
			// Per-frame errors are recoverable: log, skip the frame and
			// keep the loop alive. Anything else is structural.
			var frameErr *core.FrameError
			if errors.As(err, &frameErr) {
				logger.WithError(frameErr).Warn("frame skipped")
				continue
			}
			logger.WithError(err).Fatal("rendering failed")
		}
	}
}
