package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/toxichemicals/GO/shaderview/camera"
	"github.com/toxichemicals/GO/shaderview/config"
	"github.com/toxichemicals/GO/shaderview/core/opengl"
	"github.com/toxichemicals/GO/shaderview/input"
	"github.com/toxichemicals/GO/shaderview/logger"
	"github.com/toxichemicals/GO/shaderview/mesh"
	"github.com/toxichemicals/GO/shaderview/shader"
	"github.com/toxichemicals/GO/shaderview/viewer"
)

func init() {
	// GLFW and GL calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := flags.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("viewer failed", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	window, err := opengl.NewWindow(opengl.WindowOptions{
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		Title:  cfg.Window.Title,
		VSync:  cfg.Window.VSync,
	}, log)
	if err != nil {
		return err
	}
	defer window.Close()

	device, err := opengl.NewDevice(log)
	if err != nil {
		return err
	}

	program, err := shader.New(device, cfg.Shaders.Vertex, cfg.Shaders.Fragment, log)
	if err != nil {
		return fmt.Errorf("failed to load shader program: %w", err)
	}
	defer program.Close()

	geometry, err := mesh.Load(cfg.Mesh.Path)
	if err != nil {
		return fmt.Errorf("failed to load mesh: %w", err)
	}
	buffer, err := mesh.NewBuffer(device, geometry, log.With(zap.String("mesh", cfg.Mesh.Path)))
	if err != nil {
		return err
	}
	defer buffer.Close()

	sources := []input.Source{window}
	if cfg.Watch {
		watcher, err := shader.NewWatcher(log, cfg.Shaders.Vertex, cfg.Shaders.Fragment)
		if err != nil {
			log.Warn("file watching disabled, falling back to polling", zap.Error(err))
		} else {
			defer watcher.Close()
			sources = append(sources, watcher)
		}
	}

	v, err := viewer.New(viewer.Options{
		Device:     device,
		Program:    program,
		Mesh:       buffer,
		Camera:     camera.New(cfg.CameraOptions()),
		Input:      input.Multi(sources...),
		Presenter:  window,
		Logger:     log,
		Title:      cfg.Window.Title,
		ReloadKey:  cfg.ReloadKey(),
		ClearColor: mgl32.Vec4(cfg.Render.ClearColor),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("viewer started",
		zap.String("vertex", cfg.Shaders.Vertex),
		zap.String("fragment", cfg.Shaders.Fragment),
		zap.Stringer("zoom", cfg.CameraOptions().ZoomMode),
		zap.Stringer("reload_key", cfg.ReloadKey()))
	v.Run(ctx)
	return nil
}
