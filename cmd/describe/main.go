// describe captures one frame, prints what the vision model sees and,
// unless -quiet is set, speaks it.
//
//	describe -camera file:street.jpg
//	describe -camera device -camera-device /dev/video2 -quiet
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/teslashibe/go-lookout/internal/config"
	"github.com/teslashibe/go-lookout/internal/log"
	"github.com/teslashibe/go-lookout/pkg/app"
	"github.com/teslashibe/go-lookout/pkg/assistant"
	"github.com/teslashibe/go-lookout/pkg/camera"
	"github.com/teslashibe/go-lookout/pkg/frame"
	"github.com/teslashibe/go-lookout/pkg/speech"
)

func main() {
	envErr := config.LoadDotEnv()

	cfg := app.DefaultConfig()
	cfg.LoadEnvConfig()

	flag.StringVar(&cfg.Camera, "camera", cfg.Camera, "Camera: device or file:<path>")
	flag.StringVar(&cfg.CameraDevice, "camera-device", cfg.CameraDevice, "Device index, node or stream URL")
	flag.StringVar(&cfg.Prompt, "prompt", cfg.Prompt, "Override the description style prompt")
	flag.StringVar(&cfg.LogLevel, "log-level", "warn", "Log level")
	quiet := flag.Bool("quiet", false, "Print only, do not speak")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall deadline")
	flag.Parse()

	log.Init(cfg.LogLevel)
	if envErr != nil {
		log.Warn("could not load .env", "error", envErr)
	}

	if cfg.Camera == app.CameraBrowser {
		fmt.Fprintln(os.Stderr, "describe: the browser camera needs the lookout server")
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "describe: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	if err := run(ctx, cfg, *quiet); err != nil {
		fmt.Fprintf(os.Stderr, "describe: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg app.Config, quiet bool) error {
	logger := log.Component("describe")

	cam, _, err := app.NewCamera(cfg, logger)
	if err != nil {
		return err
	}
	analyzer, err := app.NewAnalyzer(cfg, logger)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	if err := cam.Acquire(ctx); err != nil {
		return fmt.Errorf("%s: %w", camera.Describe(err), err)
	}
	img, err := cam.Frame(ctx)
	cam.Release()
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	f, err := frame.Sample(img, cfg.FrameOptions())
	if err != nil {
		return err
	}
	logger.Info("frame ready", "width", f.Width, "height", f.Height, "bytes", len(f.Data))

	text := assistant.NoDescriptionPhrase
	res, err := analyzer.Analyze(ctx, f)
	switch {
	case err != nil:
		text = assistant.AnalysisErrorPhrase
		logger.Error("analysis failed", "error", err)
	case res != nil && !res.Empty():
		text = strings.TrimSpace(res.Text)
	}
	fmt.Println(text)

	if quiet {
		return err
	}
	return errors.Join(err, speak(ctx, cfg, text))
}

func speak(ctx context.Context, cfg app.Config, text string) error {
	logger := log.Component("describe")

	voice, err := app.NewVoice(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer voice.Close()
	player, err := app.NewPlayer(cfg, logger)
	if err != nil {
		return err
	}
	defer player.Close()

	sp := app.NewSpeaker(ctx, cfg, voice, player, logger)
	defer sp.Close()

	id := sp.Speak(text)
	for {
		select {
		case ev := <-sp.Events():
			if ev.UtteranceID != id {
				continue
			}
			switch ev.Kind {
			case speech.EventEnd:
				return nil
			case speech.EventError:
				return ev.Err
			}
		case <-ctx.Done():
			sp.Cancel()
			return ctx.Err()
		}
	}
}
