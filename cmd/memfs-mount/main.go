// Copyright 2026 The Memfs Authors
// SPDX-License-Identifier: Apache-2.0

// Command memfs-mount mounts an in-memory POSIX-style filesystem at a
// directory through FUSE, and unmounts it cleanly on SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/memfs-foundation/memfs/lib/memfs"
	memfsfuse "github.com/memfs-foundation/memfs/lib/memfs/fuse"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flagSet := pflag.NewFlagSet("memfs-mount", pflag.ContinueOnError)
	mountpoint := flagSet.String("mountpoint", "./mnt", "directory to mount the filesystem at")
	allowOther := flagSet.Bool("allow-other", false, "allow other users to access the mount")
	logLevel := flagSet.String("log-level", "info", "log level: debug, info, warn, or error")
	configPath := flagSet.String("config", "", "optional YAML config file; flags override its values")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if cfg.Mountpoint != "" && !flagSet.Changed("mountpoint") {
		*mountpoint = cfg.Mountpoint
	}
	if cfg.AllowOther && !flagSet.Changed("allow-other") {
		*allowOther = true
	}
	if cfg.LogLevel != "" && !flagSet.Changed("log-level") {
		*logLevel = cfg.LogLevel
	}

	level, err := parseLevel(*logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fsys := memfs.New(memfs.Options{})
	server, err := memfsfuse.Mount(memfsfuse.Options{
		Mountpoint: *mountpoint,
		FS:         fsys,
		AllowOther: *allowOther,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("mounting filesystem: %w", err)
	}

	banner := fmt.Sprintf("mounted %s (%d inodes, pid %d)", *mountpoint, fsys.InodeCount(), os.Getpid())
	fmt.Println(color.GreenString(banner))
	logger.Info("memfs-mount running", "mountpoint", *mountpoint, "allow_other", *allowOther, "pid", os.Getpid())

	<-ctx.Done()
	logger.Info("shutting down")

	if err := server.Unmount(); err != nil {
		return fmt.Errorf("unmounting %s: %w", *mountpoint, err)
	}
	logger.Info("filesystem unmounted", "mountpoint", *mountpoint)
	return nil
}

func parseLevel(name string) (slog.Level, error) {
	switch name {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown --log-level %q (want debug, info, warn, or error)", name)
	}
}
