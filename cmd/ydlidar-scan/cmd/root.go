package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deepakkamesh/scanmarker/internal/config"
	"github.com/deepakkamesh/scanmarker/internal/logger"
	"github.com/deepakkamesh/scanmarker/internal/rosnode"
	"github.com/deepakkamesh/scanmarker/internal/service/scanner"
	"github.com/deepakkamesh/scanmarker/internal/version"
	"github.com/deepakkamesh/scanmarker/ydlidar"
)

var (
	configPath string
	logLevel   string
	// port overrides lidar.port; empty autodetects.
	port string
	// replay overrides lidar.replay_file.
	replay string

	rootCmd = &cobra.Command{
		Use:   "ydlidar-scan [ros-remaps...]",
		Short: "Publish YDLidar scans on a ROS topic.",
		Long: `Drives a YDLidar X4 or G2 over its serial port and publishes one
sensor_msgs/LaserScan per revolution.

With --replay a recorded capture is played back in a loop instead of
talking to a device.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg, lidar, err := openLidar()
			if err != nil {
				return err
			}
			defer lidar.Close() //nolint:errcheck

			if info, err := lidar.DeviceInfo(ctx); err != nil {
				logger.Warnf(ctx, "failed to read device info: %v", err)
			} else {
				logger.Infof(ctx, "lidar %s", info)
			}

			logger.Debugf(ctx, "ros arguments %v", args)
			node, err := rosnode.New(cfg.Lidar.NodeName, append(os.Args[:1:1], args...), logger.Level())
			if err != nil {
				return err
			}
			defer node.Shutdown()

			return scanner.Run(ctx, node, lidar, cfg.Lidar, nil)
		},
	}
)

// openLidar loads the configuration, applies the flags and opens the lidar.
func openLidar() (*config.Config, *ydlidar.YDLidar, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	applyFlags(cfg)

	level, ok := logger.ParseLogLevel(cfg.LogLevel)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown log level %q", config.ErrInvalid, cfg.LogLevel)
	}
	logger.SetLevel(level)

	model, err := ydlidar.ModelByName(cfg.Lidar.Model)
	if err != nil {
		return nil, nil, err
	}
	devicePort, err := openPort(cfg.Lidar, model)
	if err != nil {
		return nil, nil, err
	}
	return cfg, ydlidar.NewLidar(devicePort, model, logger.Logger().Named("ydlidar")), nil
}

func applyFlags(cfg *config.Config) {
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if port != "" {
		cfg.Lidar.Port = port
	}
	if replay != "" {
		cfg.Lidar.ReplayFile = replay
	}
}

// openPort returns the replay port when a capture is configured, the serial
// device otherwise.
func openPort(cfg config.Lidar, model ydlidar.Model) (ydlidar.Port, error) {
	if cfg.ReplayFile == "" {
		return ydlidar.OpenSerial(cfg.Port, model)
	}

	capture, err := os.ReadFile(filepath.Clean(cfg.ReplayFile))
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}
	replayPort, err := ydlidar.NewReplayPort(capture, model, cfg.ReplayPace)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", cfg.ReplayFile, err)
	}
	return replayPort, nil
}

// Execute runs the ydlidar-scan CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(infoCmd, dumpCmd, rebootCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.ErrorKV(rootCmd.Context(), "ydlidar-scan failed", "error", err)
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&port, "port", "", "serial port of the lidar, autodetected when empty")
	rootCmd.PersistentFlags().StringVar(&replay, "replay", "", "play back a recorded capture instead of a device")
}
