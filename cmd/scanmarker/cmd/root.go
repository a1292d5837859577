package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deepakkamesh/scanmarker/internal/config"
	"github.com/deepakkamesh/scanmarker/internal/logger"
	"github.com/deepakkamesh/scanmarker/internal/rosnode"
	"github.com/deepakkamesh/scanmarker/internal/service/markers"
	"github.com/deepakkamesh/scanmarker/internal/version"
)

var (
	// configPath is the optional YAML configuration file.
	configPath string
	// logLevel overrides log_level from the configuration.
	logLevel string

	rootCmd = &cobra.Command{
		Use:   "scanmarker [ros-remaps...]",
		Short: "Republish laser scans as rviz point markers.",
		Long: `Subscribes to a sensor_msgs/LaserScan topic and publishes every scan as a
visualization_msgs/Marker of type POINTS in the sensor frame.

Arguments are handed to the ROS client library, e.g. __master:=http://host:11311
or /scan:=/front/scan.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			level, ok := logger.ParseLogLevel(cfg.LogLevel)
			if !ok {
				return fmt.Errorf("%w: unknown log level %q", config.ErrInvalid, cfg.LogLevel)
			}
			logger.SetLevel(level)

			logger.Debugf(ctx, "ros arguments %v", args)
			node, err := rosnode.New(cfg.Markers.NodeName, append(os.Args[:1:1], args...), level)
			if err != nil {
				return err
			}
			defer node.Shutdown()

			return markers.Run(ctx, node, cfg.Markers)
		},
	}
)

// Execute runs the scanmarker CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.ErrorKV(rootCmd.Context(), "scanmarker failed", "error", err)
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
}
