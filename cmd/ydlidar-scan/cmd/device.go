package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deepakkamesh/scanmarker/ydlidar"
)

var (
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Print device information and health.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, lidar, err := openLidar()
			if err != nil {
				return err
			}
			defer lidar.Close() //nolint:errcheck

			info, err := lidar.DeviceInfo(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), info)

			health := "ok"
			if err := lidar.Health(cmd.Context()); err != nil {
				health = err.Error()
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "health: %s\n", health)
			return nil
		},
	}

	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Print decoded scan packets until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			_, lidar, err := openLidar()
			if err != nil {
				return err
			}
			defer lidar.Close()    //nolint:errcheck
			defer lidar.StopScan() //nolint:errcheck

			return dumpPackets(ctx, lidar, cmd.OutOrStdout())
		},
	}

	rebootCmd = &cobra.Command{
		Use:   "reboot",
		Short: "Soft reboot the device.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, lidar, err := openLidar()
			if err != nil {
				return err
			}
			defer lidar.Close() //nolint:errcheck

			return lidar.Reboot()
		},
	}
)

// dumpPackets writes one line per packet and per sample until ctx is done.
func dumpPackets(ctx context.Context, lidar *ydlidar.YDLidar, w io.Writer) error {
	packets := make(chan ydlidar.Packet)
	errc := make(chan error, 1)
	go func() {
		errc <- lidar.Scan(ctx, packets)
	}()

	for {
		select {
		case err := <-errc:
			return err
		case p := <-packets:
			if p.Type == ydlidar.ZeroPacket {
				_, _ = fmt.Fprintf(w, "start of revolution, %.1f Hz\n", p.FrequencyHz)
				continue
			}
			_, _ = fmt.Fprintf(w, "packet %.2f..%.2f deg, %d samples\n", p.FirstAngle, p.LastAngle, len(p.Samples))
			for _, s := range p.Samples {
				_, _ = fmt.Fprintf(w, "  %7.2f deg %7.1f mm %4d\n", s.Angle, s.Distance, s.Intensity)
			}
		}
	}
}
