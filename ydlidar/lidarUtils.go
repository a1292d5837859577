// Package ydlidar drives YDLidar X4/G2 devices over a serial port. The
// device outputs little endian data.
package ydlidar

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// NewLidar returns a YDLidar talking to model m over port.
func NewLidar(port Port, m Model, log *zap.SugaredLogger) *YDLidar {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &YDLidar{
		port:  port,
		model: m,
		log:   log,
	}
}

// OpenSerial opens ttyPort with the line settings of model m. An empty
// ttyPort uses the last port the OS enumerates.
func OpenSerial(ttyPort string, m Model) (serial.Port, error) {
	if ttyPort == "" {
		ports, err := serial.GetPortsList()
		if err != nil {
			return nil, fmt.Errorf("list serial ports: %w", err)
		}
		if len(ports) == 0 {
			return nil, errors.New("no serial ports found")
		}
		ttyPort = ports[len(ports)-1]
	}

	mode := &serial.Mode{
		BaudRate: m.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(ttyPort, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", ttyPort, err)
	}

	// A finite timeout lets Scan notice cancellation between reads.
	if err := port.SetReadTimeout(time.Second); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", ttyPort, err)
	}
	return port, nil
}

// Model returns the model the driver decodes packets for.
func (lidar *YDLidar) Model() Model {
	return lidar.model
}

// Dropped returns the number of scan packets discarded for bad checksums.
func (lidar *YDLidar) Dropped() uint64 {
	return lidar.dropped.Load()
}

// DeviceInfo returns the version information.
func (lidar *YDLidar) DeviceInfo(ctx context.Context) (*DeviceInfo, error) {
	data, err := lidar.request(ctx, deviceInfo, InfoTypeCode, deviceInfoSize)
	if err != nil {
		return nil, fmt.Errorf("device info: %w", err)
	}

	info := &DeviceInfo{
		Model:    data[0],
		Hardware: data[3],
	}
	copy(info.Firmware[:], data[1:3])
	copy(info.Serial[:], data[4:20])
	return info, nil
}

// Health returns nil if the lidar is operating optimally.
func (lidar *YDLidar) Health(ctx context.Context) error {
	data, err := lidar.request(ctx, healthStatus, HealthTypeCode, healthInfoSize)
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	if data[0] != 0 {
		return fmt.Errorf("%w: status %d error code %#04x",
			ErrDeviceHealth, data[0], binary.LittleEndian.Uint16(data[1:3]))
	}
	return nil
}

// request sends a single response command and returns its payload.
func (lidar *YDLidar) request(ctx context.Context, cmd byte, wantType byte, wantSize int) ([]byte, error) {
	if _, err := lidar.port.Write([]byte{preCommand, cmd}); err != nil {
		return nil, fmt.Errorf("write command %#02x: %w", cmd, err)
	}

	size, typeCode, _, err := lidar.readResponseHeader(ctx)
	if err != nil {
		return nil, err
	}
	if typeCode != wantType {
		return nil, fmt.Errorf("%w: expected %#02x, got %#02x", ErrUnexpectedType, wantType, typeCode)
	}
	if int(size) != wantSize {
		return nil, fmt.Errorf("%w: expected %d payload bytes, header says %d", ErrBadHeader, wantSize, size)
	}

	data := make([]byte, wantSize)
	if err := lidar.readFull(ctx, data); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}

// readResponseHeader reads and validates the 7 byte response header.
func (lidar *YDLidar) readResponseHeader(ctx context.Context) (size uint32, typeCode byte, mode byte, err error) {
	header := make([]byte, responseHeaderSize)
	if err := lidar.readFull(ctx, header); err != nil {
		return 0, 0, 0, fmt.Errorf("read response header: %w", err)
	}

	if header[0] != 0xA5 || header[1] != 0x5A {
		return 0, 0, 0, fmt.Errorf("%w: expected A5 5A, got %X %X", ErrBadHeader, header[0], header[1])
	}

	// 30 bits of length followed by 2 bits of mode.
	raw := binary.LittleEndian.Uint32(header[2:6])
	lidar.log.Debugw("response header", "header", fmt.Sprintf("% X", header))

	return raw & 0x3FFFFFFF, header[6], byte(raw >> 30), nil
}

// Scan turns the motor on, starts scanning and sends every decoded packet
// to packets until ctx is cancelled or the port fails. Packets with a bad
// checksum are dropped.
func (lidar *YDLidar) Scan(ctx context.Context, packets chan<- Packet) error {
	if err := lidar.port.SetDTR(true); err != nil {
		return fmt.Errorf("enable motor: %w", err)
	}
	if _, err := lidar.port.Write([]byte{preCommand, startScanning}); err != nil {
		return fmt.Errorf("failed to start scan: %w", err)
	}

	_, typeCode, mode, err := lidar.readResponseHeader(ctx)
	switch {
	case ctx.Err() != nil:
		return nil
	case err != nil:
		return err
	case typeCode != ScanTypeCode:
		return fmt.Errorf("%w: expected %#02x, got %#02x", ErrUnexpectedType, ScanTypeCode, typeCode)
	case mode != continuousResponse:
		return fmt.Errorf("%w: expected continuous response mode, got %d", ErrBadHeader, mode)
	}

	rawHeader := make([]byte, scanHeaderSize)
	for {
		if err := lidar.readPacketHeader(ctx, rawHeader); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		h, err := parsePacketHeader(rawHeader)
		if err != nil {
			return err
		}

		samples := make([]byte, int(h.SampleQuantity)*lidar.model.SampleSize)
		if err := lidar.readFull(ctx, samples); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read samples: %w", err)
		}

		pkt, err := decodePacket(h, samples, lidar.model)
		if err != nil {
			dropped := lidar.dropped.Add(1)
			lidar.log.Debugw("dropping scan packet", "error", err, "dropped", dropped)
			continue
		}

		select {
		case packets <- pkt:
		case <-ctx.Done():
			return nil
		}
	}
}

// readPacketHeader fills raw with the next scan packet header, skipping
// bytes until the AA 55 start sign.
func (lidar *YDLidar) readPacketHeader(ctx context.Context, raw []byte) error {
	if err := lidar.readFull(ctx, raw[:2]); err != nil {
		return fmt.Errorf("read scan header: %w", err)
	}
	for raw[0] != 0xAA || raw[1] != 0x55 {
		raw[0] = raw[1]
		if err := lidar.readFull(ctx, raw[1:2]); err != nil {
			return fmt.Errorf("sync scan header: %w", err)
		}
	}
	if err := lidar.readFull(ctx, raw[2:]); err != nil {
		return fmt.Errorf("read scan header: %w", err)
	}
	return nil
}

// readFull reads len(buf) bytes. Serial read timeouts return no data and no
// error, so cancellation is checked between reads.
func (lidar *YDLidar) readFull(ctx context.Context, buf []byte) error {
	for n := 0; n < len(buf); {
		if err := ctx.Err(); err != nil {
			return err
		}
		m, err := lidar.port.Read(buf[n:])
		n += m
		if err != nil {
			return err
		}
	}
	return nil
}

// StopScan stops scanning, turns the motor off and flushes the input buffer.
func (lidar *YDLidar) StopScan() error {
	if _, err := lidar.port.Write([]byte{preCommand, stopScanning}); err != nil {
		return fmt.Errorf("stop scan: %w", err)
	}
	if err := lidar.port.SetDTR(false); err != nil {
		return fmt.Errorf("disable motor: %w", err)
	}
	if err := lidar.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("reset input buffer: %w", err)
	}
	return nil
}

// Reboot soft reboots the lidar.
func (lidar *YDLidar) Reboot() error {
	if _, err := lidar.port.Write([]byte{preCommand, restartDevice}); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}
	return nil
}

// Close will shut down the connection.
func (lidar *YDLidar) Close() error {
	return lidar.port.Close()
}
