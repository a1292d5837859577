package ydlidar

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

//go:generate mockgen -destination=mocks/mock_port.go -package=mocks github.com/deepakkamesh/scanmarker/ydlidar Port

// Port is the serial interface the driver talks through. go.bug.st/serial
// ports satisfy it, as does ReplayPort.
type Port interface {
	io.ReadWriteCloser
	SetDTR(dtr bool) error
	ResetInputBuffer() error
}

// YDLidar is the lidar object.
type YDLidar struct {
	port    Port
	model   Model
	log     *zap.SugaredLogger
	dropped atomic.Uint64
}

// Model describes the per-device differences the driver cares about.
type Model struct {
	Name string
	// Code is the model number reported by the device info command.
	Code     byte
	BaudRate int
	// SampleSize is the number of bytes per sample in a scan packet.
	SampleSize int
}

var (
	// X4 sends 2-byte distance samples without intensity.
	X4 = Model{Name: "X4", Code: 6, BaudRate: 128000, SampleSize: 2}
	// G2 sends 3-byte samples carrying intensity and distance.
	G2 = Model{Name: "G2", Code: 15, BaudRate: 230400, SampleSize: 3}

	models = []Model{X4, G2}
)

// HasIntensity reports whether samples carry an intensity value.
func (m Model) HasIntensity() bool {
	return m.SampleSize == 3
}

// ModelByName looks a model up by name, case-insensitively.
func ModelByName(name string) (Model, error) {
	for _, m := range models {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// ModelByCode looks a model up by the code in DeviceInfo.
func ModelByCode(code byte) (Model, bool) {
	for _, m := range models {
		if m.Code == code {
			return m, true
		}
	}
	return Model{}, false
}

const (
	// preCommand is the command to send before sending any other command.
	preCommand = 0xA5

	// healthStatus is the command to get the health status.
	healthStatus = 0x92

	// deviceInfo is the command to get the device information.
	deviceInfo = 0x90

	// restartDevice is the command to soft reboot the device.
	restartDevice = 0x40

	// stopScanning is the command to stop scanning.
	stopScanning = 0x65

	// startScanning is the command to start scanning.
	startScanning = 0x60

	// HealthTypeCode is the device response Health HealthInfo type code.
	HealthTypeCode = 0x06

	// InfoTypeCode is the device response Device Information type code.
	InfoTypeCode = 0x04

	// ScanTypeCode is the device response Scan Command type code.
	ScanTypeCode = 0x81

	// continuousResponse is the response mode of the scan command.
	continuousResponse = 0x1

	responseHeaderSize = 7
	scanHeaderSize     = 10
	deviceInfoSize     = 20
	healthInfoSize     = 3

	// packetStart is the little endian PH field of every scan packet.
	packetStart = 0x55AA
)

var (
	ErrBadHeader      = errors.New("invalid response header")
	ErrUnexpectedType = errors.New("unexpected response type code")
	ErrChecksum       = errors.New("scan packet checksum mismatch")
	ErrUnknownModel   = errors.New("unknown lidar model")
	ErrDeviceHealth   = errors.New("device reports a problem")
)

// PacketType is the C bit of the CT field.
type PacketType uint8

const (
	// PointCloudPacket carries LSN samples.
	PointCloudPacket PacketType = 0
	// ZeroPacket marks the start of a revolution.
	ZeroPacket PacketType = 1
)

// Sample is one decoded reading.
type Sample struct {
	Angle     float64 // Corrected angle [deg], in [0, 360).
	Distance  float64 // [mm], 0 when there was no return.
	Intensity uint16
}

// Packet is one decoded scan packet.
type Packet struct {
	Type PacketType
	// FrequencyHz is only reported in zero packets.
	FrequencyHz float64
	FirstAngle  float64 // Uncorrected FSA [deg].
	LastAngle   float64 // Uncorrected LSA [deg].
	Samples     []Sample
}

// DeviceInfo contains the device model, firmware, hardware, and serial number.
type DeviceInfo struct {
	Model    byte     // Model number.
	Firmware [2]byte  // Firmware version.
	Hardware byte     // Hardware version.
	Serial   [16]byte // Serial number.
}

func (d DeviceInfo) String() string {
	name := fmt.Sprintf("model-%d", d.Model)
	if m, ok := ModelByCode(d.Model); ok {
		name = m.Name
	}
	var serial strings.Builder
	for _, b := range d.Serial {
		fmt.Fprintf(&serial, "%X", b)
	}
	return fmt.Sprintf("%s hardware %d firmware %d.%d serial %s",
		name, d.Hardware, d.Firmware[0], d.Firmware[1], serial.String())
}

// pointCloudHeader is the preamble for the point cloud data.
type pointCloudHeader struct {
	// PacketHeader is fixed at 0x55AA, low byte first.
	PacketHeader uint16

	// FrequencyAndPackageType bit0 is the packet type, bits 7:1 the scan
	// frequency in tenths of Hz (zero packets only).
	FrequencyAndPackageType uint8

	// SampleQuantity is the number of samples in the packet (LSN).
	SampleQuantity uint8

	// StartAngle is the raw angle of the first sample (FSA).
	StartAngle uint16

	// EndAngle is the raw angle of the last sample (LSA).
	EndAngle uint16

	// CheckCode is the XOR of every other 16-bit word in the packet (CS).
	CheckCode uint16
}
