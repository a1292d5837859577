package ydlidar

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepakkamesh/scanmarker/ydlidar/mocks"
)

// serve returns a Read implementation that hands out stream in order.
func serve(stream []byte) func([]byte) (int, error) {
	return func(p []byte) (int, error) {
		n := copy(p, stream)
		stream = stream[n:]
		return n, nil
	}
}

func TestHealth(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	mockSerial := mocks.NewMockPort(mockCtrl)
	lidar := NewLidar(mockSerial, G2, nil)

	mockSerial.EXPECT().Write([]byte{preCommand, healthStatus}).Return(2, nil).Times(1)
	response := []byte{0xA5, 0x5A, 0x3, 0, 0, 0, 0x6, 0, 0, 0}
	mockSerial.EXPECT().Read(gomock.Any()).DoAndReturn(serve(response)).AnyTimes()

	assert.NoError(t, lidar.Health(context.Background()))
}

func TestHealthDeviceProblem(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	mockSerial := mocks.NewMockPort(mockCtrl)
	lidar := NewLidar(mockSerial, G2, nil)

	mockSerial.EXPECT().Write([]byte{preCommand, healthStatus}).Return(2, nil).Times(1)
	response := []byte{0xA5, 0x5A, 0x3, 0, 0, 0, 0x6, 0x2, 0x01, 0x80}
	mockSerial.EXPECT().Read(gomock.Any()).DoAndReturn(serve(response)).AnyTimes()

	err := lidar.Health(context.Background())
	assert.ErrorIs(t, err, ErrDeviceHealth)
	assert.Contains(t, err.Error(), "0x8001")
}

func TestHealthWrongType(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	mockSerial := mocks.NewMockPort(mockCtrl)
	lidar := NewLidar(mockSerial, G2, nil)

	mockSerial.EXPECT().Write(gomock.Any()).Return(2, nil).Times(1)
	response := []byte{0xA5, 0x5A, 0x3, 0, 0, 0, InfoTypeCode}
	mockSerial.EXPECT().Read(gomock.Any()).DoAndReturn(serve(response)).AnyTimes()

	assert.ErrorIs(t, lidar.Health(context.Background()), ErrUnexpectedType)
}

func TestDeviceInfo(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	mockSerial := mocks.NewMockPort(mockCtrl)
	lidar := NewLidar(mockSerial, G2, nil)

	mockSerial.EXPECT().Write([]byte{preCommand, deviceInfo}).Return(2, nil).Times(1)
	response := []byte{0xA5, 0x5A, 0x14, 0, 0, 0, 0x4, 15, 1, 3, 2}
	response = append(response, 2, 0, 1, 9, 0, 6, 2, 4, 0, 0, 0, 0, 0, 0, 1, 7)
	mockSerial.EXPECT().Read(gomock.Any()).DoAndReturn(serve(response)).AnyTimes()

	info, err := lidar.DeviceInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(15), info.Model)
	assert.Equal(t, [2]byte{1, 3}, info.Firmware)
	assert.Equal(t, byte(2), info.Hardware)
	assert.Equal(t, "G2 hardware 2 firmware 1.3 serial 2019062400000017", info.String())
}

func TestStopScan(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	mockSerial := mocks.NewMockPort(mockCtrl)
	lidar := NewLidar(mockSerial, G2, nil)

	gomock.InOrder(
		mockSerial.EXPECT().Write([]byte{preCommand, stopScanning}).Return(2, nil),
		mockSerial.EXPECT().SetDTR(false).Return(nil),
		mockSerial.EXPECT().ResetInputBuffer().Return(nil),
	)

	assert.NoError(t, lidar.StopScan())
}

func TestScanRejectsWrongMode(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	mockSerial := mocks.NewMockPort(mockCtrl)
	lidar := NewLidar(mockSerial, G2, nil)

	mockSerial.EXPECT().SetDTR(true).Return(nil).Times(1)
	mockSerial.EXPECT().Write([]byte{preCommand, startScanning}).Return(2, nil).Times(1)
	// Single response mode instead of continuous.
	response := []byte{0xA5, 0x5A, 0x5, 0, 0, 0x00, 0x81}
	mockSerial.EXPECT().Read(gomock.Any()).DoAndReturn(serve(response)).AnyTimes()

	err := lidar.Scan(context.Background(), make(chan Packet, 1))
	assert.ErrorIs(t, err, ErrBadHeader)
}

// capture builds a start scan response followed by one revolution.
func capture(m Model) []byte {
	out := []byte{0xA5, 0x5A, 0x5, 0, 0, 0x40, 0x81}
	out = append(out, encodePacket(m, ZeroPacket, 70, 0, 0, []uint16{0}, nil)...)
	out = append(out, encodePacket(m, PointCloudPacket, 0, 10, 20, []uint16{1000, 1100, 1200}, nil)...)
	// Garbage between packets is skipped by the header sync.
	out = append(out, 0x00, 0x13)
	out = append(out, encodePacket(m, PointCloudPacket, 0, 30, 40, []uint16{1300, 0, 1500}, nil)...)
	return out
}

func TestScanReplay(t *testing.T) {
	port, err := NewReplayPort(capture(G2), G2, 0)
	require.NoError(t, err)
	lidar := NewLidar(port, G2, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	packets := make(chan Packet)
	done := make(chan error, 1)
	go func() { done <- lidar.Scan(ctx, packets) }()

	var got []Packet
	for len(got) < 6 {
		select {
		case p := <-packets:
			got = append(got, p)
		case <-ctx.Done():
			t.Fatalf("timed out after %d packets", len(got))
		}
	}
	cancel()
	require.NoError(t, <-done)

	// The capture loops: zero, point, point, zero, point, point.
	types := []PacketType{ZeroPacket, PointCloudPacket, PointCloudPacket, ZeroPacket, PointCloudPacket, PointCloudPacket}
	for i, p := range got {
		assert.Equal(t, types[i], p.Type, "packet %d", i)
	}
	assert.Len(t, got[1].Samples, 3)
	assert.Equal(t, float64(1300), got[2].Samples[0].Distance)
}

func TestScanDropsBadChecksum(t *testing.T) {
	data := capture(G2)
	// Corrupt the last sample byte of the second point packet.
	data[len(data)-1] ^= 0xFF

	port, err := NewReplayPort(data, G2, 0)
	require.NoError(t, err)
	lidar := NewLidar(port, G2, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	packets := make(chan Packet)
	done := make(chan error, 1)
	go func() { done <- lidar.Scan(ctx, packets) }()

	var got []Packet
	for len(got) < 4 {
		select {
		case p := <-packets:
			got = append(got, p)
		case <-ctx.Done():
			t.Fatalf("timed out after %d packets", len(got))
		}
	}
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, ZeroPacket, got[2].Type)
	assert.GreaterOrEqual(t, lidar.Dropped(), uint64(1))
}
