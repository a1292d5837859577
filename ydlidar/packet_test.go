package ydlidar

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawFromDegrees encodes an angle as an FSA/LSA word with the check bit set.
func rawFromDegrees(deg float64) uint16 {
	return uint16(math.Round(deg*64))<<1 | 1
}

// encodeSamples packs distances [mm] and intensities for model m.
func encodeSamples(m Model, dists []uint16, intensities []uint16) []byte {
	out := make([]byte, 0, len(dists)*m.SampleSize)
	for i, d := range dists {
		if m.HasIntensity() {
			var in uint16
			if i < len(intensities) {
				in = intensities[i]
			}
			out = append(out, byte(in), byte(in>>8)&0x3|byte(d&0x3F)<<2, byte(d>>6))
			continue
		}
		out = binary.LittleEndian.AppendUint16(out, d*4)
	}
	return out
}

// encodePacket builds a complete scan packet with a valid checksum.
func encodePacket(m Model, typ PacketType, freqTenths uint8, first, last float64, dists, intensities []uint16) []byte {
	h := pointCloudHeader{
		PacketHeader:            packetStart,
		FrequencyAndPackageType: freqTenths<<1 | uint8(typ),
		SampleQuantity:          uint8(len(dists)),
		StartAngle:              rawFromDegrees(first),
		EndAngle:                rawFromDegrees(last),
	}
	samples := encodeSamples(m, dists, intensities)
	h.CheckCode = checksum(h, samples, m.SampleSize)

	out := binary.LittleEndian.AppendUint16(nil, h.PacketHeader)
	out = append(out, h.FrequencyAndPackageType, h.SampleQuantity)
	out = binary.LittleEndian.AppendUint16(out, h.StartAngle)
	out = binary.LittleEndian.AppendUint16(out, h.EndAngle)
	out = binary.LittleEndian.AppendUint16(out, h.CheckCode)
	return append(out, samples...)
}

func decodeRaw(t *testing.T, m Model, raw []byte) (Packet, error) {
	t.Helper()
	h, err := parsePacketHeader(raw[:scanHeaderSize])
	require.NoError(t, err)
	return decodePacket(h, raw[scanHeaderSize:], m)
}

func TestDecodePacketG2(t *testing.T) {
	raw := encodePacket(G2, PointCloudPacket, 0, 10, 20, []uint16{1000, 0, 2000}, []uint16{356, 0, 7})

	p, err := decodeRaw(t, G2, raw)
	require.NoError(t, err)

	assert.Equal(t, PointCloudPacket, p.Type)
	assert.InDelta(t, 10, p.FirstAngle, 0.02)
	assert.InDelta(t, 20, p.LastAngle, 0.02)
	require.Len(t, p.Samples, 3)

	assert.Equal(t, float64(1000), p.Samples[0].Distance)
	assert.Equal(t, uint16(356), p.Samples[0].Intensity)
	assert.InDelta(t, 10+angleCorrection(1000), p.Samples[0].Angle, 0.02)

	// No return: no correction applied.
	assert.Equal(t, float64(0), p.Samples[1].Distance)
	assert.InDelta(t, 15, p.Samples[1].Angle, 0.02)

	assert.Equal(t, float64(2000), p.Samples[2].Distance)
	assert.Equal(t, uint16(7), p.Samples[2].Intensity)
}

// Hand-assembled frames with the check code worked out from the
// development manual, independent of checksum().
var (
	// 10 deg, one sample: intensity 356, 1000 mm.
	g2Frame = []byte{0xAA, 0x55, 0x00, 0x01, 0x01, 0x05, 0x01, 0x05, 0x6F, 0x5B, 0x64, 0xA1, 0x0F}
	// 10 to 20 deg, samples 1000 mm and 2000 mm.
	x4Frame = []byte{0xAA, 0x55, 0x00, 0x02, 0x01, 0x05, 0x01, 0x0A, 0x4A, 0x48, 0xA0, 0x0F, 0x40, 0x1F}
)

func TestDecodeKnownG2Frame(t *testing.T) {
	p, err := decodeRaw(t, G2, g2Frame)
	require.NoError(t, err)
	require.Len(t, p.Samples, 1)
	assert.Equal(t, float64(1000), p.Samples[0].Distance)
	assert.Equal(t, uint16(356), p.Samples[0].Intensity)
	assert.InDelta(t, 10, p.FirstAngle, 1e-9)
	assert.Equal(t, g2Frame, encodePacket(G2, PointCloudPacket, 0, 10, 10, []uint16{1000}, []uint16{356}))
}

func TestDecodeKnownX4Frame(t *testing.T) {
	p, err := decodeRaw(t, X4, x4Frame)
	require.NoError(t, err)
	require.Len(t, p.Samples, 2)
	assert.Equal(t, float64(1000), p.Samples[0].Distance)
	assert.Equal(t, float64(2000), p.Samples[1].Distance)
	assert.InDelta(t, 10, p.FirstAngle, 1e-9)
	assert.InDelta(t, 20, p.LastAngle, 1e-9)
	assert.Equal(t, x4Frame, encodePacket(X4, PointCloudPacket, 0, 10, 20, []uint16{1000, 2000}, nil))
}

func TestDecodePacketX4(t *testing.T) {
	raw := encodePacket(X4, PointCloudPacket, 0, 100, 101, []uint16{155, 4000}, nil)

	p, err := decodeRaw(t, X4, raw)
	require.NoError(t, err)
	require.Len(t, p.Samples, 2)
	assert.Equal(t, float64(155), p.Samples[0].Distance)
	assert.Equal(t, float64(4000), p.Samples[1].Distance)
	assert.Zero(t, p.Samples[1].Intensity)
}

func TestDecodeZeroPacket(t *testing.T) {
	raw := encodePacket(G2, ZeroPacket, 70, 0, 0, []uint16{0}, nil)

	p, err := decodeRaw(t, G2, raw)
	require.NoError(t, err)
	assert.Equal(t, ZeroPacket, p.Type)
	assert.InDelta(t, 7.0, p.FrequencyHz, 1e-9)
}

func TestDecodePacketWrapsAngles(t *testing.T) {
	raw := encodePacket(G2, PointCloudPacket, 0, 350, 10, []uint16{0, 0, 0}, nil)

	p, err := decodeRaw(t, G2, raw)
	require.NoError(t, err)
	assert.InDelta(t, 350, p.Samples[0].Angle, 0.02)
	assert.InDelta(t, 0, p.Samples[1].Angle, 0.02)
	assert.InDelta(t, 10, p.Samples[2].Angle, 0.02)
}

func TestDecodePacketBadChecksum(t *testing.T) {
	raw := encodePacket(G2, PointCloudPacket, 0, 10, 20, []uint16{1000, 2000}, nil)
	raw[len(raw)-1] ^= 0xFF

	_, err := decodeRaw(t, G2, raw)
	assert.True(t, errors.Is(err, ErrChecksum), "got %v", err)
}

func TestParsePacketHeaderBadStart(t *testing.T) {
	raw := make([]byte, scanHeaderSize)
	_, err := parsePacketHeader(raw)
	assert.ErrorIs(t, err, ErrBadHeader)
}

func TestNormalizeDegrees(t *testing.T) {
	assert.InDelta(t, 359, normalizeDegrees(-1), 1e-9)
	assert.InDelta(t, 1, normalizeDegrees(361), 1e-9)
	assert.InDelta(t, 0, normalizeDegrees(360), 1e-9)
}
