package ydlidar

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// parsePacketHeader unpacks the 10 byte scan packet header.
func parsePacketHeader(raw []byte) (pointCloudHeader, error) {
	var h pointCloudHeader
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("unpack scan header: %w", err)
	}
	if h.PacketHeader != packetStart {
		return h, fmt.Errorf("%w: packet start %#04x", ErrBadHeader, h.PacketHeader)
	}
	return h, nil
}

// checksum XORs the header words (minus CS) with every sample. 3-byte
// samples contribute the intensity byte zero-extended, then the distance word.
func checksum(h pointCloudHeader, samples []byte, sampleSize int) uint16 {
	cs := h.PacketHeader ^ h.StartAngle ^ h.EndAngle ^
		(uint16(h.FrequencyAndPackageType) | uint16(h.SampleQuantity)<<8)
	for i := 0; i+sampleSize <= len(samples); i += sampleSize {
		s := samples[i : i+sampleSize]
		if sampleSize == 3 {
			cs ^= uint16(s[0])
			s = s[1:]
		}
		cs ^= binary.LittleEndian.Uint16(s)
	}
	return cs
}

// decodePacket validates and decodes one scan packet for model m.
func decodePacket(h pointCloudHeader, samples []byte, m Model) (Packet, error) {
	n := int(h.SampleQuantity)
	if len(samples) != n*m.SampleSize {
		return Packet{}, fmt.Errorf("scan packet: expected %d sample bytes, got %d", n*m.SampleSize, len(samples))
	}
	if cs := checksum(h, samples, m.SampleSize); cs != h.CheckCode {
		return Packet{}, fmt.Errorf("%w: computed %#04x, packet says %#04x", ErrChecksum, cs, h.CheckCode)
	}

	p := Packet{
		Type:       PacketType(h.FrequencyAndPackageType & 0x01),
		FirstAngle: rawAngle(h.StartAngle),
		LastAngle:  rawAngle(h.EndAngle),
		Samples:    make([]Sample, n),
	}
	if p.Type == ZeroPacket {
		p.FrequencyHz = float64(h.FrequencyAndPackageType>>1) / 10
	}

	diff := p.LastAngle - p.FirstAngle
	if diff < 0 {
		diff += 360
	}

	for i := 0; i < n; i++ {
		raw := samples[i*m.SampleSize : (i+1)*m.SampleSize]
		var s Sample
		if m.HasIntensity() {
			s.Distance = float64(g2Distance(raw))
			s.Intensity = g2Intensity(raw)
		} else {
			s.Distance = float64(binary.LittleEndian.Uint16(raw)) / 4
		}

		angle := p.FirstAngle
		if n > 1 {
			angle += diff / float64(n-1) * float64(i)
		}
		s.Angle = normalizeDegrees(angle + angleCorrection(s.Distance))
		p.Samples[i] = s
	}
	return p, nil
}

// rawAngle converts an FSA/LSA word to degrees. Bit 0 is a check bit.
func rawAngle(v uint16) float64 {
	return float64(v>>1) / 64
}

// g2Distance is Lshiftbit(S3, 6) + Rshiftbit(S2, 2), in mm.
func g2Distance(s []byte) uint16 {
	return uint16(s[2])<<6 + uint16(s[1])>>2
}

// g2Intensity is S1 plus the low two bits of S2 as the high byte.
func g2Intensity(s []byte) uint16 {
	return uint16(s[0]) + uint16(s[1]&0x3)*256
}

// angleCorrection is the second level angle correction for a distance in mm.
func angleCorrection(dist float64) float64 {
	if dist == 0 {
		return 0
	}
	return 180 / math.Pi * math.Atan(21.8*(155.3-dist)/(155.3*dist))
}

func normalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
