package camera

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"

	"github.com/kris2475/Image-Classification-using-TinyML/internal/logger"
	"github.com/kris2475/Image-Classification-using-TinyML/pkg/types"
)

// Serial bridge protocol: ASCII-framed packets over USB-CDC, matching the
// camera firmware. Every packet is "   #" + 4 hex digits of length + a
// 4-char type, then the payload and a 4-byte CRC trailer.
const (
	packetMagic  = "   #"
	packetFrame  = "GFRA" // RGB565 frame payload
	packetAck    = "WACK" // register write acknowledgement
	regGain      = 0xB4
	regExposure  = 0xB5
	regFrameMode = 0xB1
	modeStream   = 0x02

	serialReadTimeout = 2 * time.Second
)

// SerialSource acquires RGB565 frames from the camera firmware over a
// USB-CDC serial bridge. The baud rate is irrelevant for CDC devices.
type SerialSource struct {
	port   serial.Port
	width  int
	height int
	seq    uint64
}

// OpenSerial opens the named port, applies the fixed sensor calibration
// and switches the firmware into continuous streaming.
func OpenSerial(portName string, width, height int, tuning Tuning) (*SerialSource, error) {
	port, err := serial.Open(portName, &serial.Mode{})
	if err != nil {
		return nil, fmt.Errorf("failed to open camera port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	s := &SerialSource{port: port, width: width, height: height}

	// Calibration registers must match what the model was trained under.
	for _, w := range []struct {
		reg   uint8
		value uint8
	}{
		{regGain, uint8(tuning.Gain)},
		{regExposure, uint8(tuning.Exposure / 4)}, // firmware takes exposure/4
		{regFrameMode, modeStream},
	} {
		if err := s.writeRegister(w.reg, w.value); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to configure sensor: %w", err)
		}
	}

	logger.Info("Camera", "Serial camera on %s streaming %dx%d (gain=%d exposure=%d)",
		portName, width, height, tuning.Gain, tuning.Exposure)
	return s, nil
}

// Acquire reads packets until a frame arrives or the port's read window
// elapses, then copies the payload into a pooled buffer.
func (s *SerialSource) Acquire() (*types.RawFrame, error) {
	if s.port == nil {
		return nil, fmt.Errorf("serial port not open")
	}

	deadline := time.Now().Add(serialReadTimeout)
	for {
		if time.Now().After(deadline) {
			return nil, ErrNoFrame
		}
		packetType, data, err := s.readPacket()
		if err != nil {
			return nil, fmt.Errorf("failed to read packet: %w", err)
		}
		if packetType != packetFrame {
			continue
		}

		// Firmware may prepend telemetry rows; the frame proper is the
		// trailing width*height words.
		want := s.width * s.height * 2
		if len(data) < want {
			return nil, fmt.Errorf("short frame: %d bytes (of %d expected)", len(data), want)
		}
		payload := data[len(data)-want:]

		frame := getFrame(s.width, s.height)
		copy(frame.Pix, payload)
		frame.Timestamp = time.Now()
		s.seq++
		frame.FrameNum = s.seq
		return frame, nil
	}
}

// Release returns the frame buffer to the pool.
func (s *SerialSource) Release(f *types.RawFrame) { putFrame(f) }

// Close stops the port. The firmware keeps streaming until power-down;
// leftover packets are discarded by the OS.
func (s *SerialSource) Close() error {
	if s.port != nil {
		err := s.port.Close()
		s.port = nil
		return err
	}
	return nil
}

func (s *SerialSource) writeRegister(reg uint8, value uint8) error {
	cmd := fmt.Sprintf("WREG%02X%02X", reg, value)
	framed := fmt.Sprintf("%s%04X%s", packetMagic, len(cmd), cmd)
	if _, err := s.port.Write([]byte(framed)); err != nil {
		return fmt.Errorf("failed to write register %02X: %w", reg, err)
	}

	// Drain packets until the firmware acknowledges the write.
	for {
		packetType, _, err := s.readPacket()
		if err != nil {
			return fmt.Errorf("no acknowledgement for register %02X: %w", reg, err)
		}
		if packetType == packetAck {
			return nil
		}
	}
}

func (s *SerialSource) readPacket() (packetType string, data []byte, err error) {
	header := make([]byte, 12)
	for string(header[:4]) != packetMagic {
		if _, err = io.ReadFull(s.port, header); err != nil {
			return "", nil, fmt.Errorf("failed to read header: %w", err)
		}
	}

	packetType = string(header[8:12])
	rawLen, err := hex.DecodeString(string(header[4:8]))
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode packet length: %w", err)
	}
	dataLength := int(binary.BigEndian.Uint16(rawLen))

	data = make([]byte, dataLength)
	if _, err = io.ReadFull(s.port, data); err != nil {
		return "", nil, fmt.Errorf("failed to read payload: %w", err)
	}

	crc := make([]byte, 4)
	if _, err = io.ReadFull(s.port, crc); err != nil {
		return "", nil, fmt.Errorf("failed to read CRC: %w", err)
	}
	// TODO verify CRC once the firmware starts filling the trailer

	return packetType, data, nil
}

var _ Source = (*SerialSource)(nil)
