package replserver

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/replicad/internal/logging"
)

// Compressor wraps the replication wire format with zstd framing for
// transport. The engine itself never compresses — Write/Read trade in
// raw bound buffers (§6) — so this lives entirely at the host layer.
type Compressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCompressor builds a low-latency zstd codec tuned for small,
// frequent replication frames rather than bulk throughput.
func NewCompressor() (*Compressor, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("failed to create decompressor: %w", err)
	}
	return &Compressor{encoder: enc, decoder: dec}, nil
}

// Frame compresses the written portion of a Write buffer for sending
// over the wire.
func (c *Compressor) Frame(buf []byte) []byte {
	return c.encoder.EncodeAll(buf, nil)
}

// Unframe decompresses a frame back into a buffer suitable for Read.
func (c *Compressor) Unframe(frame []byte) ([]byte, error) {
	out, err := c.decoder.DecodeAll(frame, nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}
	return out, nil
}

// Close releases the codec's resources.
func (c *Compressor) Close() {
	c.encoder.Close()
	c.decoder.Close()
}

// WriteFrame runs World.Write for owner into a scratch buffer of
// bufSize bytes (64 KiB when <= 0) and returns the zstd-framed result
// ready for the caller's transport, plus the engine's shortfall
// estimate. A non-zero shortfall means the caller should retry with a
// larger bufSize to drain the remainder.
func (h *Host) WriteFrame(owner int64, bufSize int, userData interface{}) ([]byte, int, error) {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	buf := make([]byte, bufSize)
	n, shortfall, status := h.World.Write(owner, buf, userData)
	if status.IsError() {
		return nil, 0, status.Err()
	}
	logging.LogFrame(owner, "WRITE", buf[:n])
	return h.compressor.Frame(buf[:n]), shortfall, nil
}

// ReadFrame unframes a peer's compressed frame and applies it via
// World.Read, returning the engine's residual byte count.
func (h *Host) ReadFrame(owner int64, frame []byte, userData interface{}) (int, error) {
	raw, err := h.compressor.Unframe(frame)
	if err != nil {
		return 0, err
	}
	logging.LogFrame(owner, "READ", raw)
	residual, status := h.World.Read(owner, raw, userData)
	if status.IsError() {
		logging.LogFramingError(owner, status.String(), raw)
		return residual, status.Err()
	}
	return residual, nil
}
