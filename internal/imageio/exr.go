package imageio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/kdpath/tracer/internal/geom"
)

// magic and version identify an uncompressed, single-part scanline OpenEXR
// file (version field 2, no tile/long-name/deep-data/multipart flag bits).
var (
	exrMagic   = [4]byte{0x76, 0x2f, 0x31, 0x01}
	exrVersion = uint32(2)
)

// WriteHalfEXR writes pixels (row-major, width*height long, linear color,
// not tone-mapped) as a 3-channel (R, G, B) half-float scanline image to
// path. Compression is always NO_COMPRESSION: the renderer already spends
// its time in the integrator, not in the image writer, and an
// uncompressed file keeps the encoder a few dozen lines instead of a
// wavelet/zlib pipeline.
func WriteHalfEXR(path string, width, height int, pixels []geom.Vec3) error {
	if len(pixels) != width*height {
		return fmt.Errorf("imageio: pixel count %d does not match %dx%d", len(pixels), width, height)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageio: create %q: %w", path, err)
	}
	defer f.Close()
	if err := writeHalfEXR(f, width, height, pixels); err != nil {
		return fmt.Errorf("imageio: write %q: %w", path, err)
	}
	return nil
}

// channel order is alphabetical by name, as required for chlist and for
// scanline pixel data: B, G, R.
type exrChannel struct{ name string }

var exrChannels = [3]exrChannel{{"B"}, {"G"}, {"R"}}

func writeHalfEXR(w io.Writer, width, height int, pixels []geom.Vec3) error {
	bw := &byteWriter{w: w}

	bw.write(exrMagic[:])
	bw.writeU32(exrVersion)

	writeAttr(bw, "channels", "chlist", chlistBytes())
	writeAttr(bw, "compression", "compression", []byte{0}) // NO_COMPRESSION
	writeAttr(bw, "dataWindow", "box2i", box2iBytes(0, 0, width-1, height-1))
	writeAttr(bw, "displayWindow", "box2i", box2iBytes(0, 0, width-1, height-1))
	writeAttr(bw, "lineOrder", "lineOrder", []byte{0}) // INCREASING_Y
	writeAttr(bw, "pixelAspectRatio", "float", f32Bytes(1))
	writeAttr(bw, "screenWindowCenter", "v2f", append(f32Bytes(0), f32Bytes(0)...))
	writeAttr(bw, "screenWindowWidth", "float", f32Bytes(1))
	bw.write([]byte{0}) // end of header

	rowBytes := width * 2 * len(exrChannels)
	chunkBytes := int64(4 + 4 + rowBytes) // y, dataSize, pixel data
	offsetTableStart := bw.n
	headerEnd := offsetTableStart + int64(height)*8

	for y := 0; y < height; y++ {
		bw.writeU64(uint64(headerEnd + int64(y)*chunkBytes))
	}

	for y := 0; y < height; y++ {
		bw.writeI32(int32(y))
		bw.writeI32(int32(rowBytes))
		for _, ch := range exrChannels {
			for x := 0; x < width; x++ {
				p := pixels[y*width+x]
				bw.writeU16(f32to16(channelValue(ch.name, p)))
			}
		}
	}

	return bw.err
}

func channelValue(name string, p geom.Vec3) float32 {
	switch name {
	case "R":
		return p.X
	case "G":
		return p.Y
	default:
		return p.Z
	}
}

func chlistBytes() []byte {
	var b []byte
	for _, ch := range exrChannels {
		b = append(b, []byte(ch.name)...)
		b = append(b, 0)
		b = append(b, u32Bytes(1)...)    // pixelType = HALF
		b = append(b, 0, 0, 0, 0)        // pLinear + 3 reserved bytes
		b = append(b, u32Bytes(1)...)    // xSampling
		b = append(b, u32Bytes(1)...)    // ySampling
	}
	b = append(b, 0) // terminator
	return b
}

func box2iBytes(xMin, yMin, xMax, yMax int) []byte {
	var b []byte
	for _, v := range []int32{int32(xMin), int32(yMin), int32(xMax), int32(yMax)} {
		b = append(b, u32Bytes(uint32(v))...)
	}
	return b
}

func f32Bytes(f float32) []byte { return u32Bytes(math.Float32bits(f)) }

func u32Bytes(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// writeAttr emits one header attribute: name, type, size, then data,
// exactly the layout OpenEXR's header attribute list uses.
func writeAttr(bw *byteWriter, name, typ string, data []byte) {
	bw.write([]byte(name))
	bw.write([]byte{0})
	bw.write([]byte(typ))
	bw.write([]byte{0})
	bw.writeU32(uint32(len(data)))
	bw.write(data)
}

// byteWriter accumulates the first write error so the call sites above
// read as straight-line code instead of threading err through every call.
type byteWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (bw *byteWriter) write(b []byte) {
	if bw.err != nil {
		return
	}
	n, err := bw.w.Write(b)
	bw.n += int64(n)
	bw.err = err
}

func (bw *byteWriter) writeU16(v uint16) {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	bw.write(b)
}

func (bw *byteWriter) writeU32(v uint32) { bw.write(u32Bytes(v)) }
func (bw *byteWriter) writeI32(v int32)  { bw.write(u32Bytes(uint32(v))) }

func (bw *byteWriter) writeU64(v uint64) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	bw.write(b)
}
