package imageio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/kdpath/tracer/internal/geom"
)

func TestWriteHalfEXRHeader(t *testing.T) {
	pixels := make([]geom.Vec3, 2*2)
	for i := range pixels {
		pixels[i] = geom.Vec3{X: 1, Y: 0.5, Z: 0.25}
	}

	var buf bytes.Buffer
	if err := writeHalfEXR(&buf, 2, 2, pixels); err != nil {
		t.Fatalf("writeHalfEXR: %v", err)
	}

	data := buf.Bytes()
	if !bytes.Equal(data[:4], exrMagic[:]) {
		t.Fatalf("bad magic: %x", data[:4])
	}
	if binary.LittleEndian.Uint32(data[4:8]) != exrVersion {
		t.Fatalf("bad version: %x", data[4:8])
	}
}

func TestWriteHalfEXRRejectsSizeMismatch(t *testing.T) {
	err := WriteHalfEXR(t.TempDir()+"/out.exr", 4, 4, make([]geom.Vec3, 3))
	if err == nil {
		t.Fatal("expected an error for mismatched pixel count")
	}
}
