package testsupport

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"os"
	"testing"

	"golang.org/x/image/tiff"
)

// WriteTIFF writes a striped grayscale TIFF of the given dimensions.
func WriteTIFF(t *testing.T, path string, width, height int) {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) % 251)})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := tiff.Encode(f, img, nil); err != nil {
		t.Fatalf("encode tiff: %v", err)
	}
}

// WriteTiledTIFF writes a minimal little-endian TIFF whose IFD carries
// the TileWidth/TileLength tags. The pixel data is absent; the fixture
// only needs to satisfy tiling detection.
func WriteTiledTIFF(t *testing.T, path string, width, height int) {
	t.Helper()

	var buf bytes.Buffer
	le := binary.LittleEndian

	buf.WriteString("II")
	write16 := func(v uint16) {
		var b [2]byte
		le.PutUint16(b[:], v)
		buf.Write(b[:])
	}
	write32 := func(v uint32) {
		var b [4]byte
		le.PutUint32(b[:], v)
		buf.Write(b[:])
	}
	write16(42)
	write32(8)

	type entry struct {
		tag   uint16
		value uint16
	}
	entries := []entry{
		{256, uint16(width)},  // ImageWidth
		{257, uint16(height)}, // ImageLength
		{258, 8},              // BitsPerSample
		{322, 256},            // TileWidth
		{323, 256},            // TileLength
	}
	write16(uint16(len(entries)))
	for _, e := range entries {
		write16(e.tag)
		write16(3) // SHORT
		write32(1)
		write16(e.value)
		write16(0)
	}
	write32(0)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteJP2 writes a minimal JP2 container (signature, ftyp and jp2h/ihdr
// boxes) that encodes the given dimensions. There is no codestream; the
// fixture exists for header parsing.
func WriteJP2(t *testing.T, path string, width, height int) {
	t.Helper()

	var buf bytes.Buffer
	be := binary.BigEndian
	write32 := func(v uint32) {
		var b [4]byte
		be.PutUint32(b[:], v)
		buf.Write(b[:])
	}

	// JP2 signature box.
	write32(12)
	buf.WriteString("jP  ")
	write32(0x0D0A870A)

	// File type box.
	write32(20)
	buf.WriteString("ftyp")
	buf.WriteString("jp2 ")
	write32(0)
	buf.WriteString("jp2 ")

	// JP2 header superbox containing the image header box.
	write32(8 + 22)
	buf.WriteString("jp2h")
	write32(22)
	buf.WriteString("ihdr")
	write32(uint32(height))
	write32(uint32(width))
	buf.Write([]byte{0, 1}) // one component
	buf.WriteByte(7)        // 8-bit unsigned
	buf.WriteByte(7)        // wavelet compression
	buf.WriteByte(0)
	buf.WriteByte(0)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
