package imaging

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"golang.org/x/image/tiff"
)

const tagTileWidth = 322

// TIFFDimensions reads the pixel width and height of a TIFF file from its
// ImageWidth/ImageLength tags.
func TIFFDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open tiff: %w", err)
	}
	defer f.Close()

	cfg, err := tiff.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode tiff %q: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// IsTiledTIFF reports whether the first IFD of a TIFF file declares a
// tiled layout (TileWidth tag present).
func IsTiledTIFF(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open tiff: %w", err)
	}
	defer f.Close()

	var header [8]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		return false, fmt.Errorf("read tiff header: %w", err)
	}

	var order binary.ByteOrder
	switch string(header[0:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return false, fmt.Errorf("%q is not a tiff file", path)
	}
	if order.Uint16(header[2:4]) != 42 {
		return false, fmt.Errorf("%q is not a tiff file", path)
	}

	ifdOffset := order.Uint32(header[4:8])
	if _, err := f.Seek(int64(ifdOffset), io.SeekStart); err != nil {
		return false, fmt.Errorf("seek ifd: %w", err)
	}

	var countBuf [2]byte
	if _, err := io.ReadFull(f, countBuf[:]); err != nil {
		return false, fmt.Errorf("read ifd entry count: %w", err)
	}
	count := order.Uint16(countBuf[:])

	entry := make([]byte, 12)
	for i := 0; i < int(count); i++ {
		if _, err := io.ReadFull(f, entry); err != nil {
			return false, fmt.Errorf("read ifd entry: %w", err)
		}
		if order.Uint16(entry[0:2]) == tagTileWidth {
			return true, nil
		}
	}
	return false, nil
}
