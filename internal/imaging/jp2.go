package imaging

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// JP2Dimensions reads the pixel width and height of a JPEG2000 file from
// the ihdr box inside the jp2h header superbox.
func JP2Dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open jp2: %w", err)
	}
	defer f.Close()

	header, err := findBox(f, "jp2h")
	if err != nil {
		return 0, 0, fmt.Errorf("read jp2 %q: %w", path, err)
	}
	ihdr, err := findBox(io.LimitReader(f, header), "ihdr")
	if err != nil {
		return 0, 0, fmt.Errorf("read jp2 %q: %w", path, err)
	}
	if ihdr < 8 {
		return 0, 0, fmt.Errorf("read jp2 %q: short ihdr box", path)
	}

	var dims [8]byte
	if _, err := io.ReadFull(f, dims[:]); err != nil {
		return 0, 0, fmt.Errorf("read jp2 %q: ihdr payload: %w", path, err)
	}
	height := binary.BigEndian.Uint32(dims[0:4])
	width := binary.BigEndian.Uint32(dims[4:8])
	return int(width), int(height), nil
}

// findBox scans consecutive boxes in r until one matches boxType,
// returning the payload length and leaving r positioned at the payload.
func findBox(r io.Reader, boxType string) (int64, error) {
	var head [8]byte
	for {
		if _, err := io.ReadFull(r, head[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return 0, fmt.Errorf("box %q not found", boxType)
			}
			return 0, err
		}

		length := int64(binary.BigEndian.Uint32(head[0:4]))
		payload := length - 8
		if length == 1 {
			var ext [8]byte
			if _, err := io.ReadFull(r, ext[:]); err != nil {
				return 0, err
			}
			payload = int64(binary.BigEndian.Uint64(ext[:])) - 16
		}
		if length == 0 {
			// Box extends to end of file.
			payload = int64(^uint64(0) >> 2)
		}
		if payload < 0 {
			return 0, fmt.Errorf("malformed box length %d", length)
		}

		if string(head[4:8]) == boxType {
			return payload, nil
		}
		if _, err := io.CopyN(io.Discard, r, payload); err != nil {
			return 0, fmt.Errorf("box %q not found", boxType)
		}
	}
}
