// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package checkpoint

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// FileType of a checkpoint file, as sniffed from its first bytes.
type FileType int

const (
	// FileTypeUnknown is used when none of the known magic numbers matched.
	FileTypeUnknown FileType = iota

	// FileTypePickle is a legacy (pre 1.6) torch.save file: a raw pickle stream, protocol 2.
	FileTypePickle

	// FileTypeZip is a zip archive, the default torch.save format since PyTorch 1.6.
	FileTypeZip

	// FileTypeSafetensors is a ".safetensors" file: little-endian uint64 header length followed by a JSON header.
	FileTypeSafetensors
)

// String implements fmt.Stringer. The names follow the ones traditionally printed by ESRGAN tooling.
func (ft FileType) String() string {
	switch ft {
	case FileTypePickle:
		return "binary"
	case FileTypeZip:
		return "zip"
	case FileTypeSafetensors:
		return "safetensors"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler, used by the JSON and YAML reports.
func (ft FileType) MarshalText() ([]byte, error) {
	return []byte(ft.String()), nil
}

var (
	// pickleMagic is the PROTO opcode followed by protocol version 2.
	pickleMagic = []byte{0x80, 0x02}

	// zipMagic covers "PK\x03\x04", "PK\x05\x06" (empty archive) and "PK\x07\x08".
	zipMagic = []byte{'P', 'K'}
)

// maxSafetensorsHeader is a sanity bound for the header length of a ".safetensors" file: 100MB is the
// limit used by the reference implementation.
const maxSafetensorsHeader = 100 << 20

// DetectFileType reads at most 9 bytes from r and returns the file type.
//
// Files too short to hold any magic number are reported as FileTypeUnknown, not as an error.
func DetectFileType(r io.Reader) (FileType, error) {
	var buf [9]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FileTypeUnknown, errors.Wrap(err, "failed to read file magic number")
	}
	return detectFileType(buf[:n]), nil
}

func detectFileType(head []byte) FileType {
	switch {
	case bytes.HasPrefix(head, pickleMagic):
		return FileTypePickle
	case bytes.HasPrefix(head, zipMagic):
		return FileTypeZip
	case len(head) == 9 && head[8] == '{':
		headerLen := binary.LittleEndian.Uint64(head[:8])
		if headerLen >= 2 && headerLen <= maxSafetensorsHeader {
			return FileTypeSafetensors
		}
	}
	return FileTypeUnknown
}

// DetectFileTypeOfPath opens the file at path and calls DetectFileType.
func DetectFileTypeOfPath(path string) (FileType, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileTypeUnknown, errors.Wrapf(err, "failed to open %q", path)
	}
	defer func() { _ = f.Close() }()
	return DetectFileType(f)
}
