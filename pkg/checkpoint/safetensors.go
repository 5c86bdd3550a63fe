// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package checkpoint

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"slices"

	"github.com/pkg/errors"
)

const safetensorsMetadataKey = "__metadata__"

type safetensorsTensorInfo struct {
	DTypeName  string   `json:"dtype"`
	Dimensions []int    `json:"shape"`
	Offsets    []uint64 `json:"data_offsets"`

	// Name is filled later, with the key to the tensor.
	Name string `json:"-"`
}

// loadSafetensors reads only the header of a ".safetensors" file, returning its tensors ordered by their
// offset in the file, which is the order they were saved.
func loadSafetensors(path string) (*Dict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %q", path)
	}
	defer func() { _ = f.Close() }()
	d, err := parseSafetensorsHeader(bufio.NewReader(f))
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to decode %q", path)
	}
	return d, nil
}

func parseSafetensorsHeader(r io.Reader) (*Dict, error) {
	var headerLen uint64
	if err := binary.Read(r, binary.LittleEndian, &headerLen); err != nil {
		return nil, errors.Wrapf(ErrUnparseable, "failed to read safetensors header length: %v", err)
	}
	if headerLen > maxSafetensorsHeader {
		return nil, errors.Wrapf(ErrUnparseable, "safetensors header length %d is larger than the limit %d",
			headerLen, maxSafetensorsHeader)
	}
	headerBuf := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, errors.Wrapf(ErrUnparseable, "failed to read safetensors header: %v", err)
	}
	var header map[string]json.RawMessage
	if err := json.Unmarshal(headerBuf, &header); err != nil {
		return nil, errors.Wrapf(ErrUnparseable, "failed to parse json from safetensors header: %v", err)
	}

	infos := make([]*safetensorsTensorInfo, 0, len(header))
	for name, raw := range header {
		if name == safetensorsMetadataKey {
			continue
		}
		info := &safetensorsTensorInfo{Name: name}
		if err := json.Unmarshal(raw, info); err != nil {
			return nil, errors.Wrapf(ErrUnparseable, "invalid safetensors header entry %q: %v", name, err)
		}
		if len(info.Offsets) != 2 || info.Offsets[1] < info.Offsets[0] {
			return nil, errors.Wrapf(ErrUnparseable, "offsets in header[%q][\"data_offsets\"] invalid, "+
				"expected [start, end] but got %v instead", name, info.Offsets)
		}
		if info.Dimensions == nil {
			info.Dimensions = []int{}
		}
		infos = append(infos, info)
	}
	slices.SortFunc(infos, func(a, b *safetensorsTensorInfo) int {
		if a.Offsets[0] != b.Offsets[0] {
			if a.Offsets[0] < b.Offsets[0] {
				return -1
			}
			return 1
		}
		if a.Name < b.Name {
			return -1
		} else if a.Name > b.Name {
			return 1
		}
		return 0
	})

	d := NewDict(ContainerOrderedDict)
	for _, info := range infos {
		d.AddTensor(info.Name, info.Dimensions...)
	}
	return d, nil
}
