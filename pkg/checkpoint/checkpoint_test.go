// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package checkpoint

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDetectFileType(t *testing.T) {
	safetensorsHead := make([]byte, 9)
	binary.LittleEndian.PutUint64(safetensorsHead, 64)
	safetensorsHead[8] = '{'
	hugeHead := bytes.Clone(safetensorsHead)
	binary.LittleEndian.PutUint64(hugeHead, 1<<40)

	testCases := []struct {
		name string
		data []byte
		want FileType
	}{
		{"pickle", []byte{0x80, 0x02, 0x8a, 0x0a, 0x6c}, FileTypePickle},
		{"zip", []byte("PK\x03\x04rest of the archive"), FileTypeZip},
		{"empty zip", []byte("PK\x05\x06"), FileTypeZip},
		{"safetensors", safetensorsHead, FileTypeSafetensors},
		{"safetensors header too large", hugeHead, FileTypeUnknown},
		{"text", []byte("hello world"), FileTypeUnknown},
		{"pickle protocol 4", []byte{0x80, 0x04, 0x95}, FileTypeUnknown},
		{"single byte", []byte{0x80}, FileTypeUnknown},
		{"empty", nil, FileTypeUnknown},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DetectFileType(bytes.NewReader(tc.data))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
	assert.Equal(t, "binary", FileTypePickle.String())
	assert.Equal(t, "zip", FileTypeZip.String())
	assert.Equal(t, "unknown", FileTypeUnknown.String())
}

func TestDict(t *testing.T) {
	d := NewDict(ContainerOrderedDict)
	d.AddTensor("model.0.weight", 64, 3, 3, 3)
	d.AddTensor("model.0.bias", 64)
	d.Add(&Entry{Key: "step", Value: "10", ValueType: "int"})
	assert.Equal(t, []string{"model.0.weight", "model.0.bias", "step"}, d.Keys())
	assert.Equal(t, 3, d.Len())
	assert.False(t, d.AllTensors())
	assert.Equal(t, int64(64*27+64), d.NumParameters())

	e, found := d.Get("model.0.bias")
	require.True(t, found)
	assert.True(t, e.HasShape(64))
	assert.False(t, e.HasShape(64, 1))
	assert.Equal(t, "model.0.bias[64]", e.String())

	// Replacing keeps the position.
	d.AddTensor("model.0.weight", 32, 3, 3, 3)
	assert.Equal(t, "model.0.weight", d.First().Key)
	assert.True(t, d.First().HasShape(32, 3, 3, 3))
	assert.Equal(t, 3, d.Len())

	// Dict built as a literal, without NewDict.
	literal := &Dict{Type: ContainerDict, Entries: []*Entry{{Key: "a", Shape: []int{}}}}
	e, found = literal.Get("a")
	require.True(t, found)
	assert.True(t, e.IsTensor())
	assert.Equal(t, int64(1), e.Size())
	assert.True(t, literal.AllTensors())

	var nilDict *Dict
	assert.Equal(t, 0, nilDict.Len())
	assert.Empty(t, nilDict.Keys())
	assert.Nil(t, nilDict.First())
	_, found = nilDict.Get("a")
	assert.False(t, found)
}

func TestConvertRoot(t *testing.T) {
	t.Run("OrderedDict", func(t *testing.T) {
		od := types.NewOrderedDict()
		od.Set("model.0.weight", &pytorch.Tensor{Size: []int{64, 3, 3, 3}})
		od.Set("model.0.bias", &pytorch.Tensor{Size: []int{64}})
		d, rootType := convertRoot(od)
		require.NotNil(t, d)
		assert.Equal(t, "OrderedDict", rootType)
		assert.Equal(t, ContainerOrderedDict, d.Type)
		assert.Equal(t, []string{"model.0.weight", "model.0.bias"}, d.Keys())
		assert.True(t, d.First().HasShape(64, 3, 3, 3))
		assert.True(t, d.AllTensors())
	})

	t.Run("nested dict", func(t *testing.T) {
		inner := types.NewOrderedDict()
		inner.Set("conv_first.weight", &pytorch.Tensor{Size: []int{64, 3, 3, 3}})
		inner.Set("body.0.rdb1.conv1.weight", &pytorch.Tensor{Size: []int{32, 64, 3, 3}})
		outer := types.NewDict()
		outer.Set("params_ema", inner)
		outer.Set(7, "seven")
		d, rootType := convertRoot(outer)
		require.NotNil(t, d)
		assert.Equal(t, "dict", rootType)
		assert.Equal(t, []string{"params_ema", "7"}, d.Keys())
		params, found := d.Get("params_ema")
		require.True(t, found)
		require.NotNil(t, params.Dict)
		assert.Equal(t, 2, params.Dict.Len())
		assert.Equal(t, int64(64*27+32*64*9), d.NumParameters())
		seven, found := d.Get("7")
		require.True(t, found)
		assert.Equal(t, "seven", seven.Value)
		assert.Equal(t, "string", seven.ValueType)
	})

	t.Run("not a mapping", func(t *testing.T) {
		d, rootType := convertRoot(&pytorch.Tensor{Size: []int{3}})
		assert.Nil(t, d)
		assert.Equal(t, "*pytorch.Tensor", rootType)
	})
}

func writeSafetensors(t *testing.T, path string, header map[string]any) {
	headerJSON, err := json.Marshal(header)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(headerJSON))))
	buf.Write(headerJSON)
	// Fake data: it is never read.
	buf.Write(make([]byte, 16))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestLoadSafetensors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	writeSafetensors(t, path, map[string]any{
		"__metadata__": map[string]string{"format": "pt"},
		"model.0.bias": map[string]any{
			"dtype": "F32", "shape": []int{64}, "data_offsets": []int{6912, 7168}},
		"model.0.weight": map[string]any{
			"dtype": "F32", "shape": []int{64, 3, 3, 3}, "data_offsets": []int{0, 6912}},
		"scale": map[string]any{
			"dtype": "F32", "shape": []int{}, "data_offsets": []int{7168, 7172}},
	})

	ckpt, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, FileTypeSafetensors, ckpt.FileType)
	assert.Equal(t, "OrderedDict", ckpt.RootType)
	require.NotNil(t, ckpt.Root)
	assert.Equal(t, []string{"model.0.weight", "model.0.bias", "scale"}, ckpt.Root.Keys())
	scale, _ := ckpt.Root.Get("scale")
	assert.True(t, scale.IsTensor())
	assert.Empty(t, scale.Shape)
	assert.Greater(t, ckpt.FileSize, int64(8))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.pth"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist), "missing file should wrap os.ErrNotExist, got %v", err)

	_, err = Load(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnparseable))

	// Files of unknown type must fail fast: gopickle's legacy loader never returns on empty or
	// zero-filled files.
	for name, contents := range map[string][]byte{
		"garbage.pth": []byte("this is not a checkpoint"),
		"empty.pth":   nil,
		"zeros.pth":   make([]byte, 1024),
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, contents, 0o644))
		_, err = loadWithTimeout(t, path)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrUnparseable), "%s: got %v", name, err)
	}

	badHeader := filepath.Join(dir, "bad.safetensors")
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(9)))
	buf.WriteString("{not json")
	require.NoError(t, os.WriteFile(badHeader, buf.Bytes(), 0o644))
	_, err = Load(badHeader)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnparseable), "got %v", err)
}

// loadWithTimeout calls Load and fails the test if it doesn't return in a few seconds.
func loadWithTimeout(t *testing.T, path string) (*Checkpoint, error) {
	t.Helper()
	type loaded struct {
		ckpt *Checkpoint
		err  error
	}
	done := make(chan loaded, 1)
	go func() {
		ckpt, err := Load(path)
		done <- loaded{ckpt, err}
	}()
	select {
	case l := <-done:
		return l.ckpt, l.err
	case <-time.After(3 * time.Second):
		t.Fatalf("Load(%q) did not return", path)
		return nil, nil
	}
}

func TestEntrySerialization(t *testing.T) {
	d := NewDict(ContainerOrderedDict)
	d.AddTensor("weight", 2, 3)
	d.AddTensor("step")
	d.Add(&Entry{Key: "epoch", Value: "7", ValueType: "int"})

	data, err := json.Marshal(d)
	require.NoError(t, err)
	var decoded struct {
		Entries []map[string]any `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Entries, 3)
	assert.Equal(t, []any{2.0, 3.0}, decoded.Entries[0]["shape"])
	shape, found := decoded.Entries[1]["shape"]
	require.True(t, found, "scalar tensor lost its shape: %s", data)
	assert.Equal(t, []any{}, shape)
	assert.NotContains(t, decoded.Entries[2], "shape")
	assert.Contains(t, string(data), `"key":"step","shape":[]`)

	yamlData, err := yaml.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(yamlData), "shape: [2, 3]")
	assert.Contains(t, string(yamlData), "shape: []")
	assert.Equal(t, 2, strings.Count(string(yamlData), "shape:"))
}
