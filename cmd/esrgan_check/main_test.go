// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/esrgancheck/pkg/checkpoint"
	"github.com/gomlx/esrgancheck/pkg/esrgan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// writeOldESRGAN writes the header of a ".safetensors" file with the old ESRGAN layout. If brokenBias is
// set, the last bias gets a wrong shape.
func writeOldESRGAN(t *testing.T, path string, brokenBias bool) {
	arch := esrgan.DefaultArchitecture()
	header := map[string]any{"__metadata__": map[string]string{"format": "pt"}}
	var offset int
	add := func(key string, shape []int) {
		size := 4
		for _, dim := range shape {
			size *= dim
		}
		header[key] = map[string]any{"dtype": "F32", "shape": shape, "data_offsets": []int{offset, offset + size}}
		offset += size
	}
	prePost := arch.PrePostShapes()
	for _, ks := range prePost[:2] {
		add(ks.Key, ks.Shape)
	}
	for block := 0; block < arch.NumBlocks; block++ {
		for rdb := 1; rdb <= 3; rdb++ {
			for _, conv := range arch.ConvShapes() {
				prefix := fmt.Sprintf("model.1.sub.%d.RDB%d.%s.0", block, rdb, conv.Name)
				add(prefix+".weight", conv.Weight)
				add(prefix+".bias", conv.Bias)
			}
		}
	}
	for _, ks := range prePost[2:] {
		shape := ks.Shape
		if brokenBias && ks.Key == "model.10.bias" {
			shape = []int{4}
		}
		add(ks.Key, shape)
	}
	headerJSON, err := json.Marshal(header)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(headerJSON))))
	buf.Write(headerJSON)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestInspectAllAndRenderText(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good", "4x_esrgan.safetensors")
	broken := filepath.Join(dir, "broken", "4x_esrgan.safetensors")
	require.NoError(t, os.MkdirAll(filepath.Dir(good), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(broken), 0o755))
	writeOldESRGAN(t, good, false)
	writeOldESRGAN(t, broken, true)
	missing := filepath.Join(dir, "missing.pth")

	results := inspectAll([]string{good, broken, missing}, esrgan.Options{}, true)
	require.Len(t, results, 3)

	require.NotNil(t, results[0].Report)
	assert.Equal(t, filepath.Join("good", "4x_esrgan.safetensors"), results[0].Name)
	assert.Equal(t, esrgan.FamilyOldESRGAN, results[0].Report.Family)
	assert.Equal(t, esrgan.VerdictPerfect, results[0].Report.Verdict)

	require.NotNil(t, results[1].Report)
	assert.Equal(t, esrgan.VerdictMaybe, results[1].Report.Verdict)

	assert.Nil(t, results[2].Report)
	require.Error(t, results[2].err)
	assert.Contains(t, results[2].Error, "not found")

	var buf bytes.Buffer
	require.NoError(t, report(&buf, formatText, results))
	text := buf.String()
	for _, want := range []string{
		"File type: safetensors",
		"Data type: OrderedDict",
		"Possible model type: old ESRGAN",
		"model.1.sub.22.RDB3.conv5.0.bias",
		"Key check ok. Nothing to print out!",
		"Tensor check ok. Nothing to print out!",
		"Old ESRGAN RRDB model. Perfect match in the data structure.",
		"Found old ESRGAN RRDB model data",
		"Mismatch in number of pre/post keys!",
		"1 wrong of 12",
		"Maybe an Old ESRGAN RRDB model. Check the data!",
		"Could not load model data from file! Maybe not a valid model!",
		"Summary",
	} {
		assert.Contains(t, text, want)
	}
}

func TestRenderStructures(t *testing.T) {
	stateDict := checkpoint.NewDict(checkpoint.ContainerOrderedDict)
	stateDict.AddTensor("conv_first.weight", 64, 3, 3, 3)
	stateDict.AddTensor("conv_first.bias", 64)
	stateDict.AddTensor("body.0.rdb1.conv1.weight", 32, 64, 3, 3)

	root := checkpoint.NewDict(checkpoint.ContainerDict)
	root.Add(&checkpoint.Entry{Key: "params_ema", Dict: stateDict})
	r := esrgan.Analyze(&checkpoint.Checkpoint{Root: root, RootType: "dict"}, esrgan.Options{})
	var buf bytes.Buffer
	renderText(&buf, "realesrgan.pth", r, textOptions{Keys: true, Checks: true})
	text := buf.String()
	assert.Contains(t, text, "known key word")
	assert.Contains(t, text, "Key word: params_ema")
	assert.Contains(t, text, "Possible model type: RealESRGAN")
	assert.Contains(t, text, "Maybe it is a RealESRGAN model!")
	assert.Contains(t, text, "NOT an Old ESRGAN RRDB model. No match in the data structure.")
	assert.Contains(t, text, "Model family: RealESRGAN")
	assert.NotContains(t, text, "ESRGAN RRDB model data", "stem check is only reported for plain state dicts")

	root = checkpoint.NewDict(checkpoint.ContainerDict)
	root.Add(&checkpoint.Entry{Key: "net_g", Dict: stateDict})
	r = esrgan.Analyze(&checkpoint.Checkpoint{Root: root, RootType: "dict"}, esrgan.Options{})
	buf.Reset()
	renderText(&buf, "unknown.pth", r, textOptions{Keys: true, Checks: true})
	text = buf.String()
	assert.Contains(t, text, "new key word")
	assert.Contains(t, text, "Key word: net_g")
	assert.Contains(t, text, "Unknown model type. Take a look at the data structure!")
	assert.NotContains(t, text, "keys and tensor shapes")

	r = esrgan.Analyze(&checkpoint.Checkpoint{RootType: "*pytorch.Tensor"}, esrgan.Options{})
	buf.Reset()
	renderText(&buf, "tensor.pth", r, textOptions{Keys: true, Checks: true})
	assert.Contains(t, buf.String(), "Could not find the correct data structure (dict/OrderedDict)! Not a valid model!")
}

func TestRenderMachine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.safetensors")
	writeOldESRGAN(t, path, false)
	results := inspectAll([]string{path}, esrgan.Options{}, true)

	var buf bytes.Buffer
	require.NoError(t, report(&buf, formatJSON, results))
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	rep := decoded[0]["report"].(map[string]any)
	assert.Equal(t, "old_esrgan", rep["family"])
	assert.Equal(t, "perfect", rep["verdict"])
	assert.Equal(t, "safetensors", rep["file_type"])

	buf.Reset()
	require.NoError(t, report(&buf, formatYAML, results))
	var decodedYAML []struct {
		Name   string `yaml:"name"`
		Report struct {
			Family  esrgan.Family  `yaml:"family"`
			Verdict esrgan.Verdict `yaml:"verdict"`
		} `yaml:"report"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decodedYAML))
	require.Len(t, decodedYAML, 1)
	assert.Equal(t, "model.safetensors", decodedYAML[0].Name)
	assert.Equal(t, esrgan.FamilyOldESRGAN, decodedYAML[0].Report.Family)
	assert.Equal(t, esrgan.VerdictPerfect, decodedYAML[0].Report.Verdict)
}

func TestParseFormat(t *testing.T) {
	f, err := parseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, formatJSON, f)
	_, err = parseFormat("xml")
	require.Error(t, err)
}

func TestMinimalUniquePaths(t *testing.T) {
	assert.Equal(t, []string{"x4.pth"}, MinimalUniquePaths("/models/x4.pth"))
	assert.Equal(t,
		[]string{"a/x4.pth", "b/x4.pth", "x2.pth"},
		MinimalUniquePaths("/models/a/x4.pth", "/models/b/x4.pth", "/models/b/x2.pth"))
	assert.Equal(t,
		[]string{"a/b/x4.pth", "a/b/x4.pth"},
		MinimalUniquePaths("a/b/x4.pth", "a/b/./x4.pth"))
	assert.Empty(t, MinimalUniquePaths())
}
