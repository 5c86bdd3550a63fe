// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package esrgan

import (
	"fmt"
	"math/bits"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/gomlx/esrgancheck/pkg/checkpoint"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Architecture holds the hyperparameters of an RRDB network (the ESRGAN generator), from which all
// expected tensor shapes are derived.
type Architecture struct {
	// NumFeatures (nf) is the number of channels of the trunk.
	NumFeatures int `json:"nf" yaml:"nf"`

	// GrowthChannels (gc) is the number of channels added by each dense convolution of a residual dense block.
	GrowthChannels int `json:"gc" yaml:"gc"`

	// NumBlocks (nb) is the number of RRDB blocks in the trunk.
	NumBlocks int `json:"nb" yaml:"nb"`

	InChannels  int `json:"in_nc" yaml:"in_nc"`
	OutChannels int `json:"out_nc" yaml:"out_nc"`

	// Scale is the upscaling factor, a power of 2. It defines the number of upsampling convolutions.
	Scale int `json:"scale" yaml:"scale"`
}

// DefaultArchitecture is the original 4x ESRGAN RRDB network: 23 blocks, 64 features, growth of 32, RGB in/out.
func DefaultArchitecture() Architecture {
	return Architecture{
		NumFeatures:    64,
		GrowthChannels: 32,
		NumBlocks:      23,
		InChannels:     3,
		OutChannels:    3,
		Scale:          4,
	}
}

// String implements fmt.Stringer.
func (a Architecture) String() string {
	return fmt.Sprintf("nf=%d gc=%d nb=%d in_nc=%d out_nc=%d scale=%dx",
		a.NumFeatures, a.GrowthChannels, a.NumBlocks, a.InChannels, a.OutChannels, a.Scale)
}

// IsZero returns whether no field was set.
func (a Architecture) IsZero() bool {
	return a == Architecture{}
}

// Validate returns an error if any of the hyperparameters is invalid.
func (a Architecture) Validate() error {
	for _, field := range []struct {
		name  string
		value int
	}{
		{"nf", a.NumFeatures}, {"gc", a.GrowthChannels}, {"nb", a.NumBlocks},
		{"in_nc", a.InChannels}, {"out_nc", a.OutChannels}, {"scale", a.Scale},
	} {
		if field.value <= 0 {
			return errors.Errorf("invalid architecture: %s must be > 0, got %d", field.name, field.value)
		}
	}
	if bits.OnesCount(uint(a.Scale)) != 1 {
		return errors.Errorf("invalid architecture: scale must be a power of 2, got %d", a.Scale)
	}
	return nil
}

// NumUpsamplers is the number of 2x upsampling stages (nearest upsample followed by a convolution).
func (a Architecture) NumUpsamplers() int {
	return bits.TrailingZeros(uint(a.Scale))
}

// LoadArchitecture reads a YAML file with the architecture hyperparameters. Fields not present in the file
// keep the values of DefaultArchitecture.
func LoadArchitecture(path string) (Architecture, error) {
	arch := DefaultArchitecture()
	f, err := os.Open(path)
	if err != nil {
		return arch, errors.Wrap(err, "failed to open architecture file")
	}
	defer func() { _ = f.Close() }()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(&arch); err != nil {
		return arch, errors.Wrapf(err, "failed to parse architecture file %q", path)
	}
	if err = arch.Validate(); err != nil {
		return arch, errors.WithMessagef(err, "architecture file %q", path)
	}
	return arch, nil
}

// KeyShape is a tensor name and its expected shape.
type KeyShape struct {
	Key   string `json:"key" yaml:"key"`
	Shape []int  `json:"shape" yaml:"shape"`
}

// ConvShape is the expected weight and bias shapes of one of the 5 convolutions of a residual dense block.
type ConvShape struct {
	Name   string
	Weight []int
	Bias   []int
}

// PrePostShapes returns the expected shapes of the old ESRGAN layers outside the RRDB trunk, in network
// order: the first convolution ("model.0"), the trunk convolution ("model.1.sub.<nb>"), the upsampling
// convolutions, the HR convolution and the last convolution.
//
// For the default architecture those are model.0, model.1.sub.23, model.3, model.6, model.8 and model.10.
func (a Architecture) PrePostShapes() []KeyShape {
	nf := a.NumFeatures
	var shapes []KeyShape
	add := func(layer string, weight ...int) {
		shapes = append(shapes,
			KeyShape{Key: layer + ".weight", Shape: weight},
			KeyShape{Key: layer + ".bias", Shape: []int{weight[0]}})
	}
	add("model.0", nf, a.InChannels, 3, 3)
	add(fmt.Sprintf("model.1.sub.%d", a.NumBlocks), nf, nf, 3, 3)
	for _, idx := range a.upconvIndices() {
		add(fmt.Sprintf("model.%d", idx), nf, nf, 3, 3)
	}
	add(fmt.Sprintf("model.%d", a.hrConvIndex()), nf, nf, 3, 3)
	add(fmt.Sprintf("model.%d", a.lastConvIndex()), a.OutChannels, nf, 3, 3)
	return shapes
}

// Layer indices in the old ESRGAN nn.Sequential: 0 is the first conv, 1 the shortcut block with the trunk,
// then each upsampler takes 3 slots (upsample, conv, activation), followed by the HR conv, an activation
// and the last conv.
func (a Architecture) upconvIndices() []int {
	indices := make([]int, a.NumUpsamplers())
	for ii := range indices {
		indices[ii] = 3 * (ii + 1)
	}
	return indices
}

func (a Architecture) hrConvIndex() int {
	return 3*a.NumUpsamplers() + 2
}

func (a Architecture) lastConvIndex() int {
	return 3*a.NumUpsamplers() + 4
}

// ConvShapes returns the expected shapes of the convolutions conv1 to conv5 of each residual dense block:
// conv_i takes nf+(i-1)*gc input channels and outputs gc channels, except conv5 that outputs nf.
func (a Architecture) ConvShapes() []ConvShape {
	convs := make([]ConvShape, 5)
	for ii := range convs {
		out := a.GrowthChannels
		if ii == 4 {
			out = a.NumFeatures
		}
		convs[ii] = ConvShape{
			Name:   fmt.Sprintf("conv%d", ii+1),
			Weight: []int{out, a.NumFeatures + ii*a.GrowthChannels, 3, 3},
			Bias:   []int{out},
		}
	}
	return convs
}

// StemShapes returns the expected shapes of the first convolution weight and bias.
func (a Architecture) StemShapes() (weight, bias []int) {
	return []int{a.NumFeatures, a.InChannels, 3, 3}, []int{a.NumFeatures}
}

var (
	reOldBlock      = regexp.MustCompile(`^model\.1\.sub\.(\d+)\.RDB[1-3]\.`)
	reOldLayer      = regexp.MustCompile(`^model\.(\d+)\.weight$`)
	reNewBlock      = regexp.MustCompile(`^RRDB_trunk\.(\d+)\.`)
	reRealBlock     = regexp.MustCompile(`^body\.(\d+)\.`)
	reNewUpconv     = regexp.MustCompile(`^(?:upconv|conv_up)\d+\.weight$`)
	errNotInferable = errors.New("architecture can't be inferred")
)

// InferArchitecture reads the hyperparameters from the tensor shapes of a state dict. It understands the
// old ESRGAN layout ("model.*"), the new ESRGAN layout ("conv_first", "RRDB_trunk.*") and the RealESRGAN
// layout ("conv_first", "body.*"), including RealESRGAN's pixel-unshuffle for 2x and 1x models.
func InferArchitecture(d *checkpoint.Dict) (Architecture, error) {
	if e, found := d.Get("model.0.weight"); found {
		return inferOld(d, e)
	}
	if e, found := d.Get("conv_first.weight"); found {
		return inferNew(d, e)
	}
	return Architecture{}, errors.Wrap(errNotInferable, "no first convolution (\"model.0.weight\" or \"conv_first.weight\") found")
}

func inferOld(d *checkpoint.Dict, first *checkpoint.Entry) (Architecture, error) {
	var arch Architecture
	if len(first.Shape) != 4 {
		return arch, errors.Wrapf(errNotInferable, "%q has shape %v, expected 4 dimensions", first.Key, first.Shape)
	}
	arch.NumFeatures, arch.InChannels = first.Shape[0], first.Shape[1]
	arch.NumBlocks = maxIndex(d, reOldBlock) + 1
	arch.GrowthChannels = growthChannels(d, "model.1.sub.0.RDB1.conv1.0.weight")

	// Weight layers after the trunk: upsampling convolutions, HR conv and last conv.
	lastIdx, numLayers := -1, 0
	for _, e := range d.Entries {
		m := reOldLayer.FindStringSubmatch(e.Key)
		if m == nil {
			continue
		}
		idx, _ := strconv.Atoi(m[1])
		if idx <= 1 {
			continue
		}
		numLayers++
		if idx > lastIdx {
			lastIdx = idx
		}
	}
	if numLayers < 2 {
		return arch, errors.Wrapf(errNotInferable, "found only %d convolutions after the trunk, expected at least 2", numLayers)
	}
	if last, found := d.Get(fmt.Sprintf("model.%d.weight", lastIdx)); found && len(last.Shape) == 4 {
		arch.OutChannels = last.Shape[0]
	}
	arch.Scale = 1 << (numLayers - 2)
	return arch, arch.Validate()
}

func inferNew(d *checkpoint.Dict, first *checkpoint.Entry) (Architecture, error) {
	var arch Architecture
	if len(first.Shape) != 4 {
		return arch, errors.Wrapf(errNotInferable, "%q has shape %v, expected 4 dimensions", first.Key, first.Shape)
	}
	arch.NumFeatures, arch.InChannels = first.Shape[0], first.Shape[1]
	numBlocks := maxIndex(d, reNewBlock) + 1
	if numBlocks > 0 {
		arch.GrowthChannels = growthChannels(d, "RRDB_trunk.0.RDB1.conv1.weight")
	} else {
		numBlocks = maxIndex(d, reRealBlock) + 1
		arch.GrowthChannels = growthChannels(d, "body.0.rdb1.conv1.weight")
	}
	arch.NumBlocks = numBlocks
	if last, found := d.Get("conv_last.weight"); found && len(last.Shape) == 4 {
		arch.OutChannels = last.Shape[0]
	}
	var numUpconvs int
	for _, key := range d.Keys() {
		if reNewUpconv.MatchString(key) {
			numUpconvs++
		}
	}
	arch.Scale = 1 << numUpconvs
	// RealESRGAN 2x and 1x models pixel-unshuffle the input by 2 or 4 and always upsample by 4.
	if arch.OutChannels > 0 && arch.InChannels > arch.OutChannels && arch.InChannels%arch.OutChannels == 0 {
		switch arch.InChannels / arch.OutChannels {
		case 4:
			arch.Scale /= 2
			arch.InChannels = arch.OutChannels
		case 16:
			arch.Scale /= 4
			arch.InChannels = arch.OutChannels
		}
	}
	return arch, arch.Validate()
}

// maxIndex returns the largest block index captured by re among the keys of d, or -1 if none matched.
func maxIndex(d *checkpoint.Dict, re *regexp.Regexp) int {
	maxIdx := -1
	for _, key := range d.Keys() {
		m := re.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		if idx, err := strconv.Atoi(m[1]); err == nil && idx > maxIdx {
			maxIdx = idx
		}
	}
	return maxIdx
}

// growthChannels reads gc from the output channels of the first dense convolution, 0 if not found.
func growthChannels(d *checkpoint.Dict, key string) int {
	e, found := d.Get(key)
	if !found || len(e.Shape) != 4 {
		return 0
	}
	return e.Shape[0]
}

// keyIsWeightOrBias is true for keys referring to weights or biases: matches are done by substring, as the
// reference ESRGAN tooling does.
func keyIsWeightOrBias(key string) (isWeight, isBias bool) {
	return strings.Contains(key, "weight"), strings.Contains(key, "bias")
}
