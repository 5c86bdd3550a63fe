// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package esrgan

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/esrgancheck/pkg/checkpoint"
)

// modelPrefix is the prefix of all old ESRGAN keys: the network is a single nn.Sequential named "model".
const modelPrefix = "model"

// Names of the checks, as used in CheckResult.Name.
const (
	CheckNameKeys    = "keys"
	CheckNameTensors = "tensors"
	CheckNamePrePost = "pre/post"
)

// CheckResult holds the outcome of one of the checks of a state dict against the old ESRGAN layout.
type CheckResult struct {
	Name string `json:"name" yaml:"name"`

	// Count is the number of keys considered by the check.
	Count int `json:"count" yaml:"count"`

	// Mismatches are the keys that failed the check, in the order of the state dict.
	Mismatches []string `json:"mismatches" yaml:"mismatches"`
}

// Passed returns whether there were no mismatches.
func (r CheckResult) Passed() bool {
	return len(r.Mismatches) == 0
}

// Partial returns whether some, but not all, of the considered keys failed.
func (r CheckResult) Partial() bool {
	return len(r.Mismatches) > 0 && len(r.Mismatches) != r.Count
}

// patterns are the regular expressions used to validate old ESRGAN key names for a given architecture.
type patterns struct {
	arch Architecture

	// body matches the dense convolutions of the RRDB trunk, capturing the block index.
	body *regexp.Regexp

	// headFoot matches the layers before and after the trunk.
	headFoot *regexp.Regexp
}

var bodyRegexp = regexp.MustCompile(`^model\.1\.sub\.(0|[1-9][0-9]*)\.RDB[1-3]\.conv[0-5]\.0\.(?:weight|bias)$`)

func newPatterns(arch Architecture) *patterns {
	layers := []string{regexp.QuoteMeta(fmt.Sprintf("1.sub.%d", arch.NumBlocks)), "0"}
	for _, idx := range arch.upconvIndices() {
		layers = append(layers, strconv.Itoa(idx))
	}
	layers = append(layers, strconv.Itoa(arch.hrConvIndex()), strconv.Itoa(arch.lastConvIndex()))
	return &patterns{
		arch:     arch,
		body:     bodyRegexp,
		headFoot: regexp.MustCompile(`^model\.(?:` + strings.Join(layers, "|") + `)\.(?:weight|bias)$`),
	}
}

// isBodyKey returns whether key names a dense convolution of one of the first NumBlocks RRDB blocks.
func (p *patterns) isBodyKey(key string) bool {
	m := p.body.FindStringSubmatch(key)
	if m == nil {
		return false
	}
	idx, err := strconv.Atoi(m[1])
	return err == nil && idx < p.arch.NumBlocks
}

func (p *patterns) isHeadFootKey(key string) bool {
	return p.headFoot.MatchString(key)
}

// CheckKeys checks the key names of the state dict against the old ESRGAN layout.
// Every key is counted, and every key that is not an old ESRGAN body, head or foot key is a mismatch.
func CheckKeys(d *checkpoint.Dict, arch Architecture) CheckResult {
	p := newPatterns(arch)
	result := CheckResult{Name: CheckNameKeys, Mismatches: []string{}}
	for _, key := range d.Keys() {
		result.Count++
		if strings.HasPrefix(key, modelPrefix) && (p.isBodyKey(key) || p.isHeadFootKey(key)) {
			continue
		}
		result.Mismatches = append(result.Mismatches, key)
	}
	return result
}

// CheckTensors checks the shapes of the trunk tensors: keys prefixed with "model" that are not one of the
// pre/post layers (see Architecture.PrePostShapes). A key is accepted if it contains the name of one of the
// dense convolutions ("conv1" to "conv5") and its weight or bias shape is the expected one.
func CheckTensors(d *checkpoint.Dict, arch Architecture) CheckResult {
	prePost := prePostIndex(arch)
	convs := arch.ConvShapes()
	result := CheckResult{Name: CheckNameTensors, Mismatches: []string{}}
	for _, e := range d.Entries {
		if !strings.HasPrefix(e.Key, modelPrefix) {
			continue
		}
		if _, found := prePost[e.Key]; found {
			continue
		}
		result.Count++
		if !matchesConv(e, convs) {
			result.Mismatches = append(result.Mismatches, e.Key)
		}
	}
	return result
}

func matchesConv(e *checkpoint.Entry, convs []ConvShape) bool {
	isWeight, isBias := keyIsWeightOrBias(e.Key)
	for _, conv := range convs {
		if !strings.Contains(e.Key, conv.Name) {
			continue
		}
		if isWeight && e.HasShape(conv.Weight...) {
			return true
		}
		if isBias && e.HasShape(conv.Bias...) {
			return true
		}
	}
	return false
}

// CheckPrePost checks the shapes of the layers before and after the trunk. Only keys listed in
// Architecture.PrePostShapes are considered, and they must match their shape exactly.
func CheckPrePost(d *checkpoint.Dict, arch Architecture) CheckResult {
	prePost := prePostIndex(arch)
	result := CheckResult{Name: CheckNamePrePost, Mismatches: []string{}}
	for _, e := range d.Entries {
		want, found := prePost[e.Key]
		if !found || !strings.HasPrefix(e.Key, modelPrefix) {
			continue
		}
		result.Count++
		if !e.IsTensor() || !slices.Equal(e.Shape, want) {
			result.Mismatches = append(result.Mismatches, e.Key)
		}
	}
	return result
}

func prePostIndex(arch Architecture) map[string][]int {
	shapes := arch.PrePostShapes()
	index := make(map[string][]int, len(shapes))
	for _, ks := range shapes {
		index[ks.Key] = ks.Shape
	}
	return index
}
