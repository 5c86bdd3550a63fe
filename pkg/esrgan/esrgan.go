// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package esrgan classifies ESRGAN super-resolution checkpoints as old ESRGAN, new ESRGAN or RealESRGAN, and
// validates the key names and tensor shapes of old ESRGAN state dicts against the RRDB network layout.
//
// The classification is heuristic: it looks at the structure of the checkpoint (plain state dict or
// wrapped), at keywords in the key names and at the shape of the first convolution. Use Analyze to run
// all of it and get a Report.
package esrgan

import (
	"strings"

	"github.com/gomlx/esrgancheck/pkg/checkpoint"
	"k8s.io/klog/v2"
)

// familyKeywords are tested in order, by substring, against the keys of a state dict.
var familyKeywords = []struct {
	Keyword string
	Family  Family
}{
	{"RRDB_trunk.0.", FamilyNewESRGAN},
	{"model.1.sub.", FamilyOldESRGAN},
	{"body.", FamilyRealESRGAN},
}

// Keys of the RealESRGAN wrapper dict, in order of preference.
var realESRGANKeyWords = []string{"params_ema", "params"}

// Prediction of the model family from the key names.
type Prediction struct {
	Family Family `json:"family" yaml:"family"`

	// Keyword that matched, and the first Key that contained it.
	Keyword string `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	Key     string `json:"key,omitempty" yaml:"key,omitempty"`
}

// PredictFamily returns the family of the first key, in order, that contains one of the family keywords.
func PredictFamily(d *checkpoint.Dict) Prediction {
	for _, key := range d.Keys() {
		for _, kw := range familyKeywords {
			if strings.Contains(key, kw.Keyword) {
				return Prediction{Family: kw.Family, Keyword: kw.Keyword, Key: key}
			}
		}
	}
	return Prediction{Family: FamilyUnknown}
}

// StructureResult is the result of DetectStructure.
type StructureResult struct {
	Structure Structure

	// KeyWord is the key of the top-level dict that was examined (only for dicts that are not state dicts).
	KeyWord string

	// KnownKeyWord is true if KeyWord is one of the known wrapper keys ("params_ema", "params").
	KnownKeyWord bool

	// StateDict to validate: the root for StructureESRGAN, the unwrapped dict for StructureRealESRGAN, nil otherwise.
	StateDict *checkpoint.Dict

	// PredictFrom is the mapping used for the family prediction.
	PredictFrom *checkpoint.Dict
}

// DetectStructure examines the top-level object of the checkpoint.
func DetectStructure(ckpt *checkpoint.Checkpoint) StructureResult {
	root := ckpt.Root
	if root == nil {
		return StructureResult{Structure: StructureUnknown}
	}
	if root.Type == checkpoint.ContainerOrderedDict || root.AllTensors() {
		return StructureResult{Structure: StructureESRGAN, StateDict: root, PredictFrom: root}
	}
	for _, keyWord := range realESRGANKeyWords {
		if e, found := root.Get(keyWord); found && e.Dict != nil {
			return StructureResult{
				Structure:    StructureRealESRGAN,
				KeyWord:      keyWord,
				KnownKeyWord: true,
				StateDict:    e.Dict,
				PredictFrom:  e.Dict,
			}
		}
	}
	result := StructureResult{Structure: StructureUnknownESRGAN, PredictFrom: root}
	if first := root.First(); first != nil {
		result.KeyWord = first.Key
		if first.Dict != nil {
			result.PredictFrom = first.Dict
		}
	}
	return result
}

// StemCheck checks the first convolution of the state dict, for the old ("model.0") and new ("conv_first")
// layouts.
func StemCheck(d *checkpoint.Dict, arch Architecture) Stem {
	weight, bias := arch.StemShapes()
	check := func(layer string) (present, ok bool) {
		w, wFound := d.Get(layer + ".weight")
		b, bFound := d.Get(layer + ".bias")
		present = wFound || bFound
		ok = wFound && bFound && w.HasShape(weight...) && b.HasShape(bias...)
		return
	}
	oldPresent, oldOK := check("model.0")
	newPresent, newOK := check("conv_first")
	switch {
	case oldOK:
		return StemOld
	case newOK:
		return StemNew
	case oldPresent:
		return StemUnknownOld
	case newPresent:
		return StemUnknownNew
	default:
		return StemNone
	}
}

// VerdictOf the three checks, given in the order CheckKeys, CheckTensors and CheckPrePost.
func VerdictOf(keys, tensors, prePost CheckResult) Verdict {
	switch {
	case keys.Passed() && tensors.Passed() && prePost.Passed():
		return VerdictPerfect
	case keys.Passed():
		return VerdictMaybe
	default:
		return VerdictNoMatch
	}
}

// Options for Analyze.
type Options struct {
	// Architecture used to validate the state dict. If zero, DefaultArchitecture is used.
	Architecture Architecture

	// Infer the architecture from the state dict and, if successful, validate against it instead.
	Infer bool
}

// Report holds everything found about a checkpoint.
type Report struct {
	Path     string              `json:"path" yaml:"path"`
	FileType checkpoint.FileType `json:"file_type" yaml:"file_type"`
	FileSize int64               `json:"file_size" yaml:"file_size"`
	DataType string              `json:"data_type" yaml:"data_type"`

	Structure    Structure  `json:"structure" yaml:"structure"`
	KeyWord      string     `json:"key_word,omitempty" yaml:"key_word,omitempty"`
	KnownKeyWord bool       `json:"known_key_word" yaml:"known_key_word"`
	Prediction   Prediction `json:"prediction" yaml:"prediction"`

	// Architecture used for the checks.
	Architecture Architecture `json:"architecture" yaml:"architecture"`

	// Inferred architecture, if inference was requested or possible. InferError explains failures.
	Inferred   *Architecture `json:"inferred,omitempty" yaml:"inferred,omitempty"`
	InferError string        `json:"infer_error,omitempty" yaml:"infer_error,omitempty"`

	// Tensors of the validated state dict, in order.
	Tensors       []*checkpoint.Entry `json:"tensors,omitempty" yaml:"tensors,omitempty"`
	NumParameters int64               `json:"num_parameters" yaml:"num_parameters"`

	// Checks holds the results of CheckKeys, CheckTensors and CheckPrePost, in this order. Empty if
	// there was no state dict to check.
	Checks  []CheckResult `json:"checks,omitempty" yaml:"checks,omitempty"`
	Verdict Verdict       `json:"verdict" yaml:"verdict"`

	// Stem is only checked for plain state dicts.
	Stem        Stem `json:"stem" yaml:"stem"`
	StemChecked bool `json:"stem_checked" yaml:"stem_checked"`

	// RealESRGANHint is set when the checkpoint looks like RealESRGAN, which the checks don't cover.
	RealESRGANHint bool `json:"real_esrgan_hint" yaml:"real_esrgan_hint"`

	Family Family `json:"family" yaml:"family"`
}

// Checked returns whether the key and tensor checks were run.
func (r *Report) Checked() bool {
	return len(r.Checks) > 0
}

// Analyze classifies and validates the checkpoint.
func Analyze(ckpt *checkpoint.Checkpoint, opts Options) *Report {
	arch := opts.Architecture
	if arch.IsZero() {
		arch = DefaultArchitecture()
	}
	report := &Report{
		Path:         ckpt.Path,
		FileType:     ckpt.FileType,
		FileSize:     ckpt.FileSize,
		DataType:     ckpt.RootType,
		Architecture: arch,
	}

	structure := DetectStructure(ckpt)
	report.Structure = structure.Structure
	report.KeyWord = structure.KeyWord
	report.KnownKeyWord = structure.KnownKeyWord
	if structure.PredictFrom != nil {
		report.Prediction = PredictFamily(structure.PredictFrom)
	}
	report.RealESRGANHint = structure.Structure == StructureRealESRGAN ||
		report.Prediction.Family == FamilyRealESRGAN

	stateDict := structure.StateDict
	if stateDict == nil {
		klog.V(1).Infof("%q: no state dict found (structure %s)", ckpt.Path, structure.Structure)
		return report
	}
	report.Tensors = stateDict.Entries
	report.NumParameters = stateDict.NumParameters()

	inferred, err := InferArchitecture(stateDict)
	if err != nil {
		report.InferError = err.Error()
		if opts.Infer {
			klog.Warningf("%q: %v, validating against %s", ckpt.Path, err, arch)
		}
	} else {
		report.Inferred = &inferred
		if opts.Infer {
			report.Architecture = inferred
		}
	}

	keys := CheckKeys(stateDict, report.Architecture)
	tensors := CheckTensors(stateDict, report.Architecture)
	prePost := CheckPrePost(stateDict, report.Architecture)
	report.Checks = []CheckResult{keys, tensors, prePost}
	report.Verdict = VerdictOf(keys, tensors, prePost)

	switch structure.Structure {
	case StructureRealESRGAN:
		report.Family = FamilyRealESRGAN
	case StructureESRGAN:
		report.Stem = StemCheck(stateDict, report.Architecture)
		report.StemChecked = true
		report.Family = report.Prediction.Family
		if report.Family == FamilyUnknown {
			switch report.Stem {
			case StemOld:
				report.Family = FamilyOldESRGAN
			case StemNew:
				report.Family = FamilyNewESRGAN
			}
		}
	}
	return report
}
