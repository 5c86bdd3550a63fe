// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package esrgan

// Family of ESRGAN models a checkpoint was classified as.
type Family int

//go:generate go tool enumer -type=Family -trimprefix=Family -transform=snake -json -yaml -text -output=gen_family_enumer.go

const (
	FamilyUnknown Family = iota

	// FamilyOldESRGAN is the original ESRGAN code base layout, a nn.Sequential with keys "model.*".
	FamilyOldESRGAN

	// FamilyNewESRGAN is the later ESRGAN layout with named modules ("conv_first", "RRDB_trunk.*", ...).
	FamilyNewESRGAN

	// FamilyRealESRGAN is the BasicSR/RealESRGAN layout ("conv_first", "body.*", ...), usually wrapped in a
	// "params_ema" or "params" dict.
	FamilyRealESRGAN
)

// DisplayName returns the name used in reports, e.g. "old ESRGAN".
func (f Family) DisplayName() string {
	switch f {
	case FamilyOldESRGAN:
		return "old ESRGAN"
	case FamilyNewESRGAN:
		return "new ESRGAN"
	case FamilyRealESRGAN:
		return "RealESRGAN"
	default:
		return "unknown"
	}
}

// Structure of the top-level object of a checkpoint.
type Structure int

//go:generate go tool enumer -type=Structure -trimprefix=Structure -transform=snake -json -yaml -text -output=gen_structure_enumer.go

const (
	// StructureUnknown is used when the checkpoint holds no mapping at all.
	StructureUnknown Structure = iota

	// StructureESRGAN is a plain state dict: an OrderedDict, or a dict of tensors.
	StructureESRGAN

	// StructureRealESRGAN is a dict with the state dict under the "params_ema" or "params" key.
	StructureRealESRGAN

	// StructureUnknownESRGAN is any other dict.
	StructureUnknownESRGAN
)

// Stem is the result of checking the first convolution of the network.
type Stem int

//go:generate go tool enumer -type=Stem -trimprefix=Stem -transform=snake -json -yaml -text -output=gen_stem_enumer.go

const (
	// StemNone means none of the known first convolution keys were found.
	StemNone Stem = iota

	// StemOld means "model.0.weight" and "model.0.bias" are present with the expected shapes.
	StemOld

	// StemNew means "conv_first.weight" and "conv_first.bias" are present with the expected shapes.
	StemNew

	// StemUnknownOld means "model.0.*" keys are present, but not both with the expected shapes.
	StemUnknownOld

	// StemUnknownNew means "conv_first.*" keys are present, but not both with the expected shapes.
	StemUnknownNew
)

// Verdict of the key and tensor checks.
type Verdict int

//go:generate go tool enumer -type=Verdict -trimprefix=Verdict -transform=snake -json -yaml -text -output=gen_verdict_enumer.go

const (
	// VerdictNoMatch means the key names don't follow the old ESRGAN layout.
	VerdictNoMatch Verdict = iota

	// VerdictMaybe means the key names match, but some tensor shapes don't.
	VerdictMaybe

	// VerdictPerfect means both key names and tensor shapes match.
	VerdictPerfect
)
