// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package param

import "github.com/gogpu/gputypes"

// BlendFormula selects the color blend equation.
type BlendFormula uint8

// BlendFormula0 is DSTc = DSTc * X + SRCc * Y.
const BlendFormula0 BlendFormula = 0

// AlphaFormula selects the alpha blend equation.
type AlphaFormula uint8

// AlphaFormula0 is DSTa = DSTa * X + SRCa * Y.
const AlphaFormula0 AlphaFormula = 0

// Coefficient selects a blend coefficient.
type Coefficient uint8

// Coefficients for the X (destination) term.
const (
	CoefX1 Coefficient = iota // DSTa
	CoefX2                    // 1 - DSTa
	CoefX3                    // SRCa
	CoefX4                    // 1 - SRCa
	CoefX5                    // fixed
)

// Coefficients for the Y (source) term.
const (
	CoefY1 Coefficient = iota // DSTa
	CoefY2                    // 1 - DSTa
	CoefY3                    // SRCa
	CoefY4                    // 1 - SRCa
	CoefY5                    // fixed
)

// Fixed alpha coefficients.
const (
	ACoefXFix uint8 = 0
	ACoefYFix uint8 = 0xff
)

// BlendControl is the configuration of one blend/ROP unit.
type BlendControl struct {
	Ctrl BlendCtrl `yaml:"ctrl"`
	RBC  bool      `yaml:"rbc"`
	CROP ROP       `yaml:"crop"`
	AROP ROP       `yaml:"arop"`

	Formula BlendFormula `yaml:"blend_formula"`
	CoefX   Coefficient  `yaml:"blend_coefx"`
	CoefY   Coefficient  `yaml:"blend_coefy"`

	AFormula  AlphaFormula `yaml:"aformula"`
	ACoefX    Coefficient  `yaml:"acoefx"`
	ACoefY    Coefficient  `yaml:"acoefy"`
	ACoefXFix uint8        `yaml:"acoefx_fix"`
	ACoefYFix uint8        `yaml:"acoefy_fix"`
}

// NewBlendControl returns the configuration of blend unit slot. bound
// reports whether a read pipe feeds the slot and premultiplied whether that
// pipe carries premultiplied alpha.
//
// The formula is fixed:
//
//	DSTc = DSTc * (1 - SRCa) + SRCc * SRCa   (straight alpha)
//	DSTc = DSTc * (1 - SRCa) + SRCc          (premultiplied alpha)
//	DSTa = DSTa * (1 - SRCa) + SRCa
//
// Unbound slots run a NOP raster operation so the destination passes
// through unmodified.
func NewBlendControl(slot int, bound, premultiplied bool) BlendControl {
	var ctrl BlendCtrl
	if bound {
		ctrl |= BlendCtrlRBC
	} else {
		ctrl |= BlendCtrlCROP(ROPNop) | BlendCtrlAROP(ROPNop)
	}

	// Slot 0 blends over the virtual background.
	if slot == 0 {
		ctrl |= BlendCtrlDstSelVRPF
	}

	// Unit B takes its source from the ROP unit output.
	if slot != 1 {
		ctrl |= BlendCtrlSrcSel(slot)
	}

	coefY := CoefY3
	if premultiplied {
		coefY = CoefY5
	}

	return BlendControl{
		Ctrl:      ctrl,
		RBC:       ctrl.RBC(),
		CROP:      ctrl.CROP(),
		AROP:      ctrl.AROP(),
		Formula:   BlendFormula0,
		CoefX:     CoefX4,
		CoefY:     coefY,
		AFormula:  AlphaFormula0,
		ACoefX:    CoefX4,
		ACoefY:    CoefY5,
		ACoefXFix: ACoefXFix,
		ACoefYFix: ACoefYFix,
	}
}

// BlendState expresses the configured equation as a GPU blend state.
// Units in raster operation mode keep the destination.
func (b *BlendControl) BlendState() gputypes.BlendState {
	if !b.RBC {
		keep := gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorZero,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		}
		return gputypes.BlendState{Color: keep, Alpha: keep}
	}
	if b.CoefY == CoefY5 {
		return gputypes.BlendStatePremultiplied()
	}
	return gputypes.BlendStateAlpha()
}
