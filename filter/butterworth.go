// Package filter designs and applies Butterworth IIR filters, grounded on
// the source's pole-placement-plus-bilinear-transform approach: a set of
// analog poles is placed on the unit circle for the requested order, mapped
// to an analog prototype (lowpass, highpass, bandpass, bandstop, or a
// highpass-then-lowpass cascade), then converted to a cascade of
// second-order digital sections (biquads) via the bilinear transform.
// There is no ecosystem DSP library in reach for this, so it is built
// directly on math/cmplx.
package filter

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Kind selects which analog prototype makePoles' output is mapped through.
type Kind int

const (
	Lowpass  Kind = iota // fmax is the corner frequency; fmin is only checked against Nyquist.
	Highpass             // fmin is the corner frequency; fmax is ignored.
	Bandpass             // passes [fmin, fmax].
	Bandstop             // rejects [fmin, fmax].
	HLP                  // highpass at fmin cascaded with lowpass at fmax.
)

// BiquadCoefficients are one second-order section's transfer function
// coefficients, H(z) = (a0 + a1 z^-1 + a2 z^-2) / (1 + b1 z^-1 + b2 z^-2).
type BiquadCoefficients struct {
	A0, A1, A2 float64
	B1, B2     float64
}

// Design builds the biquad cascade for a Butterworth filter of the given
// order and kind, between corner frequencies fmin and fmax (Hz, either may
// be unused depending on kind) at sampling frequency fsamp (Hz). order must
// be between 1 and 20, matching the source's sanity bound; the frequency
// validation follows init_bw_biquads_inplace exactly, including which
// checks apply to which kind.
func Design(kind Kind, order int, fmin, fmax, fsamp float64) ([]BiquadCoefficients, error) {
	if kind == HLP {
		hp, err := Design(Highpass, order, fmin, 0, fsamp)
		if err != nil {
			return nil, err
		}
		lp, err := Design(Lowpass, order, 0, fmax, fsamp)
		if err != nil {
			return nil, err
		}
		return append(hp, lp...), nil
	}

	if order < 1 || order > 20 {
		return nil, errOrderRange(order)
	}
	if fsamp <= 0 {
		return nil, fmt.Errorf("filter: sample rate must be greater than zero")
	}
	fnyquist := 0.5 * fsamp

	switch kind {
	case Bandpass, Bandstop:
		if fmax < fmin {
			return nil, fmt.Errorf("filter: high frequency cutoff must be greater than low frequency")
		}
		if fmin <= 0 {
			return nil, fmt.Errorf("filter: low frequency cutoff must be greater than zero")
		}
		fallthrough
	case Lowpass:
		if fmax <= 0 {
			return nil, fmt.Errorf("filter: high frequency cutoff must be greater than zero")
		}
		if fmin >= fnyquist {
			return nil, fmt.Errorf("filter: low frequency cutoff must be lower than Nyquist frequency")
		}
	case Highpass:
		if fmin <= 0 {
			return nil, fmt.Errorf("filter: low frequency cutoff must be greater than zero")
		}
		if fmin >= fnyquist {
			return nil, fmt.Errorf("filter: low frequency cutoff must be lower than Nyquist frequency")
		}
	default:
		return nil, errInvalidKind(kind)
	}

	poles := makePoles(order)
	warpedMin := warp(fmin, fsamp)
	warpedMax := warp(fmax, fsamp)

	var analog []analogBiquad
	switch kind {
	case Lowpass:
		analog = poles2lp(poles, warpedMax)
	case Highpass:
		analog = poles2hp(poles, warpedMin)
	case Bandpass:
		analog = poles2bp(poles, warpedMin, warpedMax)
	case Bandstop:
		analog = poles2bs(poles, warpedMin, warpedMax)
	}

	out := make([]BiquadCoefficients, len(analog))
	for i, ab := range analog {
		out[i] = analogToDigital(ab)
	}
	return out, nil
}

type errOrderRange int

func (e errOrderRange) Error() string {
	return "filter: butterworth order out of range [1,20]"
}

type errInvalidKind Kind

func (e errInvalidKind) Error() string {
	return "filter: invalid butterworth kind"
}

// warp prewarps the corner frequency so the bilinear transform's frequency
// axis compression lands the digital cutoff at the intended analog one.
func warp(freq, fsamp float64) float64 {
	return math.Tan(math.Pi*freq/fsamp) / (2 * math.Pi)
}

// makePoles returns one pole per complex-conjugate pair (order/2 of them)
// plus, for odd orders, the real pole at -1.
func makePoles(order int) []complex128 {
	poles := make([]complex128, 0, (order+1)/2)
	half := order / 2
	for k := 0; k < half; k++ {
		phi := math.Pi * (0.5 + (float64(k)+0.5)/float64(order))
		poles = append(poles, complex(math.Cos(phi), math.Sin(phi)))
	}
	if order%2 == 1 {
		poles = append(poles, complex(-1, 0))
	}
	return poles
}

// analogBiquad mirrors the source's BiquadCoefficients before the bilinear
// transform: a0..a2 are the numerator, b0..b2 the denominator.
type analogBiquad struct {
	a0, a1, a2 float64
	b0, b1, b2 float64
}

func poles2lp(poles []complex128, fmax float64) []analogBiquad {
	s := 1 / (2 * math.Pi * fmax)

	out := make([]analogBiquad, 0, len(poles))
	for _, pole := range poles {
		if pole != complex(-1, 0) {
			b0 := real(pole * cmplx.Conj(pole))
			b1 := -2 * real(pole)
			b2 := 1.0
			out = append(out, analogBiquad{a0: 1, b0: b0, b1: b1 * s, b2: b2 * s * s})
		} else {
			out = append(out, analogBiquad{a0: 1, b0: 1, b1: s, b2: 0})
		}
	}
	return out
}

func poles2hp(poles []complex128, fmin float64) []analogBiquad {
	s := 1 / (2 * math.Pi * fmin)

	out := make([]analogBiquad, 0, len(poles))
	for _, pole := range poles {
		if pole != complex(-1, 0) {
			a2 := s * s
			b0 := 1.0
			b1 := -2 * s * real(pole)
			b2 := s * s * real(pole*cmplx.Conj(pole))
			out = append(out, analogBiquad{a2: a2, b0: b0, b1: b1, b2: b2})
		} else {
			out = append(out, analogBiquad{a1: s, b0: 1, b1: s, b2: 0})
		}
	}
	return out
}

// poles2bp converts the basic pole set to an analog bandpass between fmin
// and fmax, grounded directly on the source's poles2bp: each lowpass pole
// splits into a pair of bandpass poles via the quadratic p^2 - (pole*b)p + a
// = 0, where a and b fold in the band's center frequency and width.
func poles2bp(poles []complex128, fmin, fmax float64) []analogBiquad {
	a := 2 * math.Pi * 2 * math.Pi * fmin * fmax
	b := 2 * math.Pi * (fmax - fmin)

	out := make([]analogBiquad, 0, 2*len(poles))
	for _, pole := range poles {
		if pole != complex(-1, 0) {
			pb := pole * complex(b, 0)
			tmp := cmplx.Sqrt(pb*pb - complex(4*a, 0))
			p1 := 0.5 * (pb + tmp)
			p2 := 0.5 * (pb - tmp)

			out = append(out,
				analogBiquad{a1: b, b0: real(p1 * cmplx.Conj(p1)), b1: -2 * real(p1), b2: 1},
				analogBiquad{a1: b, b0: real(p2 * cmplx.Conj(p2)), b1: -2 * real(p2), b2: 1},
			)
		} else {
			out = append(out, analogBiquad{a1: b, b0: a, b1: b, b2: 1})
		}
	}
	return out
}

// poles2bs converts the basic pole set to an analog bandstop rejecting
// [fmin, fmax], grounded on the source's poles2bs: the dual of poles2bp,
// dividing b by the pole instead of multiplying.
func poles2bs(poles []complex128, fmin, fmax float64) []analogBiquad {
	a := 2 * math.Pi * 2 * math.Pi * fmin * fmax
	b := 2 * math.Pi * (fmax - fmin)

	out := make([]analogBiquad, 0, 2*len(poles))
	for _, pole := range poles {
		if pole != complex(-1, 0) {
			bp := complex(b, 0) / pole
			tmp := cmplx.Sqrt(bp*bp - complex(4*a, 0))
			p1 := 0.5 * (bp + tmp)
			p2 := 0.5 * (bp - tmp)

			out = append(out,
				analogBiquad{a0: a, a2: 1, b0: real(p1 * cmplx.Conj(p1)), b1: -2 * real(p1), b2: 1},
				analogBiquad{a0: a, a2: 1, b0: real(p2 * cmplx.Conj(p2)), b1: -2 * real(p2), b2: 1},
			)
		} else {
			out = append(out, analogBiquad{a0: a, a2: 1, b0: a, b1: b, b2: 1})
		}
	}
	return out
}

// analogToDigital applies the bilinear transform to one analog section. The
// denominator (b) coefficients set the scale so the digital denominator's
// leading term is 1; the same scale is then applied to the numerator (a)
// coefficients, which is the source's analog2digital in two halves.
func analogToDigital(ab analogBiquad) BiquadCoefficients {
	b0, b1, b2 := ab.b0, ab.b1, ab.b2
	scale := 1 / (b0 + b1 + b2)

	digitalB1 := scale * (2 * (b0 - b2))
	digitalB2 := scale * (b2 - b1 + b0)

	a0, a1, a2 := ab.a0, ab.a1, ab.a2
	digitalA0 := scale * (a0 + a1 + a2)
	digitalA1 := scale * (2 * (a0 - a2))
	digitalA2 := scale * (a2 - a1 + a0)

	return BiquadCoefficients{A0: digitalA0, A1: digitalA1, A2: digitalA2, B1: digitalB1, B2: digitalB2}
}
