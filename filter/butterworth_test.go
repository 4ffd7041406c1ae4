package filter

import (
	"math"
	"testing"
)

func TestDesignSectionCountMatchesOrder(t *testing.T) {
	cases := []struct {
		order int
		want  int
	}{
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
	}
	for _, c := range cases {
		biquads, err := Design(Lowpass, c.order, 0, 2.0, 100.0)
		if err != nil {
			t.Fatalf("Design(order=%d): %v", c.order, err)
		}
		if len(biquads) != c.want {
			t.Errorf("Design(order=%d) produced %d sections, want %d", c.order, len(biquads), c.want)
		}
	}
}

func TestDesignRejectsOutOfRangeOrder(t *testing.T) {
	if _, err := Design(Lowpass, 0, 0, 2.0, 100.0); err == nil {
		t.Error("Design(order=0) err = nil, want error")
	}
	if _, err := Design(Lowpass, 21, 0, 2.0, 100.0); err == nil {
		t.Error("Design(order=21) err = nil, want error")
	}
}

func TestDesignValidatesFrequencies(t *testing.T) {
	if _, err := Design(Lowpass, 4, 0, 5.0, 0); err == nil {
		t.Error("Design(fsamp=0) err = nil, want error")
	}
	if _, err := Design(Highpass, 4, 60.0, 0, 100.0); err == nil {
		t.Error("Design(fmin>=nyquist) err = nil, want error")
	}
	if _, err := Design(Lowpass, 4, 0, 0, 100.0); err == nil {
		t.Error("Design(fmax=0) err = nil, want error")
	}
	if _, err := Design(Highpass, 4, -1.0, 0, 100.0); err == nil {
		t.Error("Design(fmin<0) err = nil, want error")
	}
	if _, err := Design(Bandpass, 4, 10.0, 5.0, 100.0); err == nil {
		t.Error("Design(Bandpass, fmax<fmin) err = nil, want error")
	}
	if _, err := Design(Bandstop, 4, 10.0, 5.0, 100.0); err == nil {
		t.Error("Design(Bandstop, fmax<fmin) err = nil, want error")
	}
}

func TestBandpassAttenuatesOutsideBand(t *testing.T) {
	const fsamp = 200.0
	biquads, err := Design(Bandpass, 4, 10.0, 20.0, fsamp)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}

	n := 2000
	inBand := impulseResponsePower(biquads, n, 15.0, fsamp)
	belowBand := impulseResponsePower(biquads, n, 1.0, fsamp)
	aboveBand := impulseResponsePower(biquads, n, 90.0, fsamp)

	if belowBand >= inBand {
		t.Errorf("bandpass did not attenuate below band: in=%.4f below=%.4f", inBand, belowBand)
	}
	if aboveBand >= inBand {
		t.Errorf("bandpass did not attenuate above band: in=%.4f above=%.4f", inBand, aboveBand)
	}
}

func TestBandstopAttenuatesInsideBand(t *testing.T) {
	const fsamp = 200.0
	biquads, err := Design(Bandstop, 4, 10.0, 20.0, fsamp)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}

	n := 2000
	inBand := impulseResponsePower(biquads, n, 15.0, fsamp)
	belowBand := impulseResponsePower(biquads, n, 1.0, fsamp)

	if inBand >= belowBand {
		t.Errorf("bandstop did not attenuate inside band: in=%.4f below=%.4f", inBand, belowBand)
	}
}

func TestHLPCombinesHighpassAndLowpass(t *testing.T) {
	const fsamp = 200.0
	biquads, err := Design(HLP, 4, 10.0, 20.0, fsamp)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}

	n := 2000
	inBand := impulseResponsePower(biquads, n, 15.0, fsamp)
	belowBand := impulseResponsePower(biquads, n, 1.0, fsamp)
	aboveBand := impulseResponsePower(biquads, n, 90.0, fsamp)

	if belowBand >= inBand {
		t.Errorf("HLP did not attenuate below band: in=%.4f below=%.4f", inBand, belowBand)
	}
	if aboveBand >= inBand {
		t.Errorf("HLP did not attenuate above band: in=%.4f above=%.4f", inBand, aboveBand)
	}
}

func TestCascadeAttenuatesAboveCutoff(t *testing.T) {
	const fsamp = 100.0
	const cutoff = 5.0

	biquads, err := Design(Lowpass, 4, 0, cutoff, fsamp)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}

	n := 2000
	lowFreq := 1.0
	highFreq := 30.0

	lowPower := impulseResponsePower(biquads, n, lowFreq, fsamp)
	highPower := impulseResponsePower(biquads, n, highFreq, fsamp)

	if highPower >= lowPower {
		t.Errorf("lowpass did not attenuate: power(%.1fHz)=%.4f power(%.1fHz)=%.4f", lowFreq, lowPower, highFreq, highPower)
	}
}

func impulseResponsePower(biquads []BiquadCoefficients, n int, freq, fsamp float64) float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = sine(float64(i), freq, fsamp)
	}
	NewCascade(biquads).Apply(samples)

	// skip the filter's settling transient before measuring steady-state power
	start := n / 2
	var sum float64
	for _, v := range samples[start:] {
		sum += v * v
	}
	return sum / float64(len(samples)-start)
}

func sine(i, freq, fsamp float64) float64 {
	return math.Sin(2 * math.Pi * freq * i / fsamp)
}
