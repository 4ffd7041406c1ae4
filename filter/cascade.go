package filter

// section is one biquad's running state: the last two inputs and outputs,
// applied in Direct Form I.
type section struct {
	coeffs         BiquadCoefficients
	x1, x2, y1, y2 float64
}

func (s *section) apply(x float64) float64 {
	y := s.coeffs.A0*x + s.coeffs.A1*s.x1 + s.coeffs.A2*s.x2 - s.coeffs.B1*s.y1 - s.coeffs.B2*s.y2
	s.x2, s.x1 = s.x1, x
	s.y2, s.y1 = s.y1, y
	return y
}

// Cascade runs a sample stream through a series of biquad sections in
// sequence, the digital realization of the analog pole cascade Design
// produces.
type Cascade struct {
	sections []section
}

// NewCascade builds a Cascade from a set of designed biquad coefficients.
func NewCascade(coeffs []BiquadCoefficients) *Cascade {
	c := &Cascade{sections: make([]section, len(coeffs))}
	for i, bq := range coeffs {
		c.sections[i].coeffs = bq
	}
	return c
}

// Apply filters x in place, one sample at a time, through every section.
func (c *Cascade) Apply(x []float64) {
	for i, v := range x {
		for s := range c.sections {
			v = c.sections[s].apply(v)
		}
		x[i] = v
	}
}

// Reset clears every section's running state, as if the cascade had just
// been constructed.
func (c *Cascade) Reset() {
	for i := range c.sections {
		c.sections[i] = section{coeffs: c.sections[i].coeffs}
	}
}
