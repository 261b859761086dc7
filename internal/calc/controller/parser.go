package controller

// DigitParser accumulates ASCII decimal digits into a small unsigned value.
//
// Parameters arrive over the serial link as one or two digits followed by
// any non-digit terminator (space, carriage return, ...). A terminator with
// no digits accumulated is ignored, so leading separators are harmless.
// The accumulator saturates at 99: every legal parameter is below that, and
// saturation turns a digit flood into an ordinary range rejection instead
// of an overflow.
type DigitParser struct {
	acc  int
	seen bool
}

// Feed consumes one received byte. When a terminator completes a number,
// Feed returns (value, true) and resets the parser.
func (p *DigitParser) Feed(b byte) (int, bool) {
	if b >= '0' && b <= '9' {
		p.acc = p.acc*10 + int(b-'0')
		if p.acc > 99 {
			p.acc = 99
		}
		p.seen = true
		return 0, false
	}
	if !p.seen {
		return 0, false
	}
	v := p.acc
	p.Reset()
	return v, true
}

// Reset clears any partial accumulation.
func (p *DigitParser) Reset() {
	p.acc = 0
	p.seen = false
}
