package compute

// Operation is one entry in the appliance's operation table. The table is
// fixed; variants other than convolve are declared placeholders that fail
// selection rather than silently-wrong stand-ins.
type Operation interface {
	// Name returns the operation's human-readable name.
	Name() string

	// Code returns the one-letter selection code on the serial link.
	Code() byte

	// Implemented reports whether the operation has defined semantics.
	Implemented() bool
}

// Transpose is a declared placeholder ('T').
type Transpose struct{}

// Add is a declared placeholder ('A').
type Add struct{}

// Scalar is a declared placeholder ('S').
type Scalar struct{}

// Multiply is a declared placeholder ('M').
type Multiply struct{}

// Convolve is the 3×3 valid convolution, the one implemented operation ('C').
type Convolve struct{}

func (Transpose) Name() string { return "transpose" }
func (Transpose) Code() byte   { return 'T' }

// Implemented reports false: transpose is a named placeholder.
func (Transpose) Implemented() bool { return false }

func (Add) Name() string { return "add" }
func (Add) Code() byte   { return 'A' }

// Implemented reports false: add is a named placeholder.
func (Add) Implemented() bool { return false }

func (Scalar) Name() string { return "scalar" }
func (Scalar) Code() byte   { return 'S' }

// Implemented reports false: scalar is a named placeholder.
func (Scalar) Implemented() bool { return false }

func (Multiply) Name() string { return "multiply" }
func (Multiply) Code() byte   { return 'M' }

// Implemented reports false: multiply is a named placeholder.
func (Multiply) Implemented() bool { return false }

func (Convolve) Name() string      { return "convolve" }
func (Convolve) Code() byte        { return 'C' }
func (Convolve) Implemented() bool { return true }

// operations is the fixed dispatch table.
var operations = []Operation{Transpose{}, Add{}, Scalar{}, Multiply{}, Convolve{}}

// OperationByCode resolves a selection code against the table.
func OperationByCode(code byte) (Operation, bool) {
	for _, op := range operations {
		if op.Code() == code {
			return op, true
		}
	}
	return nil, false
}
