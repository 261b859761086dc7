package compute

import (
	"fmt"

	"github.com/kolvan/matrixctl/internal/calc/controller"
	"github.com/kolvan/matrixctl/internal/calc/conv"
	"github.com/kolvan/matrixctl/internal/calc/directory"
)

// stage is the compute session's position in its linear protocol.
type stage uint8

const (
	stageParseImage stage = iota
	stageParseOp
	stageParseKernel
	stageResolve
	stageAcquire
	stageStart
	stageRun
	stageCommit
	stageTranscript
	stageDone
)

// Stats tracks compute activity across sessions.
type Stats struct {
	// Ticks counts Tick calls while not done.
	Ticks uint64

	// Runs counts engine starts.
	Runs uint64

	// Completions counts sessions that produced a result transcript.
	Completions uint64

	// Aborts counts error aborts of any kind.
	Aborts uint64

	// Unsupported counts selections of placeholder operations.
	Unsupported uint64
}

// Controller is the compute-mode sub-controller.
type Controller struct {
	deps   controller.Deps
	engine *conv.Engine

	stage  stage
	parser controller.DigitParser

	imageSlot  int
	kernelSlot int
	op         Operation

	image  directory.View
	kernel directory.View

	out              directory.Placement
	outRows, outCols int
	waitTicks        int

	tr      *controller.Transcript
	errKind controller.ErrKind

	stats Stats
}

// New creates a compute controller with its own engine over the shared store.
func New(deps controller.Deps) *Controller {
	c := &Controller{deps: deps, engine: conv.New(deps.Store)}
	c.Reset()
	return c
}

// Reset discards the in-flight session and deasserts the engine.
func (c *Controller) Reset() {
	c.stage = stageParseImage
	c.parser.Reset()
	c.imageSlot, c.kernelSlot = 0, 0
	c.op = nil
	c.image, c.kernel = directory.View{}, directory.View{}
	c.out = directory.Placement{}
	c.outRows, c.outCols = 0, 0
	c.waitTicks = 0
	c.tr = nil
	c.errKind = controller.ErrNone
	c.engine.Stop()
}

// Done reports terminal state.
func (c *Controller) Done() bool { return c.stage == stageDone }

// Err returns the error kind of the last session.
func (c *Controller) Err() controller.ErrKind { return c.errKind }

// Stats returns a copy of the session statistics.
func (c *Controller) Stats() Stats { return c.stats }

// EngineStats returns the underlying engine's statistics.
func (c *Controller) EngineStats() conv.Stats { return c.engine.Stats() }

// Cycles returns the engine's cycle counter for the current/last run.
func (c *Controller) Cycles() uint64 { return c.engine.Cycles() }

// abort records the error kind and terminates the session.
func (c *Controller) abort(kind controller.ErrKind) {
	c.errKind = kind
	c.stage = stageDone
	c.stats.Aborts++
}

// Tick advances the session by one stage-step.
func (c *Controller) Tick() error {
	if c.stage == stageDone {
		return nil
	}
	c.stats.Ticks++

	switch c.stage {
	case stageParseImage, stageParseKernel:
		c.tickParseSlot()
	case stageParseOp:
		c.tickParseOp()
	case stageResolve:
		c.tickResolve()
	case stageAcquire:
		c.tickAcquire()
	case stageStart:
		return c.tickStart()
	case stageRun:
		return c.tickRun()
	case stageCommit:
		return c.tickCommit()
	case stageTranscript:
		return c.tickTranscript()
	}
	return nil
}

// tickParseSlot consumes one byte toward the image or kernel slot index.
func (c *Controller) tickParseSlot() {
	b, ok := c.deps.Port.Recv()
	if !ok {
		return
	}
	v, done := c.parser.Feed(b)
	if !done {
		return
	}
	if c.stage == stageParseImage {
		c.imageSlot = v
		c.stage = stageParseOp
	} else {
		c.kernelSlot = v
		c.stage = stageResolve
	}
}

// tickParseOp consumes the one-letter operation code. Separator bytes
// between the slot number and the code are tolerated.
func (c *Controller) tickParseOp() {
	b, ok := c.deps.Port.Recv()
	if !ok {
		return
	}
	if b == ' ' || b == '\r' || b == '\n' {
		return
	}
	op, known := OperationByCode(b)
	if !known {
		c.abort(controller.ErrDimRange)
		return
	}
	if !op.Implemented() {
		c.stats.Unsupported++
		c.abort(controller.ErrDimRange)
		return
	}
	c.op = op
	c.stage = stageParseKernel
}

// tickResolve validates both operands against the directory.
func (c *Controller) tickResolve() {
	c.image = c.deps.Dir.Query(c.imageSlot)
	c.kernel = c.deps.Dir.Query(c.kernelSlot)
	switch {
	case !c.image.Valid || !c.kernel.Valid:
		c.abort(controller.ErrDimRange)
	case c.kernel.Rows != conv.KernelSize || c.kernel.Cols != conv.KernelSize:
		c.abort(controller.ErrDimRange)
	case c.image.Rows < conv.KernelSize || c.image.Cols < conv.KernelSize:
		c.abort(controller.ErrDimRange)
	default:
		c.outRows = c.image.Rows - (conv.KernelSize - 1)
		c.outCols = c.image.Cols - (conv.KernelSize - 1)
		c.waitTicks = 0
		c.stage = stageAcquire
	}
}

// tickAcquire polls the allocator for the output matrix. Placements that
// would evict an operand slot are refused and retried; a persistent
// collision runs out the same bounded wait as a full store.
func (c *Controller) tickAcquire() {
	p, err := c.deps.Dir.Allocate(c.outRows, c.outCols)
	if err == nil && p.Slot != c.imageSlot && p.Slot != c.kernelSlot {
		c.out = p
		c.stage = stageStart
		return
	}
	c.waitTicks++
	if c.waitTicks >= c.deps.Cfg.AllocTimeoutTicks {
		c.abort(controller.ErrAllocTimeout)
	}
}

// tickStart asserts the engine.
func (c *Controller) tickStart() error {
	err := c.engine.Start(conv.Params{
		ImageAddr: c.image.Addr, ImageRows: c.image.Rows, ImageCols: c.image.Cols,
		KernelAddr: c.kernel.Addr,
		OutAddr:    c.out.Addr,
	})
	if err != nil {
		// Shapes were validated at resolve; reaching here is a wiring bug.
		return fmt.Errorf("compute: engine start: %w", err)
	}
	c.stats.Runs++
	c.stage = stageRun
	return nil
}

// tickRun advances the engine one cycle.
func (c *Controller) tickRun() error {
	if err := c.engine.Tick(); err != nil {
		return err
	}
	if c.engine.Done() {
		c.stage = stageCommit
	}
	return nil
}

// tickCommit publishes the result matrix and opens the result transcript.
func (c *Controller) tickCommit() error {
	if err := c.deps.Dir.Commit(c.out.Slot, c.outRows, c.outCols, c.out.Addr); err != nil {
		return fmt.Errorf("compute: commit: %w", err)
	}
	c.engine.Stop()
	c.tr = controller.NewTranscript(c.deps.Store, c.deps.Port,
		c.outRows, c.outCols, c.out.Addr, controller.MarkerResult)
	c.stage = stageTranscript
	return nil
}

// tickTranscript advances the result transcript by at most one byte.
func (c *Controller) tickTranscript() error {
	if err := c.tr.Tick(); err != nil {
		return err
	}
	if c.tr.Done() {
		c.stats.Completions++
		c.stage = stageDone
	}
	return nil
}
