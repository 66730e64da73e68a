package blobs

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DataSet is a stack of detector frames of equal shape
type DataSet interface {
	NRows() int
	NCols() int
	NFrames() int
	// Iterator returns an iterator positioned at frame begin
	Iterator(begin int) (FrameIterator, error)
}

// FrameIterator walks frames in increasing index order. Advance may block on I/O.
type FrameIterator interface {
	// Index returns index of the current frame
	Index() int
	// Frame returns current frame as rows x cols matrix
	Frame() *mat.Dense
	// Advance moves to the next frame
	Advance() error
}

// Stack is an in-memory DataSet
type Stack struct {
	frames []*mat.Dense
	nrows  int
	ncols  int
}

// NewStack creates stack over given frames. Every frame must have the shape of the first one.
func NewStack(frames []*mat.Dense) (*Stack, error) {
	if len(frames) == 0 {
		return nil, ErrEmptyStack
	}
	nrows, ncols := frames[0].Dims()
	for i, frame := range frames {
		r, c := frame.Dims()
		if r != nrows || c != ncols {
			return nil, errors.Wrapf(ErrFrameShape, "frame %d is %dx%d, expected %dx%d", i, r, c, nrows, ncols)
		}
	}
	return &Stack{
		frames: frames,
		nrows:  nrows,
		ncols:  ncols,
	}, nil
}

// NRows returns number of detector rows
func (stack *Stack) NRows() int {
	return stack.nrows
}

// NCols returns number of detector columns
func (stack *Stack) NCols() int {
	return stack.ncols
}

// NFrames returns number of frames
func (stack *Stack) NFrames() int {
	return len(stack.frames)
}

// Iterator returns iterator positioned at frame begin
func (stack *Stack) Iterator(begin int) (FrameIterator, error) {
	if begin < 0 || begin >= len(stack.frames) {
		return nil, errors.Wrapf(ErrInvalidFrameRange, "begin frame %d, stack has %d frames", begin, len(stack.frames))
	}
	return &stackIterator{stack: stack, index: begin}, nil
}

type stackIterator struct {
	stack *Stack
	index int
}

func (it *stackIterator) Index() int {
	return it.index
}

func (it *stackIterator) Frame() *mat.Dense {
	return it.stack.frames[it.index]
}

func (it *stackIterator) Advance() error {
	if it.index+1 >= len(it.stack.frames) {
		return errors.Wrapf(ErrInvalidFrameRange, "no frame after %d", it.index)
	}
	it.index++
	return nil
}
