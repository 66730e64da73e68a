package blobs

import "github.com/pkg/errors"

var (
	// ErrTooFewFrames is returned when a search range covers less than two frames
	ErrTooFewFrames = errors.New("at least two frames are required for 3D blob search")
	// ErrInvalidFrameRange is returned when begin/end do not describe frames of the data set
	ErrInvalidFrameRange = errors.New("invalid frame range")
	// ErrInvalidMaxDepth is returned for octree depth outside [1, 10]
	ErrInvalidMaxDepth = errors.New("invalid octree max depth")
	// ErrInvalidMaxStorage is returned for octree storage below 1
	ErrInvalidMaxStorage = errors.New("invalid octree max storage")
	// ErrInvalidComponentRange is returned when min/max component counts are inconsistent
	ErrInvalidComponentRange = errors.New("invalid component range")
	// ErrInvalidConfidence is returned for non-positive confidence scales
	ErrInvalidConfidence = errors.New("invalid confidence scale")
	// ErrInvalidWorld is returned when an octree is built over an empty volume
	ErrInvalidWorld = errors.New("invalid octree world bounds")
	// ErrDegenerateBlob is returned when a blob has too little mass to define a shape
	ErrDegenerateBlob = errors.New("blob mass is too small")
	// ErrFrameShape is returned when a frame does not match the data set dimensions
	ErrFrameShape = errors.New("frame shape mismatch")
	// ErrEmptyStack is returned when a stack is created without frames
	ErrEmptyStack = errors.New("stack has no frames")
	// ErrInvalidMatchDistance is returned when collections are compared with a non-positive distance
	ErrInvalidMatchDistance = errors.New("invalid match distance")
	// ErrInvalidFilter is returned for filter parameters which describe no kernel
	ErrInvalidFilter = errors.New("invalid filter parameters")
)
