package imagepkg

import (
	"errors"
	"fmt"
)

// ErrNoImagesAvailable is returned when no source survived fetch and decode.
var ErrNoImagesAvailable = errors.New("no images available")

// FetchError is a transport, timeout or HTTP failure for one source.
type FetchError struct {
	Ref string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Ref, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// DecodeError is a corrupt or unsupported payload for one source.
type DecodeError struct {
	Ref string
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode %s: %v", e.Ref, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError is a failure to serialise the finished canvas.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return fmt.Sprintf("encode collage: %v", e.Err) }
func (e *EncodeError) Unwrap() error { return e.Err }
