package collage

import (
	"errors"

	imagepkg "github.com/youruser/collageapp/internal/image"
)

var (
	// ErrNoImagesAvailable means every source failed to fetch or decode.
	ErrNoImagesAvailable = imagepkg.ErrNoImagesAvailable

	ErrNoSources     = errors.New("no image sources given")
	ErrTooManyImages = errors.New("too many images")
	ErrInvalidConfig = errors.New("invalid collage config")
)
