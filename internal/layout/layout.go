// Package layout plans where each photo of a collage lands: centre,
// tilt and base size, as a pure function of the image count, the canvas
// size and a seeded random stream.
package layout

import (
	"math/rand"
)

// MaxImages is the largest number of photos a single collage accepts.
const MaxImages = 20

// Slot is the planned placement of one photo. CenterX and CenterY are in
// canvas pixels, Rotation is counter-clockwise degrees and TargetSize is the
// longer-side length before per-image size variation is applied.
type Slot struct {
	CenterX    int
	CenterY    int
	Rotation   float64
	TargetSize int
}

type point struct {
	x, y     float64
	rotation float64
}

// Hand-tuned scattered layouts for small counts, as fractions of the canvas.
var tables = map[int][]point{
	1: {
		{0.50, 0.50, -3},
	},
	2: {
		{0.35, 0.45, -4},
		{0.65, 0.55, 3},
	},
	3: {
		{0.30, 0.35, -5},
		{0.70, 0.40, 4},
		{0.50, 0.70, -3},
	},
	4: {
		{0.30, 0.30, -4},
		{0.70, 0.35, 5},
		{0.35, 0.70, 3},
		{0.68, 0.68, -3},
	},
	5: {
		{0.25, 0.28, -5},
		{0.70, 0.25, 4},
		{0.50, 0.50, -2},
		{0.28, 0.72, 3},
		{0.72, 0.70, -4},
	},
	6: {
		{0.22, 0.25, -4},
		{0.50, 0.22, 3},
		{0.78, 0.28, -5},
		{0.25, 0.70, 4},
		{0.52, 0.72, -3},
		{0.78, 0.68, 3},
	},
}

// Tilts used by the generated grid. Zero and ±1 are left out so no print
// looks axis-aligned.
var gridRotations = []float64{-5, -4, -3, -2, 2, 3, 4, 5}

const (
	gridColumns = 3
	gridOrigin  = 0.22
	gridStep    = 0.28
	gridJitter  = 20
)

// NewStream returns the seeded random stream shared by the planner and the
// per-image size variation draws of one render.
func NewStream(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// BaseFraction returns the base print size as a fraction of the canvas.
func BaseFraction(count int) float64 {
	switch {
	case count <= 1:
		return 0.85
	case count == 2:
		return 0.65
	case count <= 4:
		return 0.55
	case count <= 6:
		return 0.48
	default:
		return 0.42
	}
}

// BaseSize returns the base print size in pixels for count photos.
func BaseSize(count, canvasSize int) int {
	return int(float64(canvasSize) * BaseFraction(count))
}

// Plan returns count slots for a canvasSize square using a fresh stream
// seeded with seed.
func Plan(count, canvasSize int, seed int64) []Slot {
	return PlanFrom(NewStream(seed), count, canvasSize)
}

// PlanFrom is Plan drawing from an existing stream. For counts above six it
// consumes three draws per slot: x-jitter, y-jitter, then rotation. Smaller
// counts consume nothing.
func PlanFrom(rng *rand.Rand, count, canvasSize int) []Slot {
	if count <= 0 {
		return nil
	}
	size := float64(canvasSize)
	base := BaseSize(count, canvasSize)

	if table, ok := tables[count]; ok {
		slots := make([]Slot, len(table))
		for i, p := range table {
			slots[i] = Slot{
				CenterX:    int(size * p.x),
				CenterY:    int(size * p.y),
				Rotation:   p.rotation,
				TargetSize: base,
			}
		}
		return slots
	}

	slots := make([]Slot, count)
	for i := range slots {
		row := i / gridColumns
		col := i % gridColumns
		jx := rng.Intn(2*gridJitter+1) - gridJitter
		jy := rng.Intn(2*gridJitter+1) - gridJitter
		rot := gridRotations[rng.Intn(len(gridRotations))]
		slots[i] = Slot{
			CenterX:    int(size*(gridOrigin+float64(col)*gridStep) + float64(jx)),
			CenterY:    int(size*(gridOrigin+float64(row)*gridStep) + float64(jy)),
			Rotation:   rot,
			TargetSize: base,
		}
	}
	return slots
}

// SizeVariation draws the per-image scale factor in [0.9, 1.1).
func SizeVariation(rng *rand.Rand) float64 {
	return 0.9 + rng.Float64()*0.2
}
