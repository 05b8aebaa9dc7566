// Package instance builds the fixed instance grid and derives the per-instance transforms uploaded for instanced drawing.
package instance

import (
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultGridSize is the number of instances per axis.
const DefaultGridSize = 10

// DefaultSpacing is the distance between neighbouring instances along each axis.
const DefaultSpacing float32 = 3.0

// rotationAngle is the tilt applied to every instance off the origin.
var rotationAngle = mgl32.DegToRad(45)

// Instance is a single placed copy of the model.
type Instance struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// ToRaw derives translation(Position) × rotation(Rotation) as the column-major matrix the
// vertex stage reads at locations 5-8. Pure: equal inputs give bit-identical output.
//
// Returns:
//   - GPUInstanceRaw: the raw per-instance transform
func (i Instance) ToRaw() GPUInstanceRaw {
	translation := mgl32.Translate3D(i.Position.X(), i.Position.Y(), i.Position.Z())
	return GPUInstanceRaw{Model: translation.Mul4(i.Rotation.Mat4())}
}

// NewGrid lays out gridSize³ instances on a cube centred on the origin. Coordinates are
// spacing × (index − gridSize/2) per axis, generated with z outermost, then x, then y.
// Each instance is rotated 45° about its own normalized position; the one at the origin
// keeps the identity rotation.
//
// Parameters:
//   - gridSize: instances per axis
//   - spacing: distance between neighbours
//
// Returns:
//   - []Instance: gridSize³ instances, or nil if gridSize is not positive
func NewGrid(gridSize int, spacing float32) []Instance {
	if gridSize <= 0 {
		return nil
	}
	half := float32(gridSize) / 2
	instances := make([]Instance, 0, gridSize*gridSize*gridSize)
	for z := 0; z < gridSize; z++ {
		for x := 0; x < gridSize; x++ {
			for y := 0; y < gridSize; y++ {
				position := mgl32.Vec3{
					spacing * (float32(x) - half),
					spacing * (float32(y) - half),
					spacing * (float32(z) - half),
				}
				instances = append(instances, Instance{
					Position: position,
					Rotation: rotationFor(position),
				})
			}
		}
	}
	return instances
}

func rotationFor(position mgl32.Vec3) mgl32.Quat {
	if position.Len() == 0 {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatRotate(rotationAngle, position.Normalize())
}

// ToRawAll derives the raw transform of every instance, in order.
//
// Parameters:
//   - instances: the instance list
//
// Returns:
//   - []GPUInstanceRaw: one raw transform per instance
func ToRawAll(instances []Instance) []GPUInstanceRaw {
	raws := make([]GPUInstanceRaw, len(instances))
	for i, inst := range instances {
		raws[i] = inst.ToRaw()
	}
	return raws
}
