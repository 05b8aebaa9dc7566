package instance

import (
	"bytes"
	"math"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

func TestNewGridCount(t *testing.T) {
	for _, n := range []int{1, 3, DefaultGridSize} {
		if got := len(NewGrid(n, DefaultSpacing)); got != n*n*n {
			t.Errorf("NewGrid(%d) has %d instances, want %d", n, got, n*n*n)
		}
	}
	if NewGrid(0, DefaultSpacing) != nil {
		t.Errorf("NewGrid(0) should be nil")
	}
}

func TestNewGridLayout(t *testing.T) {
	grid := NewGrid(DefaultGridSize, DefaultSpacing)

	first := grid[0].Position
	if !first.ApproxEqual(mgl32.Vec3{-15, -15, -15}) {
		t.Errorf("first position = %v, want (-15,-15,-15)", first)
	}
	// y varies fastest, then x, then z.
	if !grid[1].Position.ApproxEqual(mgl32.Vec3{-15, -12, -15}) {
		t.Errorf("second position = %v, want y advanced", grid[1].Position)
	}
	if !grid[10].Position.ApproxEqual(mgl32.Vec3{-12, -15, -15}) {
		t.Errorf("position 10 = %v, want x advanced", grid[10].Position)
	}
	if !grid[100].Position.ApproxEqual(mgl32.Vec3{-15, -15, -12}) {
		t.Errorf("position 100 = %v, want z advanced", grid[100].Position)
	}
}

func TestNewGridRotations(t *testing.T) {
	grid := NewGrid(DefaultGridSize, DefaultSpacing)

	origin := grid[5*100+5*10+5]
	if origin.Position != (mgl32.Vec3{}) {
		t.Fatalf("grid centre at %v, want origin", origin.Position)
	}
	if origin.Rotation != mgl32.QuatIdent() {
		t.Errorf("origin rotation = %v, want identity", origin.Rotation)
	}

	halfAngle := float64(mgl32.DegToRad(45)) / 2
	for i, inst := range grid {
		if inst.Position.Len() == 0 {
			continue
		}
		if math.Abs(float64(inst.Rotation.W)-math.Cos(halfAngle)) > 1e-5 {
			t.Fatalf("instance %d rotation W = %v, want cos(22.5°)", i, inst.Rotation.W)
		}
		axis := inst.Position.Normalize()
		if d := inst.Rotation.Rotate(axis).Sub(axis).Len(); d > 1e-5 {
			t.Fatalf("instance %d is not rotated about its own position: axis moved by %v", i, d)
		}
	}
}

func TestToRawIsTranslationTimesRotation(t *testing.T) {
	inst := Instance{
		Position: mgl32.Vec3{3, -6, 9},
		Rotation: mgl32.QuatRotate(mgl32.DegToRad(45), mgl32.Vec3{1, 0, 0}),
	}
	raw := inst.ToRaw()

	if got := raw.Model.Col(3); !got.ApproxEqual(mgl32.Vec4{3, -6, 9, 1}) {
		t.Errorf("translation column = %v", got)
	}
	point := mgl32.Vec3{0, 1, 0}
	want := inst.Rotation.Rotate(point).Add(inst.Position)
	if got := mgl32.TransformCoordinate(point, raw.Model); !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("transformed point = %v, want %v", got, want)
	}
}

func TestToRawIsDeterministic(t *testing.T) {
	for _, inst := range NewGrid(4, DefaultSpacing) {
		a, b := inst.ToRaw(), inst.ToRaw()
		if !bytes.Equal(a.Marshal(), b.Marshal()) {
			t.Fatalf("ToRaw not bit-identical for %v", inst.Position)
		}
	}
}

func TestMarshalAll(t *testing.T) {
	raws := ToRawAll(NewGrid(2, DefaultSpacing))
	buf := MarshalAll(raws)
	if len(buf) != 8*GPUInstanceRawSize {
		t.Fatalf("len = %d, want %d", len(buf), 8*GPUInstanceRawSize)
	}
	if !bytes.Equal(buf[GPUInstanceRawSize:2*GPUInstanceRawSize], raws[1].Marshal()) {
		t.Errorf("second record differs from its own Marshal")
	}
	if raws[0].Size() != GPUInstanceRawSize {
		t.Errorf("Size() = %d, want %d", raws[0].Size(), GPUInstanceRawSize)
	}
}

func TestVertexBufferLayout(t *testing.T) {
	layout := VertexBufferLayout()
	if layout.StepMode != wgpu.VertexStepModeInstance {
		t.Errorf("StepMode = %v, want instance", layout.StepMode)
	}
	if layout.ArrayStride != GPUInstanceRawSize {
		t.Errorf("ArrayStride = %d", layout.ArrayStride)
	}
	for i, attr := range layout.Attributes {
		if attr.ShaderLocation != uint32(5+i) || attr.Offset != uint64(16*i) || attr.Format != wgpu.VertexFormatFloat32x4 {
			t.Errorf("attribute %d = %+v", i, attr)
		}
	}
}
