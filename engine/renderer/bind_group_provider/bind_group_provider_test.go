package bind_group_provider

import "testing"

func TestNewBindGroupProviderStartsEmpty(t *testing.T) {
	p := NewBindGroupProvider("camera")
	if p.Label() != "camera" {
		t.Errorf("Label() = %q, want camera", p.Label())
	}
	if p.BindGroup() != nil || p.Buffer(0) != nil || p.VertexBuffer() != nil || p.IndexBuffer() != nil {
		t.Errorf("expected no GPU resources before initialization")
	}
}

func TestReleaseResetsCounts(t *testing.T) {
	p := NewBindGroupProvider("mesh")
	p.SetIndexCount(36)
	p.SetBuffer(0, nil)
	p.Release()
	if p.IndexCount() != 0 {
		t.Errorf("IndexCount() = %d after Release, want 0", p.IndexCount())
	}
	// A second release must be harmless.
	p.Release()
}
