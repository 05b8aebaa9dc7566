package renderer

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-instancer/common"
	"github.com/Carmen-Shannon/oxy-instancer/engine/camera"
	"github.com/Carmen-Shannon/oxy-instancer/engine/model"
	"github.com/Carmen-Shannon/oxy-instancer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-instancer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-instancer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-instancer/engine/texture"
	"github.com/Carmen-Shannon/oxy-instancer/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

type drawCall struct {
	mesh       string
	instances  uint32
	bindGroups []string
}

// fakeBackend records calls and hands out resources without GPU handles.
type fakeBackend struct {
	configures     []SurfaceConfig
	depthTextures  int
	textures       []string
	layouts        []string
	meshBuffers    map[string]int
	bindGroups     []string
	pipelines      int
	writes         [][]byte
	begins         int
	ends           int
	presents       int
	draws          []drawCall
	vertexSlots    map[uint32]string
	released       bool
	beginErrs      []error
	endErr         error
	depthErr       error
	configureErr   error
	failConfigures int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{meshBuffers: map[string]int{}, vertexSlots: map[uint32]string{}}
}

func (f *fakeBackend) SurfaceFormat() wgpu.TextureFormat { return wgpu.TextureFormatBGRA8UnormSrgb }

func (f *fakeBackend) ConfigureSurface(cfg SurfaceConfig) error {
	if f.configureErr != nil && len(f.configures) >= f.failConfigures {
		return f.configureErr
	}
	f.configures = append(f.configures, cfg)
	return nil
}

func (f *fakeBackend) CreateDepthTexture(width, height uint32) (*texture.Texture, error) {
	if f.depthErr != nil {
		return nil, f.depthErr
	}
	f.depthTextures++
	return &texture.Texture{Label: "depth", Width: width, Height: height, Format: texture.DepthFormat}, nil
}

func (f *fakeBackend) CreateTexture(label string, staging common.TextureStagingData, _ common.SamplerStagingData) (*texture.Texture, error) {
	f.textures = append(f.textures, label)
	return &texture.Texture{Label: label, Width: staging.Width, Height: staging.Height, Format: texture.ColorFormat}, nil
}

func (f *fakeBackend) CreateBindGroupLayout(label string, _ wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	f.layouts = append(f.layouts, label)
	return nil, nil
}

func (f *fakeBackend) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, _ []byte, indexCount int) error {
	f.meshBuffers[provider.Label()] = len(vertexData)
	provider.SetIndexCount(indexCount)
	return nil
}

func (f *fakeBackend) InitBindGroup(provider bind_group_provider.BindGroupProvider, _ wgpu.BindGroupLayoutDescriptor, _ map[int]uint64) error {
	f.bindGroups = append(f.bindGroups, provider.Label())
	return nil
}

func (f *fakeBackend) RegisterRenderPipeline(p pipeline.Pipeline, _ []*wgpu.BindGroupLayout) error {
	if err := p.Validate(); err != nil {
		return err
	}
	f.pipelines++
	return nil
}

func (f *fakeBackend) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		f.writes = append(f.writes, w.Data)
	}
}

func (f *fakeBackend) BeginFrame(_ *texture.Texture, _ wgpu.Color) error {
	f.begins++
	if len(f.beginErrs) > 0 {
		err := f.beginErrs[0]
		f.beginErrs = f.beginErrs[1:]
		return err
	}
	return nil
}

func (f *fakeBackend) SetPipeline(pipeline.Pipeline) {}

func (f *fakeBackend) SetVertexBuffer(slot uint32, provider bind_group_provider.BindGroupProvider) {
	f.vertexSlots[slot] = provider.Label()
}

func (f *fakeBackend) DrawMesh(mesh bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) {
	call := drawCall{mesh: mesh.Label(), instances: instanceCount}
	for _, bg := range bindGroups {
		call.bindGroups = append(call.bindGroups, bg.Label())
	}
	f.draws = append(f.draws, call)
}

func (f *fakeBackend) EndFrame() error {
	f.ends++
	return f.endErr
}

func (f *fakeBackend) Present() { f.presents++ }

func (f *fakeBackend) Release() { f.released = true }

type fakeSource struct {
	model *model.ImportedModel
	err   error
	names []string
}

func (s *fakeSource) Load(name string) (*model.ImportedModel, error) {
	s.names = append(s.names, name)
	return s.model, s.err
}

func pixel() common.TextureStagingData {
	return common.TextureStagingData{Pixels: []byte{255, 255, 255, 255}, Width: 1, Height: 1}
}

func twoMeshModel() *model.ImportedModel {
	tri := []model.GPUVertex{{}, {Position: [3]float32{1, 0, 0}}, {Position: [3]float32{0, 1, 0}}}
	return &model.ImportedModel{
		Name: "pair.obj",
		Meshes: []model.ImportedMesh{
			{Name: "A", Vertices: tri, Indices: []uint32{0, 1, 2}, MaterialIndex: 1},
			{Name: "B", Vertices: tri, Indices: []uint32{0, 1, 2, 2, 1, 0}, MaterialIndex: 0},
		},
		Materials: []model.ImportedMaterial{
			{Name: "red", Diffuse: pixel()},
			{Name: "blue", Diffuse: pixel()},
		},
	}
}

func newTestState(t *testing.T, b *fakeBackend, opts ...StateBuilderOption) *state {
	t.Helper()
	st, err := NewState(b, 800, 600, &fakeSource{model: twoMeshModel()}, opts...)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return st.(*state)
}

func TestNewStateInitialisesResources(t *testing.T) {
	b := newFakeBackend()
	src := &fakeSource{model: twoMeshModel()}
	st, err := NewState(b, 800, 600, src, WithGrid(2, 1), WithModel("pair.obj"), WithPresentMode(PresentModeUncapped))
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	defer st.Release()

	if len(src.names) != 1 || src.names[0] != "pair.obj" {
		t.Fatalf("loaded %v", src.names)
	}
	if len(b.configures) != 1 {
		t.Fatalf("configured %d times", len(b.configures))
	}
	cfg := st.Config()
	if cfg.Width != 800 || cfg.Height != 600 || cfg.PresentMode != PresentModeUncapped || cfg.Format != wgpu.TextureFormatBGRA8UnormSrgb {
		t.Fatalf("config %+v", cfg)
	}
	if len(st.Instances()) != 8 {
		t.Fatalf("instances %d, want 8", len(st.Instances()))
	}
	if got := b.meshBuffers["Instance"]; got != 8*64 {
		t.Fatalf("instance buffer %d bytes", got)
	}
	if len(b.layouts) != 2 || b.layouts[0] != "texture_bind_group_layout" || b.layouts[1] != "camera_bind_group_layout" {
		t.Fatalf("layouts %v", b.layouts)
	}
	if len(b.textures) != 2 || b.depthTextures != 1 || b.pipelines != 1 {
		t.Fatalf("textures %v depth %d pipelines %d", b.textures, b.depthTextures, b.pipelines)
	}
	if len(b.writes) != 1 || len(b.writes[0]) != 64 {
		t.Fatalf("initial camera write missing: %d writes", len(b.writes))
	}
	if want := float32(800) / 600; st.Camera().Aspect() != want {
		t.Fatalf("aspect %v, want %v", st.Camera().Aspect(), want)
	}
	if st.Model().Meshes()[1].NumElements() != 6 {
		t.Fatalf("mesh B elements %d", st.Model().Meshes()[1].NumElements())
	}
	if st.Phase() != FrameIdle {
		t.Fatalf("phase %v", st.Phase())
	}
}

func TestNewStateRejectsZeroSize(t *testing.T) {
	b := newFakeBackend()
	_, err := NewState(b, 0, 600, &fakeSource{model: twoMeshModel()})
	if !errors.Is(err, ErrInvalidSurfaceSize) {
		t.Fatalf("err %v", err)
	}
	if !b.released {
		t.Fatal("backend not released")
	}
	if len(b.configures) != 0 {
		t.Fatal("surface configured for invalid size")
	}
}

func TestNewStateReleasesOnFailure(t *testing.T) {
	loadErr := errors.New("missing texture")
	tests := []struct {
		name   string
		setup  func(*fakeBackend)
		source *fakeSource
		want   error
	}{
		{"depth", func(b *fakeBackend) { b.depthErr = errors.New("no memory") }, &fakeSource{model: twoMeshModel()}, nil},
		{"load", func(*fakeBackend) {}, &fakeSource{err: loadErr}, loadErr},
		{"bad material index", func(*fakeBackend) {}, &fakeSource{model: &model.ImportedModel{
			Meshes: []model.ImportedMesh{{Name: "A", Indices: []uint32{0, 1, 2}, MaterialIndex: 3}},
		}}, model.ErrInvalidMaterialIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			tt.setup(b)
			st, err := NewState(b, 800, 600, tt.source)
			if err == nil || st != nil {
				t.Fatalf("state %v err %v", st, err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("err %v, want %v", err, tt.want)
			}
			if !b.released {
				t.Fatal("backend not released")
			}
		})
	}
}

func TestRenderDrawsEveryMeshForEveryInstance(t *testing.T) {
	b := newFakeBackend()
	st := newTestState(t, b, WithGrid(3, 2))

	st.Update()
	if err := st.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b.begins != 1 || b.ends != 1 || b.presents != 1 {
		t.Fatalf("begin %d end %d present %d", b.begins, b.ends, b.presents)
	}
	if b.vertexSlots[1] != "Instance" {
		t.Fatalf("slot 1 bound to %q", b.vertexSlots[1])
	}
	want := []drawCall{
		{mesh: "A", instances: 27, bindGroups: []string{"blue", "Camera"}},
		{mesh: "B", instances: 27, bindGroups: []string{"red", "Camera"}},
	}
	if len(b.draws) != len(want) {
		t.Fatalf("draws %+v", b.draws)
	}
	for i, d := range b.draws {
		w := want[i]
		if d.mesh != w.mesh || d.instances != w.instances || len(d.bindGroups) != 2 ||
			d.bindGroups[0] != w.bindGroups[0] || d.bindGroups[1] != w.bindGroups[1] {
			t.Fatalf("draw %d = %+v, want %+v", i, d, w)
		}
	}
	if st.PresentedFrames() != 1 {
		t.Fatalf("presented %d", st.PresentedFrames())
	}
}

func TestRenderRequiresUpdate(t *testing.T) {
	b := newFakeBackend()
	st := newTestState(t, b)

	if err := st.Render(); !errors.Is(err, ErrNotUpdated) {
		t.Fatalf("err %v", err)
	}
	st.Update()
	if err := st.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := st.Render(); !errors.Is(err, ErrNotUpdated) {
		t.Fatalf("second render err %v", err)
	}
	if b.begins != 1 {
		t.Fatalf("begins %d", b.begins)
	}
}

func TestUpdatesCoalesceIntoOneRender(t *testing.T) {
	b := newFakeBackend()
	st := newTestState(t, b)
	st.Input(window.EventKey{Key: common.KeyW, Pressed: true})

	before := st.Camera().Eye()
	st.Update()
	st.Update()
	st.Update()
	if err := st.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b.begins != 1 {
		t.Fatalf("begins %d", b.begins)
	}
	if len(b.writes) != 4 {
		t.Fatalf("writes %d, want initial + 3", len(b.writes))
	}
	if st.Camera().Eye() == before {
		t.Fatal("camera did not move")
	}
	u := camera.NewGPUCameraUniform()
	u.UpdateViewProj(st.Camera())
	if string(b.writes[3]) != string(u.Marshal()) {
		t.Fatal("last write does not hold the current view-projection")
	}
}

func TestInputRoutesKeysToController(t *testing.T) {
	st := newTestState(t, newFakeBackend())

	if !st.Input(window.EventKey{Key: common.KeyA, Pressed: true}) {
		t.Fatal("A not consumed")
	}
	if st.Input(window.EventKey{Key: common.KeyEsc, Pressed: true}) {
		t.Fatal("Escape consumed")
	}
	if st.Input(window.EventResized{Width: 10, Height: 10}) {
		t.Fatal("resize consumed")
	}
}

func TestResize(t *testing.T) {
	b := newFakeBackend()
	st := newTestState(t, b)
	oldDepth := st.depth
	oldAspect := st.Camera().Aspect()

	for _, size := range [][2]uint32{{0, 400}, {400, 0}, {0, 0}} {
		if err := st.Resize(size[0], size[1]); err != nil {
			t.Fatalf("Resize(%d, %d): %v", size[0], size[1], err)
		}
	}
	if len(b.configures) != 1 || st.depth != oldDepth {
		t.Fatal("zero-size resize was not a no-op")
	}
	if cfg := st.Config(); cfg.Width != 800 || cfg.Height != 600 {
		t.Fatalf("zero-size resize changed config to %+v", cfg)
	}
	if st.Camera().Aspect() != oldAspect {
		t.Fatalf("zero-size resize changed aspect to %v", st.Camera().Aspect())
	}

	if err := st.Resize(1024, 512); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if len(b.configures) != 2 {
		t.Fatalf("configures %d", len(b.configures))
	}
	if cfg := st.Config(); cfg.Width != 1024 || cfg.Height != 512 {
		t.Fatalf("config %+v", cfg)
	}
	if st.Camera().Aspect() != 2 {
		t.Fatalf("aspect %v", st.Camera().Aspect())
	}
	if st.depth == oldDepth || st.depth.Width != 1024 || st.depth.Height != 512 {
		t.Fatalf("depth %+v", st.depth)
	}
}

func TestResizeKeepsConfigOnFailure(t *testing.T) {
	b := newFakeBackend()
	st := newTestState(t, b)
	oldDepth := st.depth
	b.configureErr = errors.New("boom")
	b.failConfigures = 1

	if err := st.Resize(1024, 512); err == nil {
		t.Fatal("expected error")
	}
	if cfg := st.Config(); cfg.Width != 800 || cfg.Height != 600 {
		t.Fatalf("config changed to %+v", cfg)
	}
	if st.depth != oldDepth {
		t.Fatalf("depth replaced by %dx%d", st.depth.Width, st.depth.Height)
	}
}

func TestResizeKeepsDepthMatchingOnFailure(t *testing.T) {
	b := newFakeBackend()
	st := newTestState(t, b)
	oldDepth := st.depth
	oldAspect := st.Camera().Aspect()
	b.depthErr = errors.New("oom")

	if err := st.Resize(1024, 512); err == nil {
		t.Fatal("expected error")
	}
	cfg := st.Config()
	if cfg.Width != 800 || cfg.Height != 600 {
		t.Fatalf("config changed to %+v", cfg)
	}
	if st.depth != oldDepth || st.depth.Width != cfg.Width || st.depth.Height != cfg.Height {
		t.Fatalf("depth %dx%d, surface %dx%d", st.depth.Width, st.depth.Height, cfg.Width, cfg.Height)
	}
	if len(b.configures) != 1 {
		t.Fatalf("surface reconfigured %d times", len(b.configures)-1)
	}
	if st.Camera().Aspect() != oldAspect {
		t.Fatalf("aspect changed to %v", st.Camera().Aspect())
	}
}

func TestFrameRecoversLostSurface(t *testing.T) {
	for _, msg := range []string{"surface texture status: Lost", "surface texture status: Outdated"} {
		t.Run(msg, func(t *testing.T) {
			b := newFakeBackend()
			prof := profiler.NewProfiler(time.Hour)
			st := newTestState(t, b, WithProfiler(prof))
			b.beginErrs = []error{errors.New(msg)}

			if err := st.Frame(); err != nil {
				t.Fatalf("Frame: %v", err)
			}
			if st.Phase() != FrameResized {
				t.Fatalf("phase %v", st.Phase())
			}
			if len(b.configures) != 2 {
				t.Fatalf("configures %d", len(b.configures))
			}
			last := b.configures[1]
			if last.Width != 800 || last.Height != 600 {
				t.Fatalf("reconfigured at %dx%d", last.Width, last.Height)
			}
			if prof.Dropped() != 1 || prof.Presented() != 0 {
				t.Fatalf("dropped %d presented %d", prof.Dropped(), prof.Presented())
			}

			if err := st.Frame(); err != nil {
				t.Fatalf("Frame after recovery: %v", err)
			}
			if st.Phase() != FrameIdle || prof.Presented() != 1 {
				t.Fatalf("phase %v presented %d", st.Phase(), prof.Presented())
			}
		})
	}
}

func TestFrameSkipsTimeout(t *testing.T) {
	b := newFakeBackend()
	st := newTestState(t, b)
	b.beginErrs = []error{errors.New("surface texture status: Timeout")}

	if err := st.Frame(); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if st.Phase() != FrameIdle || len(b.configures) != 1 || b.presents != 0 {
		t.Fatalf("phase %v configures %d presents %d", st.Phase(), len(b.configures), b.presents)
	}
	if err := st.Frame(); err != nil || b.presents != 1 {
		t.Fatalf("next frame err %v presents %d", err, b.presents)
	}
}

func TestFrameTerminatesOnFatalError(t *testing.T) {
	tests := []struct {
		name string
		prep func(*fakeBackend)
		want error
	}{
		{"out of memory on acquire", func(b *fakeBackend) { b.beginErrs = []error{errors.New("OutOfMemory")} }, ErrOutOfMemory},
		{"device lost on submit", func(b *fakeBackend) { b.endErr = errors.New("device lost") }, ErrDeviceLost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			st := newTestState(t, b)
			tt.prep(b)

			err := st.Frame()
			if !errors.Is(err, ErrFatalRender) || !errors.Is(err, tt.want) {
				t.Fatalf("err %v", err)
			}
			if st.Phase() != FrameTerminated {
				t.Fatalf("phase %v", st.Phase())
			}
			if err := st.Frame(); !errors.Is(err, ErrTerminated) {
				t.Fatalf("frame after termination: %v", err)
			}
			if err := st.Render(); !errors.Is(err, ErrTerminated) {
				t.Fatalf("render after termination: %v", err)
			}
		})
	}
}

func TestFrameTerminatesWhenRecoveryFails(t *testing.T) {
	b := newFakeBackend()
	st := newTestState(t, b)
	b.beginErrs = []error{errors.New("Lost")}
	b.configureErr = errors.New("configure failed")
	b.failConfigures = 1

	if err := st.Frame(); !errors.Is(err, ErrFatalRender) {
		t.Fatalf("err %v", err)
	}
	if st.Phase() != FrameTerminated {
		t.Fatalf("phase %v", st.Phase())
	}
}

func TestReleaseReleasesBackend(t *testing.T) {
	b := newFakeBackend()
	st := newTestState(t, b)
	st.Release()
	if !b.released {
		t.Fatal("backend not released")
	}
	if st.Phase() != FrameTerminated {
		t.Fatalf("phase %v", st.Phase())
	}
	st.Release()
}

func TestAspectFollowsSurface(t *testing.T) {
	b := newFakeBackend()
	st, err := NewState(b, 1280, 720, &fakeSource{model: twoMeshModel()})
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	s := st.(*state)
	if got := s.Camera().Aspect(); got < 1.777 || got > 1.778 {
		t.Fatalf("aspect %v, want ~1.778", got)
	}
	if err := s.Resize(640, 480); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if got := s.Camera().Aspect(); got < 1.333 || got > 1.334 {
		t.Fatalf("aspect %v, want ~1.333", got)
	}
	if s.depth.Width != 640 || s.depth.Height != 480 {
		t.Fatalf("depth %dx%d", s.depth.Width, s.depth.Height)
	}
}

func TestRecoveredFrameIsNotPresented(t *testing.T) {
	b := newFakeBackend()
	st := newTestState(t, b)
	st.Update()
	if err := st.Render(); err != nil {
		t.Fatal(err)
	}
	b.beginErrs = []error{errors.New("Outdated")}
	if err := st.Frame(); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if st.PresentedFrames() != 1 || b.presents != 1 {
		t.Fatalf("presented %d presents %d", st.PresentedFrames(), b.presents)
	}
}
