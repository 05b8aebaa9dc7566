package renderer

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Carmen-Shannon/oxy-instancer/common"
	"github.com/Carmen-Shannon/oxy-instancer/engine/camera"
	"github.com/Carmen-Shannon/oxy-instancer/engine/instance"
	"github.com/Carmen-Shannon/oxy-instancer/engine/model"
	"github.com/Carmen-Shannon/oxy-instancer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-instancer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-instancer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-instancer/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-instancer/engine/texture"
	"github.com/Carmen-Shannon/oxy-instancer/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"golang.org/x/time/rate"
)

const (
	// materialGroup and cameraGroup are the bind group indices the shader declares.
	materialGroup = 0
	cameraGroup   = 1

	// instanceSlot is the vertex buffer slot of the per-instance transforms; meshes use slot 0.
	instanceSlot = 1
)

// DefaultClearColor is the colour every frame is cleared to unless configured otherwise.
var DefaultClearColor = wgpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1.0}

// ModelSource loads a model by name into CPU-side data ready for upload.
type ModelSource interface {
	// Load returns the imported model. Every mesh's material index must be valid and every
	// material texture must have loaded, otherwise an error is returned.
	//
	// Parameters:
	//   - name: the model file name
	//
	// Returns:
	//   - *model.ImportedModel: the model
	//   - error: a load failure
	Load(name string) (*model.ImportedModel, error)
}

type state struct {
	backend Backend
	config  SurfaceConfig

	// Construction parameters collected from builder options
	presentMode       PresentMode
	clearColor        wgpu.Color
	gridSize          int
	spacing           float32
	modelName         string
	cameraOptions     []camera.CameraBuilderOption
	controllerOptions []camera.CameraControllerBuilderOption
	profiler          *profiler.Profiler

	shader        shader.Shader
	pipeline      pipeline.Pipeline
	depth         *texture.Texture
	textureLayout *wgpu.BindGroupLayout
	cameraLayout  *wgpu.BindGroupLayout

	camera         camera.Camera
	controller     camera.CameraController
	cameraUniform  camera.GPUCameraUniform
	cameraProvider bind_group_provider.BindGroupProvider

	instances        []instance.Instance
	instanceProvider bind_group_provider.BindGroupProvider

	model model.Model

	phase     FramePhase
	presented uint64
	limiter   *rate.Limiter
}

// State is the core of the renderer: it owns every GPU resource needed to draw an instanced
// model, and runs the update/render cycle for one window surface. All methods must be called
// from the thread that owns the window.
type State interface {
	// Resize reconfigures the surface and recreates the depth target. A zero dimension is
	// ignored, since minimized windows report zero sizes.
	//
	// Parameters:
	//   - width: new surface width in pixels
	//   - height: new surface height in pixels
	//
	// Returns:
	//   - error: an error if the surface or depth target could not be recreated
	Resize(width, height uint32) error

	// Input feeds a window event to the camera controller.
	//
	// Parameters:
	//   - ev: the event
	//
	// Returns:
	//   - bool: true if the event was consumed
	Input(ev window.Event) bool

	// Update applies the controller to the camera and stages the new camera uniform.
	// Nothing is submitted to the GPU until the next Render.
	Update()

	// Render draws every mesh of the model for every instance in one render pass and presents.
	// Requires a preceding Update.
	//
	// Returns:
	//   - error: ErrNotUpdated, ErrTerminated, or the classified surface/submit error
	Render() error

	// Frame runs Update then Render and reacts to the outcome: lost or outdated surfaces are
	// reconfigured at the current size, out-of-memory and device loss terminate the state,
	// and any other failure is logged and the frame skipped.
	//
	// Returns:
	//   - error: nil unless rendering was terminated, in which case it wraps ErrFatalRender
	Frame() error

	// Phase returns the current frame phase.
	//
	// Returns:
	//   - FramePhase: the phase
	Phase() FramePhase

	// Config returns the current surface configuration.
	//
	// Returns:
	//   - SurfaceConfig: the configuration
	Config() SurfaceConfig

	// Camera returns the camera.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Instances returns the instance grid.
	//
	// Returns:
	//   - []instance.Instance: the instances in upload order
	Instances() []instance.Instance

	// Model returns the uploaded model.
	//
	// Returns:
	//   - model.Model: the model
	Model() model.Model

	// PresentedFrames returns the number of frames presented.
	//
	// Returns:
	//   - uint64: frames presented
	PresentedFrames() uint64

	// Release frees every GPU resource in dependency order, then the backend.
	Release()
}

var _ State = &state{}

// NewState builds the complete render state: surface configuration, instance buffer, bind group
// layouts, camera uniform and bind group, depth target, model upload and render pipeline.
// Construction is all-or-nothing; on failure every resource created so far is released,
// the backend included.
//
// Parameters:
//   - backend: the GPU backend; ownership moves to the state
//   - width: initial surface width in pixels
//   - height: initial surface height in pixels
//   - source: the model loader
//   - opts: state options
//
// Returns:
//   - State: the ready state
//   - error: ErrInvalidSurfaceSize or the first initialisation failure
func NewState(backend Backend, width, height uint32, source ModelSource, opts ...StateBuilderOption) (State, error) {
	s := &state{
		backend:     backend,
		presentMode: PresentModeVSync,
		clearColor:  DefaultClearColor,
		gridSize:    instance.DefaultGridSize,
		spacing:     instance.DefaultSpacing,
		modelName:   "cube.obj",
		limiter:     rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.init(width, height, source); err != nil {
		s.Release()
		return nil, err
	}
	log.Printf("[Renderer] ready: %dx%d %s, %d instances, %d meshes, %d materials",
		width, height, s.presentMode, len(s.instances), len(s.model.Meshes()), len(s.model.Materials()))
	return s, nil
}

func (s *state) init(width, height uint32, source ModelSource) error {
	if width == 0 || height == 0 {
		return ErrInvalidSurfaceSize
	}
	if source == nil {
		return errors.New("renderer: nil model source")
	}

	s.config = SurfaceConfig{
		Format:      s.backend.SurfaceFormat(),
		Width:       width,
		Height:      height,
		PresentMode: s.presentMode,
	}
	if err := s.backend.ConfigureSurface(s.config); err != nil {
		return fmt.Errorf("configure surface: %w", err)
	}

	s.instances = instance.NewGrid(s.gridSize, s.spacing)
	s.instanceProvider = bind_group_provider.NewBindGroupProvider("Instance")
	raw := instance.MarshalAll(instance.ToRawAll(s.instances))
	if err := s.backend.InitMeshBuffers(s.instanceProvider, raw, nil, 0); err != nil {
		return fmt.Errorf("instance buffer: %w", err)
	}

	sh, err := shader.NewInstancedShader()
	if err != nil {
		return err
	}
	s.shader = sh
	if s.textureLayout, err = s.backend.CreateBindGroupLayout("texture_bind_group_layout", sh.BindGroupLayoutDescriptor(materialGroup)); err != nil {
		return fmt.Errorf("texture layout: %w", err)
	}
	if s.cameraLayout, err = s.backend.CreateBindGroupLayout("camera_bind_group_layout", sh.BindGroupLayoutDescriptor(cameraGroup)); err != nil {
		return fmt.Errorf("camera layout: %w", err)
	}

	s.camera = camera.NewCamera(append(s.cameraOptions, camera.WithAspect(float32(width)/float32(height)))...)
	s.controller = camera.NewCameraController(s.controllerOptions...)
	s.cameraUniform = camera.NewGPUCameraUniform()
	s.cameraUniform.UpdateViewProj(s.camera)
	s.cameraProvider = bind_group_provider.NewBindGroupProvider("Camera", bind_group_provider.WithBindGroupLayout(s.cameraLayout))
	sizes := map[int]uint64{0: uint64(s.cameraUniform.Size())}
	if err := s.backend.InitBindGroup(s.cameraProvider, sh.BindGroupLayoutDescriptor(cameraGroup), sizes); err != nil {
		return fmt.Errorf("camera bind group: %w", err)
	}
	s.backend.WriteBuffers([]bind_group_provider.BufferWrite{s.cameraWrite()})

	if s.depth, err = s.backend.CreateDepthTexture(width, height); err != nil {
		return fmt.Errorf("depth texture: %w", err)
	}

	imported, err := source.Load(s.modelName)
	if err != nil {
		return fmt.Errorf("load model %q: %w", s.modelName, err)
	}
	if s.model, err = s.uploadModel(imported); err != nil {
		return fmt.Errorf("upload model %q: %w", s.modelName, err)
	}

	s.pipeline = pipeline.NewPipeline("Render Pipeline",
		pipeline.WithShader(sh),
		pipeline.WithVertexLayouts(model.VertexBufferLayout(), instance.VertexBufferLayout()),
	)
	if err := s.backend.RegisterRenderPipeline(s.pipeline, []*wgpu.BindGroupLayout{s.textureLayout, s.cameraLayout}); err != nil {
		return fmt.Errorf("render pipeline: %w", err)
	}

	s.phase = FrameIdle
	return nil
}

// uploadModel creates one texture and bind group per material and one buffer pair per mesh.
// The partially built model is released on failure.
func (s *state) uploadModel(imported *model.ImportedModel) (model.Model, error) {
	if err := imported.Validate(); err != nil {
		return nil, err
	}
	m := model.NewModel(imported.Name)
	materialDesc := s.shader.BindGroupLayoutDescriptor(materialGroup)

	for _, im := range imported.Materials {
		tex, err := s.backend.CreateTexture(im.Name, im.Diffuse, common.DiffuseSampler)
		if err != nil {
			m.Release()
			return nil, fmt.Errorf("material %q: %w", im.Name, err)
		}
		provider := bind_group_provider.NewBindGroupProvider(im.Name,
			bind_group_provider.WithBindGroupLayout(s.textureLayout),
			bind_group_provider.WithTextureView(0, tex.View),
			bind_group_provider.WithSampler(1, tex.Sampler),
		)
		m.AddMaterial(&model.Material{Name: im.Name, Texture: tex, Provider: provider})
		if err := s.backend.InitBindGroup(provider, materialDesc, nil); err != nil {
			m.Release()
			return nil, fmt.Errorf("material %q: %w", im.Name, err)
		}
	}

	for _, mesh := range imported.Meshes {
		provider := bind_group_provider.NewBindGroupProvider(mesh.Name)
		m.AddMesh(&model.Mesh{Name: mesh.Name, Provider: provider, MaterialIndex: mesh.MaterialIndex})
		vertices := model.MarshalVertices(mesh.Vertices)
		indices := common.Uint32sToBytes(mesh.Indices)
		if err := s.backend.InitMeshBuffers(provider, vertices, indices, len(mesh.Indices)); err != nil {
			m.Release()
			return nil, fmt.Errorf("mesh %q: %w", mesh.Name, err)
		}
	}

	if err := m.Validate(); err != nil {
		m.Release()
		return nil, err
	}
	return m, nil
}

func (s *state) cameraWrite() bind_group_provider.BufferWrite {
	return bind_group_provider.BufferWrite{
		Provider: s.cameraProvider,
		Binding:  0,
		Offset:   0,
		Data:     s.cameraUniform.Marshal(),
	}
}

func (s *state) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}

	// The depth target is created before the surface changes so a failure leaves both at the old size.
	depth, err := s.backend.CreateDepthTexture(width, height)
	if err != nil {
		return fmt.Errorf("depth texture: %w", err)
	}

	cfg := s.config
	cfg.Width = width
	cfg.Height = height
	if err := s.backend.ConfigureSurface(cfg); err != nil {
		depth.Release()
		return fmt.Errorf("configure surface: %w", err)
	}
	s.config = cfg
	s.camera.SetAspect(float32(width) / float32(height))
	s.depth.Release()
	s.depth = depth
	return nil
}

func (s *state) Input(ev window.Event) bool {
	if key, ok := ev.(window.EventKey); ok {
		return s.controller.ProcessKey(key.Key, key.Pressed)
	}
	return false
}

func (s *state) Update() {
	if s.phase == FrameTerminated {
		return
	}
	s.controller.UpdateCamera(s.camera)
	s.cameraUniform.UpdateViewProj(s.camera)
	s.backend.WriteBuffers([]bind_group_provider.BufferWrite{s.cameraWrite()})
	s.phase = FrameUpdated
}

func (s *state) Render() error {
	switch s.phase {
	case FrameTerminated:
		return ErrTerminated
	case FrameUpdated:
	default:
		return ErrNotUpdated
	}
	s.phase = FrameRendered

	if err := s.backend.BeginFrame(s.depth, s.clearColor); err != nil {
		return classifySurfaceError(err)
	}

	s.backend.SetPipeline(s.pipeline)
	s.backend.SetVertexBuffer(instanceSlot, s.instanceProvider)
	instanceCount := uint32(len(s.instances))
	for _, mesh := range s.model.Meshes() {
		mat := s.model.Material(mesh.MaterialIndex)
		s.backend.DrawMesh(mesh.Provider, instanceCount, []bind_group_provider.BindGroupProvider{mat.Provider, s.cameraProvider})
	}

	if err := s.backend.EndFrame(); err != nil {
		return classifySurfaceError(err)
	}
	s.backend.Present()
	s.presented++
	return nil
}

func (s *state) Frame() error {
	if s.phase == FrameTerminated {
		return ErrTerminated
	}

	s.Update()
	err := s.Render()
	switch {
	case err == nil:
		s.phase = FrameIdle
		if s.profiler != nil {
			s.profiler.FramePresented()
		}
		return nil

	case isRecoverable(err):
		s.frameDropped()
		log.Printf("[Renderer] %v, reconfiguring surface at %dx%d", err, s.config.Width, s.config.Height)
		if rerr := s.Resize(s.config.Width, s.config.Height); rerr != nil {
			s.phase = FrameTerminated
			return fmt.Errorf("%w: %w", ErrFatalRender, rerr)
		}
		s.phase = FrameResized
		return nil

	case isFatal(err):
		s.frameDropped()
		s.phase = FrameTerminated
		log.Printf("[Renderer] fatal: %v", err)
		return fmt.Errorf("%w: %w", ErrFatalRender, err)

	default:
		s.frameDropped()
		if s.limiter.Allow() {
			log.Printf("[Renderer] frame skipped: %v", err)
		}
		s.phase = FrameIdle
		return nil
	}
}

func (s *state) frameDropped() {
	if s.profiler != nil {
		s.profiler.FrameDropped()
	}
}

func (s *state) Phase() FramePhase {
	return s.phase
}

func (s *state) Config() SurfaceConfig {
	return s.config
}

func (s *state) Camera() camera.Camera {
	return s.camera
}

func (s *state) Instances() []instance.Instance {
	return s.instances
}

func (s *state) Model() model.Model {
	return s.model
}

func (s *state) PresentedFrames() uint64 {
	return s.presented
}

func (s *state) Release() {
	if s.model != nil {
		s.model.Release()
		s.model = nil
	}
	if s.instanceProvider != nil {
		s.instanceProvider.Release()
		s.instanceProvider = nil
	}
	if s.cameraProvider != nil {
		s.cameraProvider.Release()
		s.cameraProvider = nil
	}
	if s.depth != nil {
		s.depth.Release()
		s.depth = nil
	}
	if s.pipeline != nil {
		s.pipeline.Release()
		s.pipeline = nil
	}
	if s.textureLayout != nil {
		s.textureLayout.Release()
		s.textureLayout = nil
	}
	if s.cameraLayout != nil {
		s.cameraLayout.Release()
		s.cameraLayout = nil
	}
	if s.backend != nil {
		s.backend.Release()
		s.backend = nil
	}
	s.phase = FrameTerminated
}
