// Package texture holds GPU texture resources and the decoder that turns encoded images into RGBA staging data.
package texture

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// DepthFormat is the format of every depth render target created by the renderer.
const DepthFormat = wgpu.TextureFormatDepth32Float

// ColorFormat is the format of every sampled colour texture uploaded from decoded images.
const ColorFormat = wgpu.TextureFormatRGBA8UnormSrgb

// Texture owns a GPU image together with its default view and, for sampled textures, its sampler.
// Depth textures carry no sampler. The renderer backend fills the GPU handles; everything else
// only reads them.
type Texture struct {
	// Label is a debug label used for the GPU objects.
	Label string
	// Width and Height are the texture dimensions in pixels.
	Width, Height uint32
	// Format is the texel format of the GPU image.
	Format wgpu.TextureFormat

	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Sampler *wgpu.Sampler
}

// IsDepth reports whether the texture is a depth render target.
//
// Returns:
//   - bool: true when Format is DepthFormat
func (t *Texture) IsDepth() bool {
	return t.Format == DepthFormat
}

// Release frees the sampler, view and image in that order. Safe on partially created
// textures and on repeated calls.
func (t *Texture) Release() {
	if t == nil {
		return
	}
	if t.Sampler != nil {
		t.Sampler.Release()
		t.Sampler = nil
	}
	if t.View != nil {
		t.View.Release()
		t.View = nil
	}
	if t.Texture != nil {
		t.Texture.Release()
		t.Texture = nil
	}
}
