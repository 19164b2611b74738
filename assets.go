package moonquake

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// ErrAssetUnavailable reports that a texture or model could not be loaded.
var ErrAssetUnavailable = errors.New("moonquake: asset unavailable")

// AssetError wraps a load failure with the asset name. It matches
// ErrAssetUnavailable with errors.Is.
type AssetError struct {
	Name string
	Err  error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("moonquake: asset %q unavailable: %v", e.Name, e.Err)
}

func (e *AssetError) Unwrap() []error {
	return []error{ErrAssetUnavailable, e.Err}
}

// AssetLoader resolves named textures and models. Implementations must honor
// ctx cancellation.
type AssetLoader interface {
	LoadTexture(ctx context.Context, name string) (*ebiten.Image, error)
	LoadModel(ctx context.Context, name string) (*Model, error)
}

// Pending is a one-shot result produced by a single background goroutine.
type Pending[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	val    T
	err    error
}

// LoadAsync runs fn in its own goroutine with a context derived from ctx.
// The returned Pending resolves exactly once.
func LoadAsync[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Pending[T] {
	ctx, cancel := context.WithCancel(ctx)
	p := &Pending[T]{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(p.done)
		p.val, p.err = fn(ctx)
	}()
	return p
}

// Wait blocks until the result is ready or ctx is done. On ctx expiry the
// load's own context is cancelled and ctx.Err() is returned.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		p.cancel()
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the result is available.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Cancel abandons the load. A later Wait returns whatever the goroutine
// produced after observing the cancellation.
func (p *Pending[T]) Cancel() {
	p.cancel()
}

// PlaceholderTexture returns a new 1x1 texture filled with c.
func PlaceholderTexture(c Color) *ebiten.Image {
	img := ebiten.NewImage(1, 1)
	img.Fill(c.toRGBA())
	return img
}

// PlaceholderModel returns a small magenta octahedron standing in for a
// missing model.
func PlaceholderModel(name string, radius float64) *Model {
	mat := NewMaterial()
	mat.Color = ColorHex(0xff00ff)
	return &Model{
		Name: name,
		Parts: []ModelPart{{
			Name:      name + "/placeholder",
			Mesh:      &Mesh{Geometry: NewOctahedronGeometry(radius), Material: mat},
			Transform: mgl64.Ident4(),
		}},
	}
}
