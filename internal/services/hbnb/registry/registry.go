// Package registry is the single accessor the console uses to reach the
// active storage engine.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/louisbranch/hbnb/internal/platform/otel"
	"github.com/louisbranch/hbnb/internal/services/hbnb/models"
	"github.com/louisbranch/hbnb/internal/services/hbnb/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("hbnb/registry")

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.clock = now
		}
	}
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Registry wraps exactly one storage engine chosen at startup.
type Registry struct {
	engine storage.Engine
	clock  func() time.Time
	logger *log.Logger
}

// New returns a registry over engine.
func New(engine storage.Engine, opts ...Option) (*Registry, error) {
	if engine == nil {
		return nil, errors.New("storage engine is required")
	}
	r := &Registry{
		engine: engine,
		clock:  time.Now,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Strict reports whether undeclared attributes are rejected.
func (r *Registry) Strict() bool {
	return storage.IsStrict(r.engine)
}

// All returns the working set keyed by composite key. An empty class
// returns every entity.
func (r *Registry) All(ctx context.Context, class string) (map[string]models.Entity, error) {
	if class != "" && !models.IsClass(class) {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownClass, class)
	}
	return r.engine.All(ctx, class)
}

// List returns All ordered by creation time, then composite key.
func (r *Registry) List(ctx context.Context, class string) ([]models.Entity, error) {
	set, err := r.All(ctx, class)
	if err != nil {
		return nil, err
	}
	out := make([]models.Entity, 0, len(set))
	for _, e := range set {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Meta(), out[j].Meta()
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return models.Key(out[i]) < models.Key(out[j])
	})
	return out, nil
}

// Get returns one entity or storage.ErrNotFound.
func (r *Registry) Get(ctx context.Context, class, id string) (models.Entity, error) {
	if !models.IsClass(class) {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownClass, class)
	}
	return r.engine.Get(ctx, class, id)
}

// Count returns the number of entities of class, or of every class when
// class is empty.
func (r *Registry) Count(ctx context.Context, class string) (int, error) {
	set, err := r.All(ctx, class)
	if err != nil {
		return 0, err
	}
	return len(set), nil
}

// New registers e in the working set without committing.
func (r *Registry) New(e models.Entity) {
	r.engine.New(e)
}

// Create constructs an entity of class, applies attrs and registers it.
// The entity is visible to All immediately and durable after Persist or
// Save.
func (r *Registry) Create(class string, attrs map[string]any) (models.Entity, error) {
	e, err := models.New(class, nil)
	if err != nil {
		return nil, err
	}
	now := r.now()
	meta := e.Meta()
	meta.CreatedAt, meta.UpdatedAt = now, now
	if err := r.assign(e, attrs); err != nil {
		return nil, err
	}
	r.engine.New(e)
	return e, nil
}

// Assign sets one attribute of e without persisting it.
func (r *Registry) Assign(e models.Entity, name string, value any) error {
	return models.Set(e, name, value, !r.Strict())
}

// Persist stamps e with the current time, registers it and commits the
// working set. On failure UpdatedAt is restored.
func (r *Registry) Persist(ctx context.Context, e models.Entity) error {
	meta := e.Meta()
	previous := meta.UpdatedAt
	models.Touch(e, r.now())
	r.engine.New(e)
	if err := r.Save(ctx); err != nil {
		meta.UpdatedAt = previous
		return err
	}
	return nil
}

// Update assigns one attribute and persists e.
func (r *Registry) Update(ctx context.Context, e models.Entity, name string, value any) error {
	if err := r.Assign(e, name, value); err != nil {
		return err
	}
	return r.Persist(ctx, e)
}

// Delete removes e from the working set without committing.
func (r *Registry) Delete(e models.Entity) {
	r.engine.Delete(e)
}

// Destroy removes e and commits the working set.
func (r *Registry) Destroy(ctx context.Context, e models.Entity) error {
	r.engine.Delete(e)
	return r.Save(ctx)
}

// Save commits the working set.
func (r *Registry) Save(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "registry.save", trace.WithAttributes(attribute.Bool("hbnb.strict", r.Strict())))
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()
	return r.engine.Save(ctx)
}

// Reload discards uncommitted changes and rebuilds the working set.
func (r *Registry) Reload(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "registry.reload")
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()
	return r.engine.Reload(ctx)
}

// Close ends the engine session.
func (r *Registry) Close() error {
	if err := r.engine.Close(); err != nil {
		r.logger.Printf("registry: close storage: %v", err)
		return err
	}
	return nil
}

func (r *Registry) assign(e models.Entity, attrs map[string]any) error {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name == models.ClassKey {
			continue
		}
		if err := r.Assign(e, name, attrs[name]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) now() time.Time {
	return r.clock().UTC().Truncate(time.Microsecond)
}
