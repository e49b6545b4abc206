package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joeblew999/agromind/internal/geometry"
	"github.com/joeblew999/agromind/internal/metrics"
)

var (
	// ErrInvalid is returned for field records that fail validation.
	ErrInvalid = errors.New("invalid field")
	// ErrNoGeometry is returned when an operation needs coordinates the field lacks.
	ErrNoGeometry = errors.New("field has no coordinates")
)

// Store persists field records.
type Store interface {
	List(ctx context.Context) ([]Field, error)
	Get(ctx context.Context, id string) (Field, error)
	Create(ctx context.Context, f Field) error
	Update(ctx context.Context, f Field) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Config holds FieldService settings.
type Config struct {
	Fallback     geometry.Fallback
	RecenterZoom int
	Logger       *zap.Logger
}

// FieldService manages fields and derives their map geometry.
type FieldService struct {
	store        Store
	bus          *EventBus
	fallback     geometry.Fallback
	recenterZoom int
	log          *zap.Logger
	now          func() time.Time
}

// NewFieldService creates a field service over a store.
func NewFieldService(store Store, bus *EventBus, cfg Config) *FieldService {
	if cfg.RecenterZoom == 0 {
		cfg.RecenterZoom = 15
	}
	if cfg.Fallback == (geometry.Fallback{}) {
		cfg.Fallback = geometry.DefaultFallback
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if bus == nil {
		bus = NewEventBus()
	}
	return &FieldService{
		store:        store,
		bus:          bus,
		fallback:     cfg.Fallback,
		recenterZoom: cfg.RecenterZoom,
		log:          cfg.Logger,
		now:          time.Now,
	}
}

// Bus returns the event bus mutations and recenter requests are published on.
func (s *FieldService) Bus() *EventBus { return s.bus }

// List returns a page of fields ordered by name, plus the total count.
// A non-positive limit returns every field from offset on.
func (s *FieldService) List(ctx context.Context, offset, limit int) ([]Field, int, error) {
	fields, err := s.all(ctx)
	if err != nil {
		return nil, 0, err
	}
	total := len(fields)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return fields[offset:end], total, nil
}

func (s *FieldService) all(ctx context.Context) ([]Field, error) {
	fields, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].Name != fields[j].Name {
			return fields[i].Name < fields[j].Name
		}
		return fields[i].ID < fields[j].ID
	})
	return fields, nil
}

// Get returns a field by ID.
func (s *FieldService) Get(ctx context.Context, id string) (Field, error) {
	f, err := s.store.Get(ctx, id)
	if err != nil {
		return Field{}, fmt.Errorf("get field %q: %w", id, err)
	}
	return f, nil
}

// Create validates and stores a new field, generating an ID if none is set.
func (s *FieldService) Create(ctx context.Context, f Field) (Field, error) {
	if err := validate(f); err != nil {
		return Field{}, err
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := s.now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now

	if err := s.store.Create(ctx, f); err != nil {
		return Field{}, fmt.Errorf("create field %q: %w", f.ID, err)
	}
	s.log.Info("field created", zap.String("id", f.ID), zap.String("name", f.Name), zap.Int("points", len(f.Coordinates)))
	s.bus.Publish(Event{Resource: ResourceFields, Action: ActionCreated, ID: f.ID})
	return f, nil
}

// Update replaces a field by ID, keeping its creation time.
func (s *FieldService) Update(ctx context.Context, id string, f Field) (Field, error) {
	if err := validate(f); err != nil {
		return Field{}, err
	}
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return Field{}, fmt.Errorf("update field %q: %w", id, err)
	}
	f.ID = id
	f.CreatedAt = existing.CreatedAt
	f.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, f); err != nil {
		return Field{}, fmt.Errorf("update field %q: %w", id, err)
	}
	s.log.Info("field updated", zap.String("id", id))
	s.bus.Publish(Event{Resource: ResourceFields, Action: ActionUpdated, ID: id})
	return f, nil
}

// Delete removes a field by ID.
func (s *FieldService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete field %q: %w", id, err)
	}
	s.log.Info("field deleted", zap.String("id", id))
	s.bus.Publish(Event{Resource: ResourceFields, Action: ActionDeleted, ID: id})
	return nil
}

// Shapes resolves every field that has geometry. Fields without
// coordinates are skipped.
func (s *FieldService) Shapes(ctx context.Context) ([]FieldShape, error) {
	fields, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	shapes := make([]FieldShape, 0, len(fields))
	for _, f := range fields {
		shape, ok := geometry.Resolve(f.Coordinates)
		if !ok {
			continue
		}
		metrics.ShapesResolved.WithLabelValues(string(shape.Kind())).Inc()
		shapes = append(shapes, FieldShape{Field: f, Shape: shape})
	}
	return shapes, nil
}

// Viewport computes the map viewport enclosing every field.
func (s *FieldService) Viewport(ctx context.Context) (geometry.Viewport, error) {
	fields, err := s.store.List(ctx)
	if err != nil {
		return geometry.Viewport{}, fmt.Errorf("viewport: %w", err)
	}
	locs := make([]geometry.Location, len(fields))
	for i, f := range fields {
		locs[i] = f.Coordinates
	}
	return geometry.ComputeBounds(locs, s.fallback), nil
}

// Recenter publishes a request for every map to centre on the field.
func (s *FieldService) Recenter(ctx context.Context, id string) (Event, error) {
	return s.RecenterAt(ctx, id, 0)
}

// RecenterAt is Recenter with an explicit zoom; zoom <= 0 uses the configured
// recenter zoom.
func (s *FieldService) RecenterAt(ctx context.Context, id string, zoom int) (Event, error) {
	if zoom <= 0 {
		zoom = s.recenterZoom
	}
	f, err := s.Get(ctx, id)
	if err != nil {
		return Event{}, err
	}
	center, ok := geometry.CenterOf(f.Coordinates)
	if !ok {
		return Event{}, fmt.Errorf("recenter %q: %w", id, ErrNoGeometry)
	}
	ev := Event{
		Resource: ResourceRecenter,
		Action:   ActionRequested,
		ID:       id,
		Center:   center,
		Zoom:     zoom,
	}
	s.log.Debug("recenter requested", zap.String("id", id), zap.Stringer("center", center))
	s.bus.Publish(ev)
	return ev, nil
}

// Close closes the underlying store.
func (s *FieldService) Close() error {
	return s.store.Close()
}

func validate(f Field) error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if err := f.Coordinates.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
