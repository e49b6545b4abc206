package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/agromind/internal/geometry"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	mu     sync.Mutex
	fields map[string]Field
}

func newMemStore() *memStore { return &memStore{fields: map[string]Field{}} }

func (m *memStore) List(ctx context.Context) ([]Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Field, 0, len(m.fields))
	for _, f := range m.fields {
		out = append(out, f)
	}
	return out, nil
}

func (m *memStore) Get(ctx context.Context, id string) (Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fields[id]
	if !ok {
		return Field{}, ErrNotFound
	}
	return f, nil
}

func (m *memStore) Create(ctx context.Context, f Field) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.fields[f.ID]; ok {
		return ErrExists
	}
	m.fields[f.ID] = f
	return nil
}

func (m *memStore) Update(ctx context.Context, f Field) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.fields[f.ID]; !ok {
		return ErrNotFound
	}
	m.fields[f.ID] = f
	return nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.fields[id]; !ok {
		return ErrNotFound
	}
	delete(m.fields, id)
	return nil
}

func (m *memStore) Close() error { return nil }

func newTestService(t *testing.T) (*FieldService, chan Event) {
	t.Helper()
	bus := NewEventBus()
	ch := bus.Subscribe()
	t.Cleanup(func() { bus.Unsubscribe(ch) })
	svc := NewFieldService(newMemStore(), bus, Config{})
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	return svc, ch
}

func nextEvent(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event published")
		return Event{}
	}
}

func TestFieldServiceCreate(t *testing.T) {
	svc, ch := newTestService(t)
	ctx := context.Background()

	f, err := svc.Create(ctx, Field{Name: "North", Coordinates: geometry.Location{{Lat: 44, Lng: 23}}})
	require.NoError(t, err)
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC), f.CreatedAt)

	ev := nextEvent(t, ch)
	assert.Equal(t, Event{Resource: ResourceFields, Action: ActionCreated, ID: f.ID}, ev)

	_, err = svc.Create(ctx, Field{ID: f.ID, Name: "Dup"})
	assert.ErrorIs(t, err, ErrExists)
}

func TestFieldServiceValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Field{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Create(ctx, Field{Name: "Bad", Coordinates: geometry.Location{{Lat: 120, Lng: 0}}})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestFieldServiceUpdateKeepsCreatedAt(t *testing.T) {
	svc, ch := newTestService(t)
	ctx := context.Background()

	f, err := svc.Create(ctx, Field{Name: "North"})
	require.NoError(t, err)
	nextEvent(t, ch)

	later := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return later }

	updated, err := svc.Update(ctx, f.ID, Field{Name: "North renamed", Crop: "barley"})
	require.NoError(t, err)
	assert.Equal(t, f.ID, updated.ID)
	assert.Equal(t, f.CreatedAt, updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt)
	assert.Equal(t, ActionUpdated, nextEvent(t, ch).Action)

	_, err = svc.Update(ctx, "missing", Field{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFieldServiceDelete(t *testing.T) {
	svc, ch := newTestService(t)
	ctx := context.Background()

	f, err := svc.Create(ctx, Field{Name: "North"})
	require.NoError(t, err)
	nextEvent(t, ch)

	require.NoError(t, svc.Delete(ctx, f.ID))
	assert.Equal(t, ActionDeleted, nextEvent(t, ch).Action)
	assert.ErrorIs(t, svc.Delete(ctx, f.ID), ErrNotFound)
}

func TestFieldServiceListPaginates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for _, name := range []string{"C", "A", "B"} {
		_, err := svc.Create(ctx, Field{Name: name})
		require.NoError(t, err)
	}

	page, total, err := svc.List(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "A", page[0].Name)
	assert.Equal(t, "B", page[1].Name)

	page, _, err = svc.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "C", page[0].Name)

	page, _, err = svc.List(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, page)

	page, _, err = svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, page, 3)
}

func TestFieldServiceShapesSkipsMissingGeometry(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Field{Name: "Point", Coordinates: geometry.Location{{Lat: 44, Lng: 23}}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Field{Name: "Ring", Coordinates: geometry.Location{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 1, Lng: 1}}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Field{Name: "Nothing"})
	require.NoError(t, err)

	shapes, err := svc.Shapes(ctx)
	require.NoError(t, err)
	require.Len(t, shapes, 2)
	assert.Equal(t, geometry.KindCircle, shapes[0].Shape.Kind())
	assert.Equal(t, geometry.KindPolygon, shapes[1].Shape.Kind())
}

func TestFieldServiceViewport(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	vp, err := svc.Viewport(ctx)
	require.NoError(t, err)
	assert.False(t, vp.Fit())
	assert.Equal(t, geometry.DefaultFallback.Zoom, vp.Zoom)

	_, err = svc.Create(ctx, Field{Name: "A", Coordinates: geometry.Location{{Lat: 44, Lng: 23}}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Field{Name: "B", Coordinates: geometry.Location{{Lat: 45, Lng: 24}}})
	require.NoError(t, err)

	vp, err = svc.Viewport(ctx)
	require.NoError(t, err)
	require.True(t, vp.Fit())
	assert.Equal(t, geometry.Bounds{MinLat: 44, MinLng: 23, MaxLat: 45, MaxLng: 24}, *vp.Bounds)
}

func TestFieldServiceRecenter(t *testing.T) {
	svc, ch := newTestService(t)
	ctx := context.Background()

	f, err := svc.Create(ctx, Field{Name: "Pair", Coordinates: geometry.Location{{Lat: 0, Lng: 0}, {Lat: 2, Lng: 4}}})
	require.NoError(t, err)
	nextEvent(t, ch)

	ev, err := svc.Recenter(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, geometry.Coordinate{Lat: 1, Lng: 2}, ev.Center)
	assert.Equal(t, 15, ev.Zoom)

	published := nextEvent(t, ch)
	assert.Equal(t, ResourceRecenter, published.Resource)
	assert.Equal(t, f.ID, published.ID)

	ev, err = svc.RecenterAt(ctx, f.ID, 18)
	require.NoError(t, err)
	assert.Equal(t, 18, ev.Zoom)
	assert.Equal(t, 18, nextEvent(t, ch).Zoom)

	bare, err := svc.Create(ctx, Field{Name: "Bare"})
	require.NoError(t, err)
	_, err = svc.Recenter(ctx, bare.ID)
	assert.ErrorIs(t, err, ErrNoGeometry)

	_, err = svc.Recenter(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventBusDropsForSlowSubscriber(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe()
	for range 20 {
		bus.Publish(Event{Resource: ResourceFields})
	}
	assert.Len(t, ch, 16)
	assert.Equal(t, 1, bus.Subscribers())

	bus.Unsubscribe(ch)
	assert.Equal(t, 0, bus.Subscribers())
}

func TestFieldDisplayColor(t *testing.T) {
	assert.Equal(t, DefaultColor, Field{}.DisplayColor())
	assert.Equal(t, "#ff0000", Field{Color: "#ff0000"}.DisplayColor())
}
