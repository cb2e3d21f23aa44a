package view

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/TFMV/forcegraph/interact"
	"github.com/TFMV/forcegraph/models"
	"github.com/TFMV/forcegraph/render"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newView(t *testing.T) *View {
	t.Helper()
	g, err := models.Load(
		[]models.RawNode{{ID: "A", Group: 1}, {ID: "B", Group: 1}, {ID: "C", Group: 2}},
		[]models.RawLink{{Source: "A", Target: "B", Value: 1}, {Source: "B", Target: "C", Value: 1}},
	)
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.TickInterval = time.Millisecond
	return New(g, opts)
}

func receive(t *testing.T, ch <-chan uint64) uint64 {
	t.Helper()
	select {
	case seq := <-ch:
		return seq
	case <-time.After(5 * time.Second):
		t.Fatal("no frame")
		return 0
	}
}

func TestView_FramesOnlyWhenChanged(t *testing.T) {
	v := newView(t)

	f, ok := v.Frame(nil)
	require.True(t, ok)
	assert.Len(t, f.Nodes, 3)
	assert.Equal(t, uint64(1), f.Seq)

	_, ok = v.Frame(f)
	assert.False(t, ok)

	require.True(t, v.Tick())
	f, ok = v.Frame(f)
	require.True(t, ok)
	assert.Equal(t, uint64(2), f.Seq)
}

func TestView_SettleThenIdle(t *testing.T) {
	v := newView(t)

	_, converged := v.Settle(context.Background(), 1000)
	require.True(t, converged)
	assert.True(t, v.Idle())
	assert.False(t, v.Tick())

	pts := v.Positions()
	require.Len(t, pts, 3)
	assert.NotEqual(t, pts[0], pts[2])
}

func TestView_HoverRestylesScene(t *testing.T) {
	v := newView(t)

	changed, err := v.Handle(Event{Type: EventHover, Node: 2})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, v.Focused())

	f, ok := v.Frame(nil)
	require.True(t, ok)
	assert.Equal(t, 0.1, f.Nodes[0].Opacity)
	assert.True(t, f.Nodes[1].Underline)

	changed, err = v.Handle(Event{Type: EventUnhover, Node: 2})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, -1, v.Focused())
}

func TestView_DragPinsAtWorldPoint(t *testing.T) {
	v := newView(t)
	v.Settle(context.Background(), 1000)

	_, err := v.Handle(Event{Type: EventZoom, DeltaY: -500, X: 0, Y: 0})
	require.NoError(t, err)
	k := v.Transform().K
	require.Greater(t, k, 1.0)

	changed, err := v.Handle(Event{Type: EventDragStart, Node: 1, X: 40, Y: -20})
	require.NoError(t, err)
	require.True(t, changed)
	assert.False(t, v.Idle())

	require.True(t, v.Tick())
	pts := v.Positions()
	assert.InDelta(t, 40/k, pts[1].X, 1e-9)
	assert.InDelta(t, -20/k, pts[1].Y, 1e-9)
	state, node := v.State()
	assert.Equal(t, interact.Dragging, state)
	assert.Equal(t, 1, node)

	changed, err = v.Handle(Event{Type: EventDragEnd, Node: 1})
	require.NoError(t, err)
	assert.True(t, changed)
	state, _ = v.State()
	assert.Equal(t, interact.Hovering, state)
}

func TestView_ViewportEvents(t *testing.T) {
	v := newView(t)

	changed, err := v.Handle(Event{Type: EventReset})
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = v.Handle(Event{Type: EventPan, DX: 5, DY: -3})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 5.0, v.Transform().X)

	for i := 0; i < 50; i++ {
		_, err = v.Handle(Event{Type: EventZoom, DeltaY: -1000})
		require.NoError(t, err)
	}
	assert.Equal(t, 4.0, v.Transform().K)

	changed, err = v.Handle(Event{Type: EventFit})
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = v.Handle(Event{Type: EventReset})
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Transform().K)
	assert.Equal(t, 0.0, v.Transform().X)
}

func TestView_UnknownInput(t *testing.T) {
	v := newView(t)

	_, err := v.Handle(Event{Type: "teleport"})
	assert.True(t, errors.Is(err, ErrUnknownEvent))

	changed, err := v.Handle(Event{Type: EventHover, Node: 42})
	require.NoError(t, err)
	assert.False(t, changed)
	changed, err = v.Handle(Event{Type: EventDragStart, Node: -1})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestView_RunWakesOnEvent(t *testing.T) {
	v := newView(t)
	v.Settle(context.Background(), 1000)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	frames := make(chan uint64, 64)
	done := make(chan error, 1)
	go func() {
		done <- v.Run(ctx, func(f *render.Frame) error {
			frames <- f.Seq
			return nil
		})
	}()

	first := receive(t, frames)
	_, err := v.Handle(Event{Type: EventHover, Node: 0})
	require.NoError(t, err)
	second := receive(t, frames)
	assert.Greater(t, second, first)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
}

func TestView_RunStopsOnFrameError(t *testing.T) {
	v := newView(t)
	boom := errors.New("socket closed")

	count := 0
	err := v.Run(context.Background(), func(*render.Frame) error {
		count++
		if count == 3 {
			return boom
		}
		return nil
	})
	assert.Equal(t, boom, err)
	assert.Equal(t, 3, count)
}

func TestView_EmptyGraph(t *testing.T) {
	v := New(models.EmptyGraph(), DefaultOptions())

	assert.True(t, v.Idle())
	assert.False(t, v.Tick())
	out, err := v.Render(&render.SVGRenderer{})
	require.NoError(t, err)
	assert.Contains(t, string(out), "<svg")

	changed, err := v.Handle(Event{Type: EventHover, Node: 0})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestView_CloseReleasesDrag(t *testing.T) {
	v := newView(t)

	_, err := v.Handle(Event{Type: EventDragStart, Node: 0, X: 1, Y: 1})
	require.NoError(t, err)
	v.Close()

	state, node := v.State()
	assert.Equal(t, interact.Idle, state)
	assert.Equal(t, -1, node)
}

func TestEvent_MissingNodeTargetsNothing(t *testing.T) {
	v := newView(t)

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(`{"type":"hover"}`), &ev))
	assert.Equal(t, NoNode, ev.Node)

	changed, err := v.Handle(ev)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, -1, v.Focused())

	require.NoError(t, json.Unmarshal([]byte(`{"type":"dragstart","x":3,"y":4}`), &ev))
	changed, err = v.Handle(ev)
	require.NoError(t, err)
	assert.False(t, changed)
	state, _ := v.State()
	assert.Equal(t, interact.Idle, state)

	require.NoError(t, json.Unmarshal([]byte(`{"type":"hover","node":0}`), &ev))
	assert.Equal(t, 0, ev.Node)
	changed, err = v.Handle(ev)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 0, v.Focused())

	assert.Error(t, json.Unmarshal([]byte(`{"type":`), &ev))
}
