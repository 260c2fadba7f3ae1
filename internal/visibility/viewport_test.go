package visibility

import (
	"testing"

	"github.com/AaronLay10/GameMap/internal/surface"
)

func TestObserveDeliversInitialState(t *testing.T) {
	vp := NewViewport()
	el := surface.NewElement("div", "s1")

	var entries []Entry
	o := vp.NewObserver(func(es []Entry, _ Observer) { entries = append(entries, es...) }, Options{})
	o.Observe(el)

	if len(entries) != 1 || entries[0].IsIntersecting {
		t.Fatalf("expected one non-intersecting entry, got %+v", entries)
	}

	vp.Show(el)
	if len(entries) != 2 || !entries[1].IsIntersecting {
		t.Fatalf("expected intersecting entry after Show, got %+v", entries)
	}

	// no change, no callback
	vp.SetRatio(el, 0.5)
	if len(entries) != 2 {
		t.Errorf("expected no callback without a crossing, got %d entries", len(entries))
	}
}

func TestUnobserveInsideCallbackStopsDelivery(t *testing.T) {
	vp := NewViewport()
	el := surface.NewElement("div", "s1")

	fired := 0
	o := vp.NewObserver(func(es []Entry, o Observer) {
		if es[0].IsIntersecting {
			o.Unobserve(es[0].Target)
			fired++
		}
	}, Options{})
	o.Observe(el)

	vp.Show(el)
	vp.Hide(el)
	vp.Show(el)

	if fired != 1 {
		t.Errorf("expected one-shot delivery, got %d", fired)
	}
	if vp.Observing(el) != 0 {
		t.Errorf("expected element to be unobserved")
	}
}

func TestThreshold(t *testing.T) {
	vp := NewViewport()
	el := surface.NewElement("div", "s1")

	var last Entry
	o := vp.NewObserver(func(es []Entry, _ Observer) { last = es[0] }, Options{Threshold: 0.5})
	o.Observe(el)

	vp.SetRatio(el, 0.25)
	if last.IsIntersecting {
		t.Error("expected 0.25 to be below threshold")
	}
	vp.SetRatio(el, 0.75)
	if !last.IsIntersecting {
		t.Error("expected 0.75 to cross threshold")
	}
}
