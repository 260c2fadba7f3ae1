// Package visibility tracks which presentation elements are in view and
// notifies observers when an element crosses into or out of view.
package visibility

import "github.com/AaronLay10/GameMap/internal/surface"

// Entry describes one element's visibility change.
type Entry struct {
	Target         *surface.Element
	IsIntersecting bool
	Ratio          float64
}

// Observer watches elements.
type Observer interface {
	Observe(el *surface.Element)
	Unobserve(el *surface.Element)
	Disconnect()
}

// Callback receives entries for the observer that produced them.
type Callback func(entries []Entry, o Observer)

// Options configures an observer. Threshold is the visible ratio at which an
// element counts as intersecting; 0 means any visible part.
type Options struct {
	Threshold float64
}

// ObserverFactory creates observers.
type ObserverFactory interface {
	NewObserver(cb Callback, opts Options) Observer
}

// Viewport holds the visible ratio of every element the host has reported.
type Viewport struct {
	ratios    map[*surface.Element]float64
	observers []*observer
}

// NewViewport creates a viewport with nothing in view.
func NewViewport() *Viewport {
	return &Viewport{
		ratios: make(map[*surface.Element]float64),
	}
}

// NewObserver implements ObserverFactory.
func (v *Viewport) NewObserver(cb Callback, opts Options) Observer {
	o := &observer{
		viewport: v,
		cb:       cb,
		opts:     opts,
		targets:  make(map[*surface.Element]bool),
	}
	v.observers = append(v.observers, o)
	return o
}

// Show marks el as fully visible.
func (v *Viewport) Show(el *surface.Element) {
	v.SetRatio(el, 1)
}

// Hide marks el as not visible.
func (v *Viewport) Hide(el *surface.Element) {
	v.SetRatio(el, 0)
}

// SetRatio records el's visible ratio and notifies observers watching el
// whose intersecting state changed.
func (v *Viewport) SetRatio(el *surface.Element, ratio float64) {
	prev := v.ratios[el]
	v.ratios[el] = ratio

	for _, o := range append([]*observer{}, v.observers...) {
		if !o.targets[el] {
			continue
		}
		if o.intersecting(prev) == o.intersecting(ratio) {
			continue
		}
		o.cb([]Entry{{Target: el, IsIntersecting: o.intersecting(ratio), Ratio: ratio}}, o)
	}
}

// Ratio returns el's current visible ratio.
func (v *Viewport) Ratio(el *surface.Element) float64 {
	return v.ratios[el]
}

// Observing returns how many live observers watch el.
func (v *Viewport) Observing(el *surface.Element) int {
	n := 0
	for _, o := range v.observers {
		if o.targets[el] {
			n++
		}
	}
	return n
}

type observer struct {
	viewport *Viewport
	cb       Callback
	opts     Options
	targets  map[*surface.Element]bool
}

func (o *observer) intersecting(ratio float64) bool {
	return ratio > 0 && ratio >= o.opts.Threshold
}

// Observe starts watching el and delivers its current state once.
func (o *observer) Observe(el *surface.Element) {
	if o.targets[el] {
		return
	}
	o.targets[el] = true
	ratio := o.viewport.ratios[el]
	o.cb([]Entry{{Target: el, IsIntersecting: o.intersecting(ratio), Ratio: ratio}}, o)
}

func (o *observer) Unobserve(el *surface.Element) {
	delete(o.targets, el)
}

func (o *observer) Disconnect() {
	o.targets = make(map[*surface.Element]bool)
}
