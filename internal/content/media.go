package content

import "github.com/AaronLay10/GameMap/internal/surface"

// Media is the built-in unscored video/audio content. It renders a <video>
// or <audio> element and never raises scoring events.
type Media struct {
	*Dispatcher

	machineName string
	params      map[string]any
	view        *surface.Element
}

// NewMedia is the Constructor for VideoLibrary and AudioLibrary.
func NewMedia(desc Descriptor, contentID string, opts RunOptions) (Instance, error) {
	return &Media{
		Dispatcher:  NewDispatcher(),
		machineName: desc.MachineName(),
		params:      desc.Params,
	}, nil
}

func (m *Media) MachineName() string { return m.machineName }

// Params returns the parameters the media was created with.
func (m *Media) Params() map[string]any { return m.params }

func (m *Media) Attach(target *surface.Element) {
	tag := "video"
	if m.machineName == AudioLibrary {
		tag = "audio"
	}
	m.view = surface.NewElement(tag, "")
	if m.fits() {
		m.view.AddClass("fit")
		m.view.SetStyle("width", "100%")
	}
	target.Append(m.view)
}

// View returns the rendered element, or nil before Attach.
func (m *Media) View() *surface.Element { return m.view }

// fits reports whether the player should fill its wrapper: visuals.fit for
// video, fitToWrapper for audio.
func (m *Media) fits() bool {
	if m.machineName == AudioLibrary {
		v, _ := m.params["fitToWrapper"].(bool)
		return v
	}
	visuals, _ := m.params["visuals"].(map[string]any)
	v, _ := visuals["fit"].(bool)
	return v
}
