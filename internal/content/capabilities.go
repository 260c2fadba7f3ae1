package content

import "github.com/AaronLay10/GameMap/internal/surface"

// Capabilities is the capability surface of an instance, probed once when the
// instance is created. Every method is safe on a nil receiver and falls back
// to a neutral default when the capability is missing.
type Capabilities struct {
	inst     Instance
	attacher Attacher
	scorer   Scorer
	max      MaxScorer
	answers  AnswerReporter
	resetter TaskResetter
	solver   SolutionShower
	xapi     XAPIExporter
	exporter StateExporter
	isTask   bool
}

// Probe inspects inst. It returns nil for a nil instance.
func Probe(inst Instance) *Capabilities {
	if inst == nil {
		return nil
	}
	c := &Capabilities{inst: inst}
	c.attacher, _ = inst.(Attacher)
	c.scorer, _ = inst.(Scorer)
	c.max, _ = inst.(MaxScorer)
	c.answers, _ = inst.(AnswerReporter)
	c.resetter, _ = inst.(TaskResetter)
	c.solver, _ = inst.(SolutionShower)
	c.xapi, _ = inst.(XAPIExporter)
	c.exporter, _ = inst.(StateExporter)

	if d, ok := inst.(TaskDeclarer); ok {
		c.isTask = d.IsTask()
	} else if c.max != nil {
		c.isTask = c.max.MaxScore() > 0
	}
	return c
}

// Instance returns the probed instance.
func (c *Capabilities) Instance() Instance {
	if c == nil {
		return nil
	}
	return c.inst
}

// MachineName returns the instance's library machine name.
func (c *Capabilities) MachineName() string {
	if c == nil {
		return ""
	}
	return c.inst.MachineName()
}

// IsTask reports whether the instance can be scored.
func (c *Capabilities) IsTask() bool {
	return c != nil && c.isTask
}

// Attach renders the instance into target. Returns false if unsupported.
func (c *Capabilities) Attach(target *surface.Element) bool {
	if c == nil || c.attacher == nil {
		return false
	}
	c.attacher.Attach(target)
	return true
}

func (c *Capabilities) Score() float64 {
	if c == nil || c.scorer == nil {
		return 0
	}
	return c.scorer.Score()
}

func (c *Capabilities) MaxScore() float64 {
	if c == nil || c.max == nil {
		return 0
	}
	return c.max.MaxScore()
}

func (c *Capabilities) AnswerGiven() bool {
	if c == nil || c.answers == nil {
		return false
	}
	return c.answers.AnswerGiven()
}

// ResetTask asks the instance to reset. Returns false if unsupported.
func (c *Capabilities) ResetTask() bool {
	if c == nil || c.resetter == nil {
		return false
	}
	c.resetter.ResetTask()
	return true
}

// ShowSolutions asks the instance to reveal solutions. Returns false if unsupported.
func (c *Capabilities) ShowSolutions() bool {
	if c == nil || c.solver == nil {
		return false
	}
	c.solver.ShowSolutions()
	return true
}

// XAPIData returns the instance's reporting export, or nil.
func (c *Capabilities) XAPIData() *XAPIData {
	if c == nil || c.xapi == nil {
		return nil
	}
	return c.xapi.XAPIData()
}

// CurrentState returns the instance's resumable state, or nil.
func (c *Capabilities) CurrentState() any {
	if c == nil || c.exporter == nil {
		return nil
	}
	return c.exporter.CurrentState()
}
