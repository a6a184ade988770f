package trial

type State string

const (
	StateRunning  State = "RUNNING"
	StateComplete State = "COMPLETE"
	StateFail     State = "FAIL"
	StatePruned   State = "PRUNED"
)

// IsFinished reports whether the state is terminal. Finished trials are never mutated.
func (s State) IsFinished() bool {
	switch s {
	case StateComplete, StateFail, StatePruned:
		return true
	}
	return false
}

func (s State) Valid() bool {
	return s == StateRunning || s.IsFinished()
}

type Direction string

const (
	Minimize Direction = "MINIMIZE"
	Maximize Direction = "MAXIMIZE"
)

func (d Direction) Valid() bool {
	return d == Minimize || d == Maximize
}

type Trial struct {
	Number             int                     `json:"number" yaml:"number"`
	State              State                   `json:"state" yaml:"state"`
	Value              *float64                `json:"value,omitempty" yaml:"value,omitempty"`
	Params             map[string]float64      `json:"params,omitempty" yaml:"params,omitempty"`
	Distributions      map[string]Distribution `json:"distributions,omitempty" yaml:"distributions,omitempty"`
	IntermediateValues map[int]float64         `json:"intermediate_values,omitempty" yaml:"intermediate_values,omitempty"`
}

// Clone returns a deep copy so stores can hand out snapshots callers cannot mutate.
func (t Trial) Clone() Trial {
	out := t
	if t.Value != nil {
		v := *t.Value
		out.Value = &v
	}
	if t.Params != nil {
		out.Params = make(map[string]float64, len(t.Params))
		for k, v := range t.Params {
			out.Params[k] = v
		}
	}
	if t.Distributions != nil {
		out.Distributions = make(map[string]Distribution, len(t.Distributions))
		for k, d := range t.Distributions {
			out.Distributions[k] = d.clone()
		}
	}
	if t.IntermediateValues != nil {
		out.IntermediateValues = make(map[int]float64, len(t.IntermediateValues))
		for k, v := range t.IntermediateValues {
			out.IntermediateValues[k] = v
		}
	}
	return out
}

type Study struct {
	Name      string    `json:"name" yaml:"name"`
	Direction Direction `json:"direction" yaml:"direction"`
	Trials    []Trial   `json:"trials" yaml:"trials"`
}

func (s *Study) Clone() *Study {
	out := &Study{Name: s.Name, Direction: s.Direction, Trials: make([]Trial, len(s.Trials))}
	for i, t := range s.Trials {
		out.Trials[i] = t.Clone()
	}
	return out
}

// Float64 returns a pointer to v, for building trial values.
func Float64(v float64) *float64 {
	return &v
}
