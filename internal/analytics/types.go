// Package analytics turns a study snapshot into chart-ready projections:
// optimization history, intermediate curves, contour grids, parallel
// coordinates and slices. Every function here is pure; only COMPLETE trials
// are visible, and empty or sparse input degrades to empty output.
package analytics

type Series struct {
	Name string    `json:"name,omitempty"`
	X    []float64 `json:"x"`
	Y    []float64 `json:"y"`
}

func newSeries(name string, capacity int) Series {
	return Series{Name: name, X: make([]float64, 0, capacity), Y: make([]float64, 0, capacity)}
}

func (s *Series) add(x, y float64) {
	s.X = append(s.X, x)
	s.Y = append(s.Y, y)
}

func (s Series) Len() int {
	return len(s.X)
}

// Range is an inclusive (min, max) pair. A nil *Range means there was no data.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type Dimension struct {
	Label  string    `json:"label"`
	Range  *Range    `json:"range"`
	Values []float64 `json:"values"`
}

type History struct {
	Raw         Series `json:"raw"`
	RunningBest Series `json:"running_best"`
}

type Axis struct {
	Param    string `json:"param"`
	Range    *Range `json:"range"`
	LogScale bool   `json:"log_scale,omitempty"`
}

// ContourGrid is the sparse z-surface over the two parameter domains.
// Z is indexed [y][x]; a nil cell has no completed trial at that point.
type ContourGrid struct {
	X []float64    `json:"x"`
	Y []float64    `json:"y"`
	Z [][]*float64 `json:"z"`
}

type ContourPair struct {
	X        Axis        `json:"x_axis"`
	Y        Axis        `json:"y_axis"`
	Grid     ContourGrid `json:"grid"`
	Observed Series      `json:"observed"`
}

type SliceSubplot struct {
	Param    string `json:"param"`
	LogScale bool   `json:"log_scale,omitempty"`
	Points   Series `json:"points"`
}

const (
	ObjectiveLabel  = "Objective Value"
	BestValueLabel  = "Best Value"
	ObservedLabel   = "Observed"
	trialNamePrefix = "Trial"
)
