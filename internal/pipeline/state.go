package pipeline

// State is the stage a run is in.
type State int

const (
	StateExtracting State = iota
	StateRecognizing
	StateAnalyzing
	StateGeneratingTasks
	StateLinking
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateExtracting:      "extracting",
	StateRecognizing:     "recognizing",
	StateAnalyzing:       "analyzing",
	StateGeneratingTasks: "generating_tasks",
	StateLinking:         "linking",
	StateDone:            "done",
	StateFailed:          "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// checkpoints is the fraction reported once each state finishes.
var checkpoints = map[State]float64{
	StateExtracting:      0.2,
	StateRecognizing:     0.4,
	StateAnalyzing:       0.6,
	StateGeneratingTasks: 0.8,
	StateLinking:         1.0,
	StateDone:            1.0,
}

// ProgressFunc observes a run. Fraction never decreases within one run.
type ProgressFunc func(state State, fraction float64)

type progress struct {
	fn   ProgressFunc
	last float64
}

func (p *progress) report(s State) {
	if p.fn == nil {
		return
	}
	f, ok := checkpoints[s]
	if !ok || f < p.last {
		f = p.last
	}
	p.last = f
	p.fn(s, f)
}
