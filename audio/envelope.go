package audio

type envelopeState int

const (
	stateInit envelopeState = iota
	stateAttack
	stateSustain
	stateRelease
)

// envelope is a linear attack/release amplitude envelope for a single voice.
type envelope struct {
	sampleRate float64
	attack     float64 // seconds
	release    float64 // seconds

	attackRate  float64
	releaseRate float64

	val   float64
	state envelopeState
}

func (e *envelope) value() float64 {
	switch e.state {
	case stateInit:
		return 0.
	case stateAttack:
		e.val += e.attackRate
		if e.val >= 1 {
			e.val = 1.0
			e.state = stateSustain
		}
	case stateSustain:
		e.val = 1.0
	case stateRelease:
		e.val -= e.releaseRate
		if e.val <= 0 {
			e.val = 0
			e.state = stateInit
		}
	}
	return e.val
}

// done reports whether a released envelope has reached silence.
func (e *envelope) done() bool {
	return e.state == stateInit
}

func (e *envelope) startAttack() {
	e.val = 0
	e.state = stateAttack
	e.attackRate = 1.0 / (e.attack * e.sampleRate)
}

func (e *envelope) startRelease() {
	e.releaseAfter(e.release)
}

// releaseAfter fades out from the current value within seconds.
func (e *envelope) releaseAfter(seconds float64) {
	if e.state == stateInit {
		return
	}
	e.state = stateRelease
	e.releaseRate = e.val / (seconds * e.sampleRate)
	if e.releaseRate <= 0 {
		e.val = 0
		e.state = stateInit
	}
}
