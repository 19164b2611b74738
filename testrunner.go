package moonquake

import (
	"encoding/json"
	"fmt"
)

// scriptStep is a single action in a scripted session.
type scriptStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Frames int     `json:"frames,omitempty"`
	Yaw    float64 `json:"yaw,omitempty"`
	Pitch  float64 `json:"pitch,omitempty"`
	Factor float64 `json:"factor,omitempty"`
}

type script struct {
	Steps []scriptStep `json:"steps"`
}

// ScriptRunner sequences injected input, camera moves and screenshots across
// frames for automated visual checks. Attach to a Scene via SetScriptRunner.
//
// Actions: screenshot (label), click (x, y), drag (fromX, fromY, toX, toY,
// frames), wait (frames), rotate (yaw, pitch in radians), zoom (factor).
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScript parses a JSON script and returns a runner ready to be attached
// to a Scene.
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var sc script
	if err := json.Unmarshal(jsonData, &sc); err != nil {
		return nil, fmt.Errorf("moonquake: parse script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("moonquake: parse script: no steps")
	}
	for i, st := range sc.Steps {
		switch st.Action {
		case "screenshot", "click", "drag", "wait", "rotate", "zoom":
		default:
			return nil, fmt.Errorf("moonquake: parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: sc.Steps}, nil
}

// SetScriptRunner attaches a runner to the scene. The runner advances from
// Scene.Update before input is processed.
func (s *Scene) SetScriptRunner(runner *ScriptRunner) {
	s.scriptRunner = runner
}

// Done reports whether all steps have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// step advances the runner by one frame.
func (r *ScriptRunner) step(s *Scene) {
	if r.done {
		return
	}
	// Pending injections drain before the next step.
	if len(s.injectQueue) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "screenshot":
		s.Screenshot(st.Label)
	case "click":
		s.InjectClick(st.X, st.Y)
	case "drag":
		s.InjectDrag(st.FromX, st.FromY, st.ToX, st.ToY, max(st.Frames, 2))
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "rotate":
		s.camera.Rotate(st.Yaw, st.Pitch)
	case "zoom":
		if st.Factor > 0 {
			s.camera.Zoom(st.Factor)
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(s.injectQueue) == 0 {
		r.done = true
	}
}
