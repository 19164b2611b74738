package moonquake

import "testing"

func TestLoadScript(t *testing.T) {
	data := []byte(`{
		"steps": [
			{"action": "screenshot", "label": "initial"},
			{"action": "click", "x": 100, "y": 200},
			{"action": "wait", "frames": 3},
			{"action": "rotate", "yaw": 0.5},
			{"action": "zoom", "factor": 0.5}
		]
	}`)

	runner, err := LoadScript(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runner.steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(runner.steps))
	}
	if runner.steps[1].Action != "click" || runner.steps[1].X != 100 || runner.steps[1].Y != 200 {
		t.Error("step 1 mismatch")
	}
	if runner.steps[3].Yaw != 0.5 || runner.steps[4].Factor != 0.5 {
		t.Error("camera steps mismatch")
	}
}

func TestLoadScript_Invalid(t *testing.T) {
	if _, err := LoadScript([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := LoadScript([]byte(`{"steps": []}`)); err == nil {
		t.Error("expected error for empty steps")
	}
	if _, err := LoadScript([]byte(`{"steps": [{"action": "jump"}]}`)); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestRunnerStep_Click(t *testing.T) {
	s, id := pickableScene()
	runner, err := LoadScript([]byte(`{"steps": [{"action": "click", "x": 400, "y": 300}]}`))
	if err != nil {
		t.Fatal(err)
	}
	s.SetScriptRunner(runner)

	var clicked NodeID = None
	s.OnClick(func(ctx ClickContext) { clicked = ctx.Node })

	// Frame 1 queues the click and consumes the press.
	runner.step(s)
	s.processInput()
	if runner.Done() {
		t.Error("runner should wait for the queued release")
	}
	// Frame 2 consumes the release.
	runner.step(s)
	s.processInput()
	if clicked != id {
		t.Errorf("clicked = %d, want %d", clicked, id)
	}
	runner.step(s)
	if !runner.Done() {
		t.Error("runner should be done")
	}
}

func TestRunnerStep_Wait(t *testing.T) {
	s := testScene()
	runner, _ := LoadScript([]byte(`{"steps": [{"action": "wait", "frames": 3}, {"action": "zoom", "factor": 0.5}]}`))

	dist := s.Camera().Distance
	for range 3 {
		runner.step(s)
	}
	if s.Camera().Distance != dist {
		t.Fatal("zoom should not run during the wait")
	}
	runner.step(s)
	if !approxEqual(s.Camera().Distance, dist/2, 1e-9) {
		t.Errorf("Distance = %f, want %f", s.Camera().Distance, dist/2)
	}
	if !runner.Done() {
		t.Error("runner should be done after the last step")
	}
}

func TestRunnerStep_RotateAndScreenshot(t *testing.T) {
	s := testScene()
	runner, _ := LoadScript([]byte(`{"steps": [{"action": "rotate", "yaw": 0.25, "pitch": 0.1}, {"action": "screenshot", "label": "turned"}]}`))

	runner.step(s)
	runner.step(s)

	if !approxEqual(s.Camera().Yaw, 0.25, 1e-9) || !approxEqual(s.Camera().Pitch, 0.1, 1e-9) {
		t.Errorf("yaw/pitch = %f/%f, want 0.25/0.1", s.Camera().Yaw, s.Camera().Pitch)
	}
	if len(s.screenshotQueue) != 1 || s.screenshotQueue[0] != "turned" {
		t.Errorf("screenshotQueue = %v", s.screenshotQueue)
	}
}
