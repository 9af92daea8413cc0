package ui

import (
	"errors"
	"strings"
	"testing"

	"farnese/internal/buildpipeline"
)

func TestApplyEventTracksFiles(t *testing.T) {
	m := newProgressModel("build demo", []string{"a.json", "b.fast"}, nil)
	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageCompile, Status: buildpipeline.StatusWorking})
	if m.stageLabel != "compiling" {
		t.Fatalf("stage label = %q", m.stageLabel)
	}
	m.applyEvent(buildpipeline.Event{File: "a.json", Stage: buildpipeline.StageCompile, Status: buildpipeline.StatusWorking})
	if got := m.percent(); got != 0.3 {
		t.Fatalf("percent = %v, want 0.3", got)
	}
	m.applyEvent(buildpipeline.Event{File: "b.fast", Stage: buildpipeline.StageCompile, Status: buildpipeline.StatusError, Err: errors.New("boom")})
	m.applyEvent(buildpipeline.Event{File: "b.fast", Stage: buildpipeline.StageLink, Status: buildpipeline.StatusDone})
	if m.items[1].label != "error" || m.failures != 1 {
		t.Fatalf("error row overwritten: %+v", m.items[1])
	}
	m.applyEvent(buildpipeline.Event{File: "a.json", Stage: buildpipeline.StageLink, Status: buildpipeline.StatusDone})
	if m.percent() != 1 {
		t.Fatalf("percent = %v, want 1", m.percent())
	}
	m.applyEvent(buildpipeline.Event{File: "unknown.json", Status: buildpipeline.StatusDone})

	m.done = true
	view := m.View()
	for _, want := range []string{"failed: build demo", "a.json", "b.fast", "done", "error"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestEventsChannelCloseQuits(t *testing.T) {
	events := make(chan buildpipeline.Event)
	close(events)
	m := newProgressModel("x", []string{"a.json"}, events)
	if _, ok := m.listenForEvent()().(doneMsg); !ok {
		t.Fatalf("closed channel must produce doneMsg")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 2); got != "ab" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 20); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}
