package geo

import (
	"math"
	"testing"
)

func newTestProjector(t *testing.T) *ProjProjector {
	t.Helper()
	p, err := NewProjProjector("")
	if err != nil {
		t.Skipf("PROJ unavailable: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func TestProjectDeterministic(t *testing.T) {
	p := newTestProjector(t)
	x1, y1, err := p.Project(-73.9855, 40.7580)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	x2, y2, err := p.Project(-73.9855, 40.7580)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if x1 != x2 || y1 != y2 {
		t.Errorf("projection not deterministic: (%f, %f) vs (%f, %f)", x1, y1, x2, y2)
	}
}

func TestProjectDistanceScale(t *testing.T) {
	p := newTestProjector(t)

	// One arc-second of latitude is ~101.3 ft; 0.001 degrees is ~364.6 ft.
	// A state-plane projection must land well within a foot of that over
	// such a short baseline.
	x1, y1, err := p.Project(-73.9855, 40.7580)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	x2, y2, err := p.Project(-73.9855, 40.7590)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	d := math.Hypot(x2-x1, y2-y1)
	if d < 360 || d > 370 {
		t.Errorf("projected distance for 0.001 deg latitude = %.2f ft, want ~364.6 ft", d)
	}
}

func TestProjectBadPipeline(t *testing.T) {
	if _, err := NewProjProjector("+proj=nonsense"); err == nil {
		t.Error("NewProjProjector accepted a bogus pipeline")
	}
}
