package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/hazyhaar/crowdwatch/internal/page"
)

func TestGymExtract_SubstringAfterLabel(t *testing.T) {
	// Label and status share one text node.
	s := sessionFrom(t, `<html><body>
		<div id="status">Current occupancy Open! Plenty of space to climb.</div>
	</body></html>`)

	res, err := NewGymStrategy().Extract(context.Background(), s)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !res.Found {
		t.Fatal("result should be found")
	}
	if res.Status != "Open! Plenty of space to climb." {
		t.Errorf("status: got %q, want %q", res.Status, "Open! Plenty of space to climb.")
	}
}

func TestGymExtract_ClimbAdoptsGrowingAncestor(t *testing.T) {
	// Only the third ancestor carries more text than the label plus the
	// slack margin; the climb must adopt exactly that one.
	s := sessionFrom(t, `<html><body>
		<div class="outer">
			<div class="mid">
				<div class="inner">
					<span class="label">Current occupancy</span>
				</div>
			</div>
			<p>Room for many more climbers!</p>
		</div>
	</body></html>`)

	res, err := NewGymStrategy().Extract(context.Background(), s)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Status != "Room for many more climbers!" {
		t.Errorf("status: got %q, want %q", res.Status, "Room for many more climbers!")
	}
}

func TestGymExtract_SiblingFallback(t *testing.T) {
	// Three wrapper levels add no text, so the best text stays the bare
	// label and the status is read from the climbed candidate's sibling.
	s := sessionFrom(t, `<html><body>
		<div class="widget">
			<div class="w1"><div class="w2"><div class="w3"><span>Current occupancy</span></div></div></div>
			<div class="value">Balanced crowd</div>
		</div>
	</body></html>`)

	res, err := NewGymStrategy().Extract(context.Background(), s)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Status != "Balanced crowd" {
		t.Errorf("status: got %q, want %q", res.Status, "Balanced crowd")
	}
}

func TestGymExtract_LabelOnlyNoSibling(t *testing.T) {
	// Nothing grows and no sibling exists: the last-resort step returns
	// the accumulated text, which is the label itself.
	s := sessionFrom(t, `<html><body>
		<div><div><div><div><span>Current occupancy</span></div></div></div></div>
	</body></html>`)

	res, err := NewGymStrategy().Extract(context.Background(), s)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !res.Found {
		t.Fatal("result should be found")
	}
	if res.Status != "Current occupancy" {
		t.Errorf("status: got %q, want the label itself", res.Status)
	}
}

func TestGymExtract_AnchorVanishesAfterWait(t *testing.T) {
	// WHAT: the wait sees the label but the page rerenders before Find.
	// WHY: only a wait timeout may fail a gym run; a vanished anchor is
	// a miss for this pass, not an error.
	s := &faultSession{findErr: page.ErrNotFound}

	res, err := NewGymStrategy().Extract(context.Background(), s)
	if err != nil {
		t.Fatalf("lookup failure after the wait must be absorbed, got %v", err)
	}
	if res.Found {
		t.Errorf("result: got Found(%q), want NotFound", res.Status)
	}
}

func TestGymExtract_AnchorTextUnreadable(t *testing.T) {
	// The anchor is still there but its text read fails, e.g. the node
	// detached mid-read. Same contract: absorbed, not surfaced.
	s := &faultSession{element: &faultElement{err: errors.New("node detached")}}

	res, err := NewGymStrategy().Extract(context.Background(), s)
	if err != nil {
		t.Fatalf("text failure after the wait must be absorbed, got %v", err)
	}
	if res.Found {
		t.Errorf("result: got Found(%q), want NotFound", res.Status)
	}
}

func TestGymExtract_LabelNeverAppears(t *testing.T) {
	s := sessionFrom(t, `<html><body><p>under construction</p></body></html>`)

	res, err := NewGymStrategy().Extract(context.Background(), s)
	if err == nil {
		t.Fatal("extract should fail when the label never appears")
	}
	if !errors.Is(err, page.ErrWaitTimeout) {
		t.Errorf("err: got %v, want ErrWaitTimeout", err)
	}
	if res.Found {
		t.Error("result should not be found on timeout")
	}
}

func TestGymExtract_ConfigurableConstants(t *testing.T) {
	// With a climb limit of 1 the growing third ancestor is out of
	// reach; the best text stays the label and the sibling path has
	// nothing either, so the label comes back whole.
	s := sessionFrom(t, `<html><body>
		<div class="outer">
			<div class="mid">
				<div class="inner">
					<span class="label">Current occupancy</span>
				</div>
			</div>
			<p>Room for many more climbers!</p>
		</div>
	</body></html>`)

	strat := NewGymStrategy()
	strat.ClimbLimit = 1

	res, err := strat.Extract(context.Background(), s)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Status != "Current occupancy" {
		t.Errorf("status: got %q, want the bare label", res.Status)
	}
}

func TestAfterLabel(t *testing.T) {
	cases := []struct {
		text, label, want string
	}{
		{"Current occupancy Open! Plenty of space", "Current occupancy", "Open! Plenty of space"},
		{"CURRENT OCCUPANCY crowded", "Current occupancy", "crowded"},
		{"Current occupancy", "Current occupancy", ""},
		{"no label here", "Current occupancy", ""},
		// Long s (U+017F) upper-cases to a shorter byte sequence, so the
		// cut offset must come from the original string.
		{"ſſ Current occupancy 42 people", "Current occupancy", "42 people"},
		{"Yoſemite ſays: current occupancy low", "Current occupancy", "low"},
		{"occupancy ſtatus: low", "occupancy status:", "low"},
	}
	for _, tc := range cases {
		if got := afterLabel(tc.text, tc.label); got != tc.want {
			t.Errorf("afterLabel(%q): got %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := normalize("  Current occupancy \n"); got != "CURRENT OCCUPANCY" {
		t.Errorf("normalize: got %q", got)
	}
}
