package activity

import (
	"reflect"
	"testing"
)

func TestResumeFromInitializedEmitsOrderedEvents(t *testing.T) {
	var events []Event
	c := NewController(Hooks{})
	c.AddObserver(ObserverFunc(func(e Event) { events = append(events, e) }))

	if err := c.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	want := []Event{OnCreate, OnStart, OnResume}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events = %v, want %v", events, want)
	}

	events = nil
	if err := c.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	want = []Event{OnPause, OnStop, OnDestroy}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
}

func TestCurrentEventTracksState(t *testing.T) {
	c := NewController(Hooks{})
	if _, ok := c.CurrentEvent(); ok {
		t.Fatal("Initialized should have no corresponding event")
	}
	if err := c.Resume(); err != nil {
		t.Fatal(err)
	}
	if e, ok := c.CurrentEvent(); !ok || e != OnResume {
		t.Fatalf("CurrentEvent() = (%v, %v), want (OnResume, true)", e, ok)
	}
	if err := c.Destroy(); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.CurrentEvent(); ok {
		t.Fatal("Destroyed should have no corresponding event")
	}
}

func TestDestroyTwiceIsLifecycleMisuse(t *testing.T) {
	c := NewController(Hooks{})
	if err := c.Resume(); err != nil {
		t.Fatal(err)
	}
	if err := c.Destroy(); err != nil {
		t.Fatal(err)
	}
	if err := c.Destroy(); err == nil {
		t.Fatal("expected error re-destroying a destroyed activity")
	}
}

func TestFragmentReplaceAndPopBackStack(t *testing.T) {
	c := NewController(Hooks{})
	if err := c.Resume(); err != nil {
		t.Fatal(err)
	}

	a := &Fragment{Tag: "A"}
	c.BeginTransaction().Add(1, a).Commit()
	if !a.IsAdded() {
		t.Fatal("A should be added")
	}

	b := &Fragment{Tag: "B"}
	c.BeginTransaction().Replace(1, b).AddToBackStack("s1").Commit()

	if c.FindFragmentByTag("A") != nil {
		t.Fatal("A should be detached after replace")
	}
	if c.FindFragmentByTag("B") == nil {
		t.Fatal("B should be attached after replace")
	}

	c.PopBackStack()

	if c.FindFragmentByTag("B") != nil {
		t.Fatal("B should be detached after pop")
	}
	restored := c.FindFragmentByTag("A")
	if restored == nil {
		t.Fatal("A should be restored after pop")
	}
	if !restored.IsAdded() {
		t.Fatal("restored A should report IsAdded=true")
	}
}
