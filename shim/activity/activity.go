// Package activity implements the in-process replacement for Android's
// Activity/Fragment lifecycle state machine: auto-driving
// intermediate transitions, observer-before-hook ordering, and the fragment
// cascade and transaction rules.
package activity

import "fmt"

// State is an Activity's lifecycle position.
type State int

const (
	Initialized State = iota
	Created
	Started
	Resumed
	Paused
	Stopped
	Destroyed
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "Initialized"
	case Created:
		return "Created"
	case Started:
		return "Started"
	case Resumed:
		return "Resumed"
	case Paused:
		return "Paused"
	case Stopped:
		return "Stopped"
	case Destroyed:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

// Event is the lifecycle callback an Observer receives.
type Event int

const (
	OnCreate Event = iota
	OnStart
	OnResume
	OnPause
	OnStop
	OnDestroy
)

func (e Event) String() string {
	return [...]string{"ON_CREATE", "ON_START", "ON_RESUME", "ON_PAUSE", "ON_STOP", "ON_DESTROY"}[e]
}

// Observer is notified of every lifecycle transition, before the
// controller's own per-state hook runs.
type Observer interface {
	OnLifecycleEvent(Event)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnLifecycleEvent(e Event) { f(e) }

// Hooks are the user-overridable per-state callbacks; each is guaranteed to
// run at most once per entry into the corresponding state. A nil hook is
// simply skipped.
type Hooks struct {
	OnCreate func()
	OnStart func()
	OnResume func()
	OnPause func()
	OnStop func()
	OnDestroy func()
}

// Controller drives one Activity's state machine.
type Controller struct {
	state State
	hooks Hooks
	observers []Observer
	fragments []*Fragment
	backStack []backStackEntry
}

// NewController returns a Controller starting at Initialized.
func NewController(hooks Hooks) *Controller {
	return &Controller{state: Initialized, hooks: hooks}
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State { return c.state }

// CurrentEvent returns the lifecycle event that corresponds to the
// controller's current state, or false while Initialized or Destroyed
// (neither has a single corresponding Event).
func (c *Controller) CurrentEvent() (Event, bool) { return eventForState(c.state) }

// AddObserver registers o; observers fire in registration order.
func (c *Controller) AddObserver(o Observer) { c.observers = append(c.observers, o) }

func (c *Controller) fire(e Event, hook func()) {
	for _, o := range c.observers {
		o.OnLifecycleEvent(e)
	}
	if hook != nil {
		hook()
	}
}

// Create drives the controller to Created, auto-driving from Initialized
// only; calling it again from a later live state is a no-op, and calling it
// on a Destroyed activity is a LifecycleMisuse.
func (c *Controller) Create() error {
	switch c.state {
	case Initialized:
		c.fire(OnCreate, c.hooks.OnCreate)
		c.state = Created
		c.cascadeFragments(Created)
		return nil
	case Created, Started, Resumed, Paused, Stopped:
		return nil // already created; re-entering is a no-op, not an error
	default:
		return fmt.Errorf("activity: create: invalid from %s", c.state)
	}
}

// Start drives the controller to Started, auto-creating first if needed.
func (c *Controller) Start() error {
	switch c.state {
	case Initialized:
		if err := c.Create(); err != nil {
			return err
		}
		return c.Start()
	case Created, Stopped:
		c.fire(OnStart, c.hooks.OnStart)
		c.state = Started
		c.cascadeFragments(Started)
		return nil
	case Started, Resumed, Paused:
		return nil
	default:
		return fmt.Errorf("activity: start: invalid from %s", c.state)
	}
}

// Resume drives the controller to Resumed, auto-driving create/start first.
func (c *Controller) Resume() error {
	switch c.state {
	case Initialized, Created, Stopped:
		if err := c.Start(); err != nil {
			return err
		}
		return c.Resume()
	case Started, Paused:
		c.fire(OnResume, c.hooks.OnResume)
		c.state = Resumed
		c.cascadeFragments(Resumed)
		return nil
	case Resumed:
		return nil
	default:
		return fmt.Errorf("activity: resume: invalid from %s", c.state)
	}
}

// Pause drives the controller to Paused from Resumed; from any other live
// state it is a no-op, and on a Destroyed activity it is an error.
func (c *Controller) Pause() error {
	switch c.state {
	case Resumed:
		c.fire(OnPause, c.hooks.OnPause)
		c.state = Paused
		c.cascadeFragments(Paused)
		return nil
	case Paused, Started, Created, Stopped, Initialized:
		return nil
	default:
		return fmt.Errorf("activity: pause: invalid from %s", c.state)
	}
}

// Stop drives the controller to Stopped, auto-pausing first if resumed.
func (c *Controller) Stop() error {
	switch c.state {
	case Resumed:
		if err := c.Pause(); err != nil {
			return err
		}
		return c.Stop()
	case Paused, Started:
		c.fire(OnStop, c.hooks.OnStop)
		c.state = Stopped
		c.cascadeFragments(Stopped)
		return nil
	case Stopped, Initialized:
		return nil
	default:
		return fmt.Errorf("activity: stop: invalid from %s", c.state)
	}
}

// Destroy drives the controller to Destroyed, auto-driving pause/stop first.
func (c *Controller) Destroy() error {
	switch c.state {
	case Resumed, Paused, Started:
		if err := c.Stop(); err != nil {
			return err
		}
		return c.Destroy()
	case Created, Stopped, Initialized:
		c.fire(OnDestroy, c.hooks.OnDestroy)
		c.state = Destroyed
		for _, fr := range c.fragments {
			fr.teardown()
		}
		return nil
	case Destroyed:
		return fmt.Errorf("apk: lifecycle misuse: destroy on already-destroyed activity")
	default:
		return fmt.Errorf("activity: destroy: invalid from %s", c.state)
	}
}

// eventForState returns the lifecycle event associated with entering s, or
// false if s has no single corresponding event (Initialized/Destroyed are
// handled directly by Create/Destroy).
func eventForState(s State) (Event, bool) {
	switch s {
	case Created:
		return OnCreate, true
	case Started:
		return OnStart, true
	case Resumed:
		return OnResume, true
	case Paused:
		return OnPause, true
	case Stopped:
		return OnStop, true
	default:
		return 0, false
	}
}

// cascadeFragments advances every attached fragment to at most target,
// cascade rule: a fragment never outpaces its activity.
func (c *Controller) cascadeFragments(target State) {
	for _, fr := range c.fragments {
		fr.advanceTo(target)
	}
}
