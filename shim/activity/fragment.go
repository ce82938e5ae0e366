package activity

// Fragment mirrors its host Activity's lifecycle up to the activity's
// current state.
type Fragment struct {
	Tag string
	ContainerID int
	Args map[string]any
	Hidden bool
	state State
	added bool
	view any // created view placeholder; shim/view wires a concrete type in
}

// IsAdded reports whether the fragment is currently attached.
func (f *Fragment) IsAdded() bool { return f.added }

// State returns the fragment's current lifecycle position.
func (f *Fragment) State() State { return f.state }

func (f *Fragment) advanceTo(target State) {
	if !f.added || f.state >= target {
		return
	}
	order := []State{Created, Started, Resumed}
	for _, s := range order {
		if f.state < s && s <= target {
			f.state = s
		}
	}
}

// teardown takes the fragment through its full removal chain (pause, stop,
// destroyView, destroy, detach) in one step, regardless of the activity's
// current state: it ends detached, back at Initialized, with its view
// dropped. Fragment has no per-step callbacks, so nothing runs in between.
func (f *Fragment) teardown() {
	f.state = Initialized
	f.added = false
	f.view = nil
}

// Controller.fragments manipulation below implements fragment transactions.

// Transaction is an ordered, atomically committed batch of fragment
// operations, optionally recorded on the back stack under name.
type Transaction struct {
	c *Controller
	ops []func() []func() // each op returns its inverse, recorded if backStack != ""
	backStack string
}

// BeginTransaction starts a new Transaction against c.
func (c *Controller) BeginTransaction() *Transaction {
	return &Transaction{c: c}
}

// Add attaches f to container, running its attach chain up to the
// activity's current state.
func (t *Transaction) Add(container int, f *Fragment) *Transaction {
	t.ops = append(t.ops, func() []func() {
		f.ContainerID = container
		f.added = true
		f.state = Created
		if t.c.state >= Started {
			f.state = Started
		}
		if t.c.state >= Resumed {
			f.state = Resumed
		}
		t.c.fragments = append(t.c.fragments, f)
		return []func(){func() { t.remove(f) }}
	})
	return t
}

// Remove detaches f, running its full teardown chain.
func (t *Transaction) Remove(f *Fragment) *Transaction {
	t.ops = append(t.ops, func() []func() {
		wasAdded := f.added
		container := f.ContainerID
		t.remove(f)
		if !wasAdded {
			return nil
		}
		return []func(){func() {
			f.ContainerID = container
			f.added = true
			f.state = t.c.state
			t.c.fragments = append(t.c.fragments, f)
		}}
	})
	return t
}

func (t *Transaction) remove(f *Fragment) {
	f.teardown()
	for i, existing := range t.c.fragments {
		if existing == f {
			t.c.fragments = append(t.c.fragments[:i], t.c.fragments[i+1:]...)
			break
		}
	}
}

// Replace removes every fragment currently attached to container, then adds
// f to it.
func (t *Transaction) Replace(container int, f *Fragment) *Transaction {
	t.ops = append(t.ops, func() []func() {
		var inverses []func()
		for _, existing := range append([]*Fragment(nil), t.c.fragments...) {
			if existing.ContainerID == container && existing.added {
				wasAdded := existing
				t.remove(existing)
				inverses = append(inverses, func() {
					wasAdded.ContainerID = container
					wasAdded.added = true
					wasAdded.state = t.c.state
					t.c.fragments = append(t.c.fragments, wasAdded)
				})
			}
		}
		f.ContainerID = container
		f.added = true
		f.state = Created
		if t.c.state >= Started {
			f.state = Started
		}
		if t.c.state >= Resumed {
			f.state = Resumed
		}
		t.c.fragments = append(t.c.fragments, f)
		inverses = append(inverses, func() { t.remove(f) })
		return inverses
	})
	return t
}

// Show clears f's hidden flag. It does not change the visibility of any
// view of the fragment.
func (t *Transaction) Show(f *Fragment) *Transaction {
	t.ops = append(t.ops, func() []func() {
		prev := f.Hidden
		f.Hidden = false
		return []func(){func() { f.Hidden = prev }}
	})
	return t
}

// Hide sets f's hidden flag. It does not change the visibility of any view
// of the fragment.
func (t *Transaction) Hide(f *Fragment) *Transaction {
	t.ops = append(t.ops, func() []func() {
		prev := f.Hidden
		f.Hidden = true
		return []func(){func() { f.Hidden = prev }}
	})
	return t
}

// AddToBackStack flags this transaction to push an inverse record under
// name when committed.
func (t *Transaction) AddToBackStack(name string) *Transaction {
	t.backStack = name
	return t
}

// Commit executes every queued operation atomically, in insertion order. If
// the transaction was flagged for the back stack, the combined inverse of
// all operations is pushed so popBackStack can undo it as one unit.
func (t *Transaction) Commit() {
	var allInverses []func()
	for _, op := range t.ops {
		inv := op()
		allInverses = append(allInverses, inv...)
	}
	if t.backStack != "" {
		// Apply inverses in reverse order when popped, so a replace's
		// remove-then-add unwinds as add-then-remove.
		record := func() {
			for i := len(allInverses) - 1; i >= 0; i-- {
				allInverses[i]()
			}
		}
		t.c.backStack = append(t.c.backStack, backStackEntry{name: t.backStack, undo: record})
	}
}

type backStackEntry struct {
	name string
	undo func()
}

// PopBackStack undoes the most recently committed back-stack transaction.
func (c *Controller) PopBackStack() {
	if len(c.backStack) == 0 {
		return
	}
	last := c.backStack[len(c.backStack)-1]
	c.backStack = c.backStack[:len(c.backStack)-1]
	last.undo()
}

// FindFragmentByTag returns the attached fragment with the given tag, or nil.
func (c *Controller) FindFragmentByTag(tag string) *Fragment {
	for _, f := range c.fragments {
		if f.added && f.Tag == tag {
			return f
		}
	}
	return nil
}
