package navigation

// NavigationType classifies an accepted commit.
type NavigationType int

const (
	NavNewPage NavigationType = iota
	NavExistingPage
	NavSamePage
	NavInPage
	NavNewSubframe
)

func (t NavigationType) String() string {
	switch t {
	case NavNewPage:
		return "new_page"
	case NavExistingPage:
		return "existing_page"
	case NavSamePage:
		return "same_page"
	case NavInPage:
		return "in_page"
	case NavNewSubframe:
		return "new_subframe"
	}
	return "unknown"
}

// Event is delivered to listeners. It is one of EntryCommitted, ListPruned,
// EntryChanged or RepostConfirmationRequired.
type Event interface {
	isEvent()
}

// EntryCommitted is emitted after RendererDidNavigate accepts a report.
type EntryCommitted struct {
	PreviousURL         string
	Entry               *Entry
	Index               int
	Type                NavigationType
	IsInPage            bool
	IsMainFrame         bool
	IsAuto              bool
	ShouldUpdateHistory bool
}

// ListPruned is emitted when entries are dropped to make room: forward
// history on a new navigation, or the oldest entries when over the cap.
type ListPruned struct {
	FromFront bool
	Count     int
}

// EntryChanged is emitted when a committed entry changes outside navigation.
type EntryChanged struct {
	Index int
	Entry *Entry
}

// RepostConfirmationRequired is emitted instead of reloading a POST result.
type RepostConfirmationRequired struct {
	Index int
}

func (EntryCommitted) isEvent()             {}
func (ListPruned) isEvent()                 {}
func (EntryChanged) isEvent()               {}
func (RepostConfirmationRequired) isEvent() {}

// Listener receives controller events synchronously, before the call that
// triggered them returns. Listeners may call back into the controller; the
// events of such a nested call are delivered after the current batch.
type Listener func(Event)

type listenerSlot struct {
	id int
	fn Listener
}

// AddListener registers l and returns a function that removes it. Listeners
// are called in registration order.
func (c *Controller) AddListener(l Listener) (remove func()) {
	c.nextListenerID++
	id := c.nextListenerID
	c.listeners = append(c.listeners, listenerSlot{id: id, fn: l})
	return func() {
		for i, s := range c.listeners {
			if s.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// post queues ev and delivers the queue.
func (c *Controller) post(ev Event) {
	c.outbox = append(c.outbox, ev)
	c.deliver()
}

// deliver hands queued events to the listeners in order. While a delivery
// is running, events queued by re-entrant calls wait behind the current
// batch, so every listener sees them in the order the changes happened.
func (c *Controller) deliver() {
	if c.delivering {
		return
	}
	c.delivering = true
	defer func() { c.delivering = false }()
	for len(c.outbox) > 0 {
		ev := c.outbox[0]
		c.outbox = c.outbox[1:]
		c.emit(ev)
	}
}

func (c *Controller) emit(ev Event) {
	// Snapshot so listeners can add or remove listeners while being called.
	slots := append([]listenerSlot(nil), c.listeners...)
	for _, s := range slots {
		s.fn(ev)
	}
}
