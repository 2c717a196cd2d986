package navigation

// Pending is the controller's outstanding navigation request. It is one of
// NoPending, OwnedPending or ExistingPending.
type Pending interface {
	isPending()
}

// NoPending means no navigation is outstanding.
type NoPending struct{}

// OwnedPending holds a brand-new entry that is not in the committed list.
type OwnedPending struct {
	Entry *Entry
}

// ExistingPending refers to a committed entry being re-navigated
// (back, forward, reload, go to index).
type ExistingPending struct {
	Index int
}

func (NoPending) isPending()       {}
func (OwnedPending) isPending()    {}
func (ExistingPending) isPending() {}
