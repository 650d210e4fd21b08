package domain

// Todo is the only persisted entity. ID is assigned by the database on insert
// and never changes afterwards.
type Todo struct {
	ID      int64
	Content string
}

// TodoPatch carries the fields supplied in an update request. A nil field was
// not supplied and leaves the stored value alone.
type TodoPatch struct {
	Content *string
}

func (p TodoPatch) IsEmpty() bool {
	return p.Content == nil
}

// Apply returns t with every supplied field of p written over it.
func (t Todo) Apply(p TodoPatch) Todo {
	if p.Content != nil {
		t.Content = *p.Content
	}
	return t
}
