package board

import "taskboard/internal/model"

// Collection is an ordered set of tasks with unique ids, scoped to one owner.
// It is not safe for concurrent use; TaskSync guards it.
type Collection struct {
	owner string
	tasks []model.Task
	index map[string]int
}

func NewCollection(owner string, tasks []model.Task) *Collection {
	c := &Collection{owner: owner}
	c.Replace(owner, tasks)
	return c
}

func (c *Collection) Owner() string { return c.owner }

func (c *Collection) Len() int { return len(c.tasks) }

// Replace swaps in tasks for owner. Later duplicates of an id are dropped so
// the uniqueness invariant holds even if the store misbehaves.
func (c *Collection) Replace(owner string, tasks []model.Task) {
	c.owner = owner
	c.tasks = make([]model.Task, 0, len(tasks))
	c.index = make(map[string]int, len(tasks))
	for _, t := range tasks {
		if _, dup := c.index[t.ID]; dup {
			continue
		}
		c.index[t.ID] = len(c.tasks)
		c.tasks = append(c.tasks, t)
	}
}

func (c *Collection) Get(id string) (model.Task, bool) {
	i, ok := c.index[id]
	if !ok {
		return model.Task{}, false
	}
	return c.tasks[i], true
}

// Prepend inserts t at the front, replacing any record with the same id.
func (c *Collection) Prepend(t model.Task) {
	if _, ok := c.index[t.ID]; ok {
		c.Remove(t.ID)
	}
	c.tasks = append([]model.Task{t}, c.tasks...)
	c.reindex()
}

// Set replaces the record with t.ID in place; it reports false if absent.
func (c *Collection) Set(t model.Task) bool {
	i, ok := c.index[t.ID]
	if !ok {
		return false
	}
	c.tasks[i] = t
	return true
}

func (c *Collection) Remove(id string) bool {
	i, ok := c.index[id]
	if !ok {
		return false
	}
	c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
	c.reindex()
	return true
}

// Tasks returns a copy in collection order.
func (c *Collection) Tasks() []model.Task {
	out := make([]model.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

func (c *Collection) reindex() {
	c.index = make(map[string]int, len(c.tasks))
	for i, t := range c.tasks {
		c.index[t.ID] = i
	}
}
