package board

import (
	"fmt"
	"strings"

	"taskboard/internal/model"
)

type Column string

const (
	ColumnToDo       Column = "To Do"
	ColumnInProgress Column = "In Progress"
	ColumnCompleted  Column = "Completed"
)

// Columns lists the board columns in display order.
var Columns = []Column{ColumnToDo, ColumnInProgress, ColumnCompleted}

// Progress thresholds; ties resolve to the lower column.
const (
	toDoMaxProgress       = 40
	inProgressMaxProgress = 80
)

func (c Column) Valid() bool {
	return c == ColumnToDo || c == ColumnInProgress || c == ColumnCompleted
}

// ParseColumn accepts display names and the short forms todo, doing/progress, done.
func ParseColumn(s string) (Column, error) {
	norm := strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch norm {
	case "todo":
		return ColumnToDo, nil
	case "inprogress", "progress", "doing":
		return ColumnInProgress, nil
	case "completed", "complete", "done":
		return ColumnCompleted, nil
	}
	return "", fmt.Errorf("unknown column %q", s)
}

// ColumnFor maps a progress value to its column.
func ColumnFor(progress int) Column {
	switch {
	case progress <= toDoMaxProgress:
		return ColumnToDo
	case progress <= inProgressMaxProgress:
		return ColumnInProgress
	default:
		return ColumnCompleted
	}
}

// Partition is a column view of a task collection.
type Partition map[Column][]model.Task

// Categorize is the pure projection from tasks to columns. Collection order
// is preserved inside each column and every column key is present.
func Categorize(tasks []model.Task) Partition {
	p := Partition{
		ColumnToDo:       []model.Task{},
		ColumnInProgress: []model.Task{},
		ColumnCompleted:  []model.Task{},
	}
	for _, t := range tasks {
		col := ColumnFor(t.Progress)
		p[col] = append(p[col], t)
	}
	return p
}

func (p Partition) Len() int {
	n := 0
	for _, tasks := range p {
		n += len(tasks)
	}
	return n
}

// Find returns the column holding id.
func (p Partition) Find(id string) (Column, model.Task, bool) {
	for _, col := range Columns {
		for _, t := range p[col] {
			if t.ID == id {
				return col, t, true
			}
		}
	}
	return "", model.Task{}, false
}

// Counts returns the number of tasks per column. Every entry of Columns has a
// key, empty columns included; iterate Columns for display order.
func (p Partition) Counts() map[Column]int {
	out := make(map[Column]int, len(Columns))
	for _, col := range Columns {
		out[col] = len(p[col])
	}
	return out
}

func (p Partition) Clone() Partition {
	out := make(Partition, len(p))
	for col, tasks := range p {
		cp := make([]model.Task, len(tasks))
		copy(cp, tasks)
		out[col] = cp
	}
	return out
}
