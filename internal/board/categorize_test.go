package board

import (
	"fmt"
	"math/rand"
	"testing"

	"taskboard/internal/model"
)

func tasksWithProgress(progress ...int) []model.Task {
	out := make([]model.Task, len(progress))
	for i, p := range progress {
		out[i] = model.Task{ID: fmt.Sprintf("p%d", p), Title: fmt.Sprintf("task %d", p), Progress: p}
	}
	return out
}

func TestCategorizeBoundaries(t *testing.T) {
	p := Categorize(tasksWithProgress(0, 40, 41, 80, 81))

	want := map[Column][]string{
		ColumnToDo:       {"p0", "p40"},
		ColumnInProgress: {"p41", "p80"},
		ColumnCompleted:  {"p81"},
	}
	for col, wantIDs := range want {
		if got := ids(p[col]); !equalIDs(got, wantIDs) {
			t.Fatalf("%s: expected %v, got %v", col, wantIDs, got)
		}
	}
}

func TestCategorizePartitionsEveryTaskExactlyOnce(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		n := r.Intn(30)
		tasks := make([]model.Task, n)
		for i := range tasks {
			tasks[i] = model.Task{ID: fmt.Sprintf("t%d", i), Progress: r.Intn(101)}
		}

		p := Categorize(tasks)
		if p.Len() != n {
			t.Fatalf("round %d: expected %d tasks across columns, got %d", round, n, p.Len())
		}
		seen := map[string]int{}
		for _, col := range Columns {
			for _, task := range p[col] {
				seen[task.ID]++
				if ColumnFor(task.Progress) != col {
					t.Fatalf("task %s with progress %d placed in %s", task.ID, task.Progress, col)
				}
			}
		}
		for _, task := range tasks {
			if seen[task.ID] != 1 {
				t.Fatalf("task %s appears %d times", task.ID, seen[task.ID])
			}
		}
	}
}

func TestCategorizeReturnsFreshPartition(t *testing.T) {
	tasks := tasksWithProgress(10)
	first := Categorize(tasks)
	first[ColumnToDo] = nil
	second := Categorize(tasks)
	if len(second[ColumnToDo]) != 1 {
		t.Fatalf("expected mutation of a previous partition not to leak")
	}
}

func TestCategorizeEmptyHasAllColumns(t *testing.T) {
	p := Categorize(nil)
	for _, col := range Columns {
		tasks, ok := p[col]
		if !ok || tasks == nil || len(tasks) != 0 {
			t.Fatalf("expected empty non-nil column %s", col)
		}
	}
}

func TestParseColumn(t *testing.T) {
	tests := map[string]Column{
		"To Do":       ColumnToDo,
		"todo":        ColumnToDo,
		"in progress": ColumnInProgress,
		"doing":       ColumnInProgress,
		"Completed":   ColumnCompleted,
		"done":        ColumnCompleted,
	}
	for in, want := range tests {
		got, err := ParseColumn(in)
		if err != nil || got != want {
			t.Fatalf("ParseColumn(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseColumn("backlog"); err == nil {
		t.Fatalf("expected unknown column error")
	}
}

func TestPartitionCounts(t *testing.T) {
	counts := Categorize(tasksWithProgress(5, 50, 60, 90)).Counts()
	if counts[ColumnToDo] != 1 || counts[ColumnInProgress] != 2 || counts[ColumnCompleted] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}

	empty := Categorize(tasksWithProgress(95)).Counts()
	if len(empty) != len(Columns) {
		t.Fatalf("expected a key for every column, got %v", empty)
	}
	for _, col := range Columns {
		if _, ok := empty[col]; !ok {
			t.Fatalf("missing count for %q", col)
		}
	}
}
