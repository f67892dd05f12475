package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"taskboard/internal/board"
	"taskboard/internal/model"
)

const helpText = `commands:
  show                                   print the board
  add <title> | <description> [| <priority> [| <deadline> [| <progress>]]]
  progress <id> <0-100>
  status <id>                            toggle complete/incomplete
  edit <id> <title|description|priority|deadline> <value>   deadline - clears it
  rm <id>
  drag <id>, drop <column>, cancel
  note [text]                            show or replace the note
  reload
  dismiss <id>                           let the alerts of a task fire again
  help, quit`

var errQuit = errors.New("quit")

// shell is the line-oriented front end of the board.
type shell struct {
	board *board.Board
	notes *board.NotesAutosave
	owner string
	out   io.Writer
}

func (s *shell) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	fmt.Fprint(s.out, "> ")
	for sc.Scan() {
		err := s.exec(ctx, sc.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(s.out, "> ")
	}
	return sc.Err()
}

func (s *shell) exec(ctx context.Context, line string) error {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	ts := s.board.Sync()

	switch strings.ToLower(cmd) {
	case "":
		return nil
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "quit", "exit":
		return errQuit
	case "show":
		s.show()
	case "reload":
		if err := ts.Load(ctx, s.owner); err != nil {
			return err
		}
		s.show()
	case "add":
		draft, err := parseDraft(rest)
		if err != nil {
			return err
		}
		created, err := ts.Create(ctx, draft)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "created %s\n", created.ID)
	case "progress":
		id, value, ok := strings.Cut(rest, " ")
		if !ok {
			return errors.New("usage: progress <id> <0-100>")
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("progress must be a number: %w", err)
		}
		_, err = ts.Patch(ctx, id, model.TaskPatch{Progress: &n})
		return err
	case "status":
		t, err := board.ToggleStatus(ctx, ts, rest)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s is %s\n", t.ID, t.EffectiveStatus())
	case "edit":
		id, patch, err := parseEdit(rest)
		if err != nil {
			return err
		}
		_, err = ts.Patch(ctx, id, patch)
		return err
	case "rm":
		return ts.Remove(ctx, rest)
	case "drag":
		return s.board.Drag().Start(rest)
	case "drop":
		col, err := board.ParseColumn(rest)
		if err != nil {
			s.board.Drag().Cancel()
			return err
		}
		fmt.Fprintln(s.out, s.board.Drag().Drop(col))
	case "cancel":
		s.board.Drag().Cancel()
	case "note":
		if rest == "" {
			fmt.Fprintln(s.out, s.notes.Content())
			return nil
		}
		s.notes.SetContent(rest)
	case "dismiss":
		s.board.Scheduler().Dismiss(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
	return nil
}

func (s *shell) show() {
	cols := s.board.Columns()
	overrides := s.board.Drag().Overrides()
	fmt.Fprintf(s.out, "board of %s\n", s.owner)
	for _, col := range board.Columns {
		fmt.Fprintf(s.out, "%s (%d)\n", col, len(cols[col]))
		for _, t := range cols[col] {
			mark := ""
			if _, moved := overrides[t.ID]; moved {
				mark = " *"
			}
			deadline := ""
			if t.Deadline != "" {
				deadline = " due " + t.Deadline
			}
			fmt.Fprintf(s.out, "  %s  %-30s %3d%% %-6s%s%s\n", t.ID, t.Title, t.Progress, t.Priority, deadline, mark)
		}
	}
	alerts := s.board.Alerts()
	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].Severity == model.SeverityUrgent && alerts[j].Severity != model.SeverityUrgent })
	for _, a := range alerts {
		fmt.Fprintf(s.out, "! %s\n", a.Message)
	}
	if err := s.board.Sync().Err(); err != nil {
		fmt.Fprintf(s.out, "last load failed: %v\n", err)
	}
}

func parseDraft(rest string) (model.TaskDraft, error) {
	parts := strings.Split(rest, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 {
		return model.TaskDraft{}, errors.New("usage: add <title> | <description> [| priority [| deadline [| progress]]]")
	}
	draft := model.TaskDraft{Title: parts[0], Description: parts[1]}
	if len(parts) > 2 {
		p, err := model.ParsePriority(parts[2])
		if err != nil {
			return model.TaskDraft{}, err
		}
		draft.Priority = p
	}
	if len(parts) > 3 {
		draft.Deadline = parts[3]
	}
	if len(parts) > 4 && parts[4] != "" {
		n, err := strconv.Atoi(parts[4])
		if err != nil {
			return model.TaskDraft{}, fmt.Errorf("progress must be a number: %w", err)
		}
		draft.Progress = n
	}
	return draft, nil
}

func parseEdit(rest string) (string, model.TaskPatch, error) {
	fields := strings.SplitN(rest, " ", 3)
	if len(fields) < 3 {
		return "", model.TaskPatch{}, errors.New("usage: edit <id> <field> <value>")
	}
	id, field, value := fields[0], strings.ToLower(fields[1]), strings.TrimSpace(fields[2])

	var patch model.TaskPatch
	switch field {
	case "title":
		patch.Title = &value
	case "description":
		patch.Description = &value
	case "priority":
		p, err := model.ParsePriority(value)
		if err != nil {
			return "", model.TaskPatch{}, err
		}
		patch.Priority = &p
	case "deadline":
		if value == "-" {
			value = ""
		}
		patch.Deadline = &value
	default:
		return "", model.TaskPatch{}, fmt.Errorf("cannot edit %q", field)
	}
	return id, patch, nil
}
