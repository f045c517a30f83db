package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/claude/nextrep/internal/workout"
)

var errUsage = errors.New("usage")

const usage = `Commands:
  show                               print the current draft
  name <text>                        rename the draft
  add <exercise>                     add a catalog exercise (UUID or search text)
  remove <ex>                        remove exercise number <ex>
  move <from> <to>                   reorder exercises (1-based positions)
  set <ex>                           add a set to exercise <ex>
  update <ex> <set> <field> <value>  field is weight, reps or seconds
  done <ex> <set>                    toggle a set complete
  unset <ex> <set>                   remove a set
  start                              start the session
  finish-exercise <ex>               mark an exercise completed
  restore <ex>                       reopen a completed exercise
  focus <ex>                         make an exercise the active one
  finish                             end the session and save it
  reset                              discard the draft
  history                            list recently saved sessions`

// position parses a 1-based index into d's exercises.
func position(d workout.Draft, arg string) (workout.Entry, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(d.Exercises) {
		return workout.Entry{}, fmt.Errorf("no exercise %q (have %d)", arg, len(d.Exercises))
	}
	return d.Exercises[n-1], nil
}

func setAt(e workout.Entry, arg string) (workout.Set, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(e.Sets) {
		return workout.Set{}, fmt.Errorf("no set %q in %s (have %d)", arg, e.ExerciseName, len(e.Sets))
	}
	return e.Sets[n-1], nil
}

// parseAction turns a command line into an action on d. Commands that need
// the server (add, finish, history) are handled by the caller.
func parseAction(d workout.Draft, cmd string, args []string) (workout.Action, error) {
	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s: %w", cmd, errUsage)
		}
		return nil
	}

	switch cmd {
	case "name":
		if err := need(1); err != nil {
			return nil, err
		}
		return workout.SetName{Value: strings.Join(args, " ")}, nil

	case "remove", "set", "finish-exercise", "restore", "focus":
		if err := need(1); err != nil {
			return nil, err
		}
		e, err := position(d, args[0])
		if err != nil {
			return nil, err
		}
		switch cmd {
		case "remove":
			return workout.RemoveExercise{EntryID: e.ID}, nil
		case "set":
			return workout.AddSet{EntryID: e.ID}, nil
		case "finish-exercise":
			return workout.FinishExercise{EntryID: e.ID}, nil
		case "restore":
			return workout.RestoreExercise{EntryID: e.ID}, nil
		default:
			return workout.SetActiveExercise{EntryID: e.ID}, nil
		}

	case "move":
		if err := need(2); err != nil {
			return nil, err
		}
		from, err1 := strconv.Atoi(args[0])
		to, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("move: positions must be numbers")
		}
		return workout.ReorderExercises{From: from - 1, To: to - 1}, nil

	case "update", "done", "unset":
		n := 2
		if cmd == "update" {
			n = 4
		}
		if err := need(n); err != nil {
			return nil, err
		}
		e, err := position(d, args[0])
		if err != nil {
			return nil, err
		}
		s, err := setAt(e, args[1])
		if err != nil {
			return nil, err
		}
		switch cmd {
		case "done":
			return workout.ToggleSetComplete{EntryID: e.ID, SetID: s.ID}, nil
		case "unset":
			return workout.RemoveSet{EntryID: e.ID, SetID: s.ID}, nil
		}
		field := workout.SetField(args[2])
		switch field {
		case workout.FieldWeight, workout.FieldReps, workout.FieldSeconds:
		default:
			return nil, fmt.Errorf("update: unknown field %q", args[2])
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(args[3], ",", "."), 64)
		if err != nil {
			return nil, fmt.Errorf("update: %q is not a number", args[3])
		}
		return workout.UpdateSet{EntryID: e.ID, SetID: s.ID, Field: field, Value: v}, nil

	case "start":
		return workout.StartSession{}, nil
	case "reset":
		return workout.ResetDraft{}, nil
	}
	return nil, fmt.Errorf("unknown command %q", cmd)
}

func render(w io.Writer, d workout.Draft, now time.Time) {
	fmt.Fprintf(w, "%s [%s]\n", d.Name, d.Status)
	for i, e := range d.Exercises {
		marker := " "
		if d.ActiveExerciseID != nil && *d.ActiveExerciseID == e.ID {
			marker = ">"
		}
		fmt.Fprintf(w, "%s %d. %s (%s, %s)\n", marker, i+1, e.ExerciseName, e.MeasurementType, e.Status)
		for j, s := range e.Sets {
			check := "[ ]"
			if s.Completed {
				check = "[x]"
			}
			fmt.Fprintf(w, "     %s %d: %s\n", check, j+1, describeSet(s))
		}
	}
	if d.Status == workout.StatusPlanning && len(d.Exercises) == 0 {
		fmt.Fprintln(w, "  (empty, add an exercise to begin)")
		return
	}
	sum := workout.Summarize(d, now)
	fmt.Fprintf(w, "volume %.1f kg · %d sets · %d exercises · %d min · %d PRs\n",
		sum.Volume, sum.Sets, sum.Exercises, sum.Minutes, sum.PRs)
}

func describeSet(s workout.Set) string {
	var parts []string
	if s.Weight != nil {
		parts = append(parts, strconv.FormatFloat(*s.Weight, 'f', -1, 64)+" kg")
	}
	if s.Reps != nil {
		parts = append(parts, strconv.Itoa(*s.Reps)+" reps")
	}
	if s.Seconds != nil {
		parts = append(parts, strconv.Itoa(*s.Seconds)+" s")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " × ")
}
