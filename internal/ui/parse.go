package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"simply/internal/book"
	"simply/internal/config"
	"simply/internal/engine"
	"simply/internal/task"
)

var ErrUnknownCommand = errors.New("unknown command")

const (
	usageAdd     = "add NAME[; DATE[; [START;] END]] [#tag ...]"
	usageDelete  = "delete E1 D2 ..."
	usageDone    = "done E1 T2 ..."
	usageEdit    = "edit E1 des|date|start|end|tag|add VALUE[; ...]"
	usageFind    = "find KEYWORD ..."
	usageList    = "list [done|all]"
	usageStorage = "storage PATH"
)

// Parse turns one command line into an engine command. cfg is the
// current config, needed by "storage" to build the replacement.
func Parse(line string, cfg []byte) (engine.Command, error) {
	line = strings.TrimSpace(line)
	verb, args, _ := strings.Cut(line, " ")
	args = strings.TrimSpace(args)

	switch strings.ToLower(verb) {
	case "add":
		return parseAdd(args)
	case "delete", "del", "rm":
		refs, err := parseRefs(args, usageDelete)
		if err != nil {
			return nil, err
		}
		return engine.Delete{Targets: refs}, nil
	case "done":
		refs, err := parseRefs(args, usageDone)
		if err != nil {
			return nil, err
		}
		return engine.MarkDone{Targets: refs}, nil
	case "edit":
		return parseEdit(args)
	case "find":
		kws := strings.Fields(args)
		if len(kws) == 0 {
			return nil, usage("keywords", usageFind)
		}
		return engine.Find{Keywords: kws}, nil
	case "list", "ls":
		switch strings.ToLower(args) {
		case "":
			return engine.List{Show: engine.ShowUncompleted}, nil
		case "done":
			return engine.List{Show: engine.ShowCompleted}, nil
		case "all":
			return engine.List{Show: engine.ShowAll}, nil
		default:
			return nil, usage("list", usageList)
		}
	case "undo":
		n, err := parseCount(args)
		if err != nil {
			return nil, err
		}
		return engine.Undo{N: n}, nil
	case "redo":
		n, err := parseCount(args)
		if err != nil {
			return nil, err
		}
		return engine.Redo{N: n}, nil
	case "storage":
		return parseStorage(args, cfg)
	case "":
		return nil, usage("command", "type a command, e.g. "+usageAdd)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, verb)
	}
}

func usage(field, text string) error {
	return &task.ValidationError{Field: field, Err: fmt.Errorf("usage: %s", text)}
}

func parseAdd(args string) (engine.Command, error) {
	body, tagNames := splitTags(args)
	parts := strings.Split(body, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	tags, err := task.NewTags(tagNames...)
	if err != nil {
		return nil, err
	}
	name := parts[0]
	if name == "" {
		return nil, usage("name", usageAdd)
	}

	var t task.Task
	switch len(parts) {
	case 1:
		t, err = task.NewTodo(name, tags)
	case 2, 3:
		var d task.Date
		var e task.End
		if d, err = task.ParseDate(parts[1]); err != nil {
			return nil, err
		}
		end := ""
		if len(parts) == 3 {
			end = parts[2]
		}
		if e, err = task.ParseEnd(end); err != nil {
			return nil, err
		}
		t, err = task.NewDeadline(name, d, e, tags)
	case 4:
		var d task.Date
		var s task.Start
		var e task.End
		if d, err = task.ParseDate(parts[1]); err != nil {
			return nil, err
		}
		if s, err = task.ParseStart(parts[2]); err != nil {
			return nil, err
		}
		if e, err = task.ParseEnd(parts[3]); err != nil {
			return nil, err
		}
		t, err = task.NewEvent(name, d, s, e, tags)
	default:
		return nil, usage("add", usageAdd)
	}
	if err != nil {
		return nil, err
	}
	return engine.Add{Task: t}, nil
}

// splitTags cuts the trailing run of #words off args.
func splitTags(args string) (string, []string) {
	fields := strings.Fields(args)
	i := len(fields)
	for i > 0 && strings.HasPrefix(fields[i-1], "#") {
		i--
	}
	if i == len(fields) {
		return args, nil
	}
	return strings.Join(fields[:i], " "), fields[i:]
}

func parseRefs(args, text string) ([]engine.Ref, error) {
	fields := strings.FieldsFunc(args, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
	if len(fields) == 0 {
		return nil, usage("index", text)
	}
	refs := make([]engine.Ref, 0, len(fields))
	for _, f := range fields {
		r, err := parseRef(f)
		if err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, nil
}

// parseRef reads a category letter followed by a 1-based index, e.g. E2.
func parseRef(s string) (engine.Ref, error) {
	if len(s) < 2 {
		return engine.Ref{}, &task.ValidationError{Field: "index", Err: fmt.Errorf("%q is not a task index like E1", s)}
	}
	c, err := task.ParseCategory(s[:1])
	if err != nil {
		return engine.Ref{}, &task.ValidationError{Field: "index", Err: fmt.Errorf("%q is not a task index like E1", s)}
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 1 {
		return engine.Ref{}, &task.ValidationError{Field: "index", Err: fmt.Errorf("%q is not a task index like E1", s)}
	}
	return engine.Ref{Category: c, Index: n}, nil
}

func parseEdit(args string) (engine.Command, error) {
	refText, rest, _ := strings.Cut(args, " ")
	ref, err := parseRef(refText)
	if err != nil {
		return nil, err
	}
	var changes []book.Change
	for _, part := range strings.Split(rest, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ch, err := parseChange(part)
		if err != nil {
			return nil, err
		}
		changes = append(changes, ch)
	}
	if len(changes) == 0 {
		return nil, usage("edit", usageEdit)
	}
	return engine.Edit{Target: ref, Changes: changes}, nil
}

func parseChange(s string) (book.Change, error) {
	key, value, _ := strings.Cut(s, " ")
	value = strings.TrimSpace(value)
	if value == "" {
		return book.Change{}, usage("edit", usageEdit)
	}
	switch strings.ToLower(key) {
	case "des", "name":
		return book.Rename(value), nil
	case "date":
		return book.SetDate(value), nil
	case "start":
		return book.SetStart(value), nil
	case "end":
		return book.SetEnd(value), nil
	case "tag":
		if from, to, ok := strings.Cut(value, ">"); ok {
			return book.RenameTag(tagName(from), tagName(to)), nil
		}
		return book.ReplaceTags(strings.Fields(value)...), nil
	case "add":
		return book.AddTags(strings.Fields(value)...), nil
	default:
		return book.Change{}, usage("edit", usageEdit)
	}
}

func tagName(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "#")
}

func parseCount(args string) (int, error) {
	if args == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(args)
	if err != nil || n < 1 {
		return 0, &task.ValidationError{Field: "count", Err: fmt.Errorf("%q is not a positive number", args)}
	}
	return n, nil
}

func parseStorage(args string, current []byte) (engine.Command, error) {
	if args == "" {
		return nil, usage("path", usageStorage)
	}
	cfg, err := config.Decode(current)
	if err != nil {
		return nil, err
	}
	cfg.DBPath = args
	data, err := config.Encode(cfg)
	if err != nil {
		return nil, err
	}
	return engine.Configure{Config: data}, nil
}
