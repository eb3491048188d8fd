package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"IncomeLens/internal/filter"
	"IncomeLens/internal/presenter"
	"IncomeLens/internal/sorting"
)

// ErrUnknownCommand is returned by HandleCommand for input it cannot parse.
var ErrUnknownCommand = errors.New("unknown command")

const helpText = `Commands:
  filter <field> [value]  set a bound; omit value to clear it
                          fields: minDate maxDate minRevenue maxRevenue minNetIncome maxNetIncome
  clear [field]           clear one bound, or all of them
  sort <column>           toggle sort on date, revenue or netIncome
  panel <name>            expand/collapse the date, revenue or netIncome panel
  retry                   reload after an error
  show                    print the current view
  help                    print this help
`

// HandleCommand parses one line of the command language, applies it and
// returns the reply to print.
func (s *Session) HandleCommand(ctx context.Context, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}

	var ev Event
	switch strings.ToLower(fields[0]) {
	case "help", "?":
		return helpText, nil
	case "show":
		return s.render()
	case "filter":
		if len(fields) < 2 {
			return "", fmt.Errorf("%w: usage: filter <field> [value]", ErrUnknownCommand)
		}
		f, err := filter.ParseField(fields[1])
		if err != nil {
			return "", err
		}
		ev = SetFilter{Field: f, Value: strings.Join(fields[2:], " ")}
	case "clear":
		if len(fields) == 1 {
			ev = ClearFilters{}
			break
		}
		f, err := filter.ParseField(fields[1])
		if err != nil {
			return "", err
		}
		ev = SetFilter{Field: f}
	case "sort":
		if len(fields) != 2 {
			return "", fmt.Errorf("%w: usage: sort <column>", ErrUnknownCommand)
		}
		k, err := sorting.ParseKey(fields[1])
		if err != nil {
			return "", err
		}
		ev = ToggleSort{Key: k}
	case "panel":
		if len(fields) != 2 {
			return "", fmt.Errorf("%w: usage: panel <name>", ErrUnknownCommand)
		}
		p, err := presenter.ParsePanel(fields[1])
		if err != nil {
			return "", err
		}
		ev = TogglePanel{Panel: p}
	case "retry":
		ev = Retry{}
	default:
		return "", fmt.Errorf("%w: %q (try help)", ErrUnknownCommand, fields[0])
	}

	if err := s.Dispatch(ctx, ev); err != nil {
		return "", err
	}
	return s.render()
}

func (s *Session) render() (string, error) {
	var buf bytes.Buffer
	if err := presenter.Render(&buf, s.Snapshot()); err != nil {
		return "", err
	}
	return buf.String(), nil
}
