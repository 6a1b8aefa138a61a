package commands

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"taskhub/internal/service"
)

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a 1-based task number from args. The number refers
// to a task's position in the current snapshot, newest first, as shown
// by the list command without filters.
func ParseTaskRef(args []string) (int, error) {
	if len(args) == 0 {
		return 0, ErrTaskRefRequired
	}
	ref := args[0]
	if !isAllDigits(ref) {
		return 0, fmt.Errorf("invalid task reference: %s", ref)
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid task reference: %s", ref)
	}
	return n, nil
}

// ResolveTask returns the task at the given 1-based snapshot position.
func ResolveTask(items []service.Task, num int) (service.Task, error) {
	if num < 1 || num > len(items) {
		return service.Task{}, fmt.Errorf("no such task: %d", num)
	}
	return items[num-1], nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
