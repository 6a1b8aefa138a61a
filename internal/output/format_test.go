package output

import (
	"strings"
	"testing"

	"taskhub/internal/service"
)

func TestFormatTask(t *testing.T) {
	tests := []struct {
		name string
		num  int
		task service.Task
		want string
	}{
		{
			name: "open task",
			num:  1,
			task: service.Task{Title: "Buy milk", Priority: service.PriorityHigh},
			want: "   1  [ ] high    Buy milk\n",
		},
		{
			name: "completed task",
			num:  12,
			task: service.Task{Title: "Ship it", Priority: service.PriorityLow, Completed: true},
			want: "  12  [x] low     Ship it\n",
		},
		{
			name: "empty title",
			num:  2,
			task: service.Task{Title: "   ", Priority: service.PriorityMedium},
			want: "   2  [ ] medium  (untitled)\n",
		},
		{
			name: "newlines flattened",
			num:  3,
			task: service.Task{Title: "line one\nline two", Priority: service.PriorityMedium},
			want: "   3  [ ] medium  line one line two\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			FormatTask(&b, tt.num, tt.task)
			if b.String() != tt.want {
				t.Errorf("got %q, want %q", b.String(), tt.want)
			}
		})
	}
}

func TestFormatTaskDetail(t *testing.T) {
	var b strings.Builder
	FormatTaskDetail(&b, 1, service.Task{
		Title:       "Buy milk",
		Description: "the oat kind",
		Priority:    service.PriorityLow,
	})
	want := "   1  [ ] low     Buy milk\n      the oat kind\n"
	if b.String() != want {
		t.Errorf("got %q, want %q", b.String(), want)
	}
}

func TestFormatSession(t *testing.T) {
	var b strings.Builder
	FormatSession(&b, service.Session{Email: "a@b.c", DisplayName: "Alice"})
	if b.String() != "a@b.c (Alice)\n" {
		t.Errorf("with display name: %q", b.String())
	}

	b.Reset()
	FormatSession(&b, service.Session{Email: "a@b.c"})
	if b.String() != "a@b.c\n" {
		t.Errorf("without display name: %q", b.String())
	}
}
