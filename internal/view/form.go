package view

import (
	"strings"

	"taskhub/internal/service"
)

// ValidationError is a validation failure for a single form field. It is
// resolved entirely on the client; nothing is dispatched while the form
// has field errors.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// TaskForm is the shared create/edit form surface.
type TaskForm struct {
	Title       string
	Description string
	Priority    string
}

// FormForCreate returns an empty form.
func FormForCreate() TaskForm {
	return TaskForm{}
}

// FormForEdit returns a form pre-populated from an existing task.
func FormForEdit(t service.Task) TaskForm {
	return TaskForm{
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
	}
}

// Validate checks the required fields: a non-empty title and a selected,
// valid priority. It returns one ValidationError per failing field.
func (f TaskForm) Validate() []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(f.Title) == "" {
		errs = append(errs, ValidationError{Field: "title", Message: "title is required"})
	}
	if f.Priority == "" {
		errs = append(errs, ValidationError{Field: "priority", Message: "priority is required"})
	} else if !service.Priority(f.Priority).Valid() {
		errs = append(errs, ValidationError{Field: "priority", Message: "priority must be low, medium or high"})
	}
	return errs
}

// Draft converts a validated form into a TaskDraft.
func (f TaskForm) Draft() service.TaskDraft {
	return service.TaskDraft{
		Title:       strings.TrimSpace(f.Title),
		Description: f.Description,
		Priority:    service.Priority(f.Priority),
	}
}
