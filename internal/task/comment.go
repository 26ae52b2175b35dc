package task

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Comment is a note attached to a task.
type Comment struct {
	ID        string
	Text      string
	CreatedAt time.Time
	UpdatedAt *time.Time

	// SkipJustification marks comments written when skipping for the day.
	SkipJustification bool
}

func newComment(text string, justification bool, now time.Time) Comment {
	return Comment{
		ID:                uuid.NewString(),
		Text:              text,
		CreatedAt:         now,
		SkipJustification: justification,
	}
}

// AddComment appends an ordinary comment and returns it.
func (t *Task) AddComment(text string, now time.Time) (Comment, error) {
	if err := t.requireActive(); err != nil {
		return Comment{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, ErrEmptyComment
	}
	c := newComment(text, false, now)
	t.Comments = append(t.Comments, c)
	return c, nil
}

// EditComment replaces the text of an existing comment.
func (t *Task) EditComment(id, text string, now time.Time) error {
	if err := t.requireActive(); err != nil {
		return err
	}
	i := t.commentIndex(id)
	if i < 0 {
		return ErrCommentNotFound
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyComment
	}
	t.Comments[i].Text = text
	t.Comments[i].UpdatedAt = &now
	return nil
}

// DeleteComment removes a comment. The justification of the current day
// skip cannot be removed.
func (t *Task) DeleteComment(id string) error {
	if err := t.requireActive(); err != nil {
		return err
	}
	i := t.commentIndex(id)
	if i < 0 {
		return ErrCommentNotFound
	}
	if t.Skip != nil && t.Skip.Kind == SkipForDay && t.Skip.CommentID == id {
		return ErrJustificationInUse
	}
	t.Comments = append(t.Comments[:i:i], t.Comments[i+1:]...)
	return nil
}

// Comment looks up a comment by id.
func (t *Task) Comment(id string) (Comment, bool) {
	if i := t.commentIndex(id); i >= 0 {
		return t.Comments[i], true
	}
	return Comment{}, false
}

func (t *Task) commentIndex(id string) int {
	for i := range t.Comments {
		if t.Comments[i].ID == id {
			return i
		}
	}
	return -1
}
