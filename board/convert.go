package board

import (
	"time"

	"zainzo-board/domain"
	"zainzo-board/gtasks"
	"zainzo-board/notes"
)

// cardFromTask translates a remote task into a board card, unpacking the
// metadata smuggled through its notes field.
func cardFromTask(t gtasks.Task) domain.Card {
	desc, meta := notes.Decode(t.Notes)
	return domain.Card{
		ID:          t.ID,
		Title:       t.Title,
		Description: desc,
		Completed:   t.Status == gtasks.StatusCompleted,
		DueDate:     t.Due,
		Labels:      meta.Labels,
		Image:       meta.Image,
	}
}

// taskFromCard builds the remote creation payload for a card, packing
// labels and image back into notes.
func taskFromCard(c domain.Card) gtasks.NewTask {
	status := gtasks.StatusNeedsAction
	if c.Completed {
		status = gtasks.StatusCompleted
	}
	return gtasks.NewTask{
		Title:  c.Title,
		Notes:  notes.Encode(c.Description, notes.Metadata{Labels: c.Labels, Image: c.Image}),
		Status: status,
		Due:    c.DueDate,
	}
}

// normalizeDue turns a plain calendar date into an absolute UTC-midnight
// timestamp. Constructing from UTC components avoids timezone drift; a value
// that is already a full timestamp passes through untouched.
func normalizeDue(s string) string {
	if s == "" {
		return ""
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	}
	return s
}
