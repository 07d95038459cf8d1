package app

import (
	"unicode/utf8"

	"github.com/rebeliceyang/pglens/internal/completion"
	"github.com/rebeliceyang/pglens/internal/models"
)

// The SQL cursor is a byte offset that always sits on a rune boundary.

func insertText(s *models.SessionState, text string) {
	c := clampCursor(s)
	s.SQLText = s.SQLText[:c] + text + s.SQLText[c:]
	s.SQLCursor = c + len(text)
	refreshCompletion(s)
}

func deleteBackward(s *models.SessionState) {
	c := clampCursor(s)
	if c == 0 {
		return
	}
	_, size := utf8.DecodeLastRuneInString(s.SQLText[:c])
	s.SQLText = s.SQLText[:c-size] + s.SQLText[c:]
	s.SQLCursor = c - size
	refreshCompletion(s)
}

func moveLeft(s *models.SessionState) {
	c := clampCursor(s)
	if c > 0 {
		_, size := utf8.DecodeLastRuneInString(s.SQLText[:c])
		s.SQLCursor = c - size
	}
	s.Completion.Hide()
}

func moveRight(s *models.SessionState) {
	c := clampCursor(s)
	if c < len(s.SQLText) {
		_, size := utf8.DecodeRuneInString(s.SQLText[c:])
		s.SQLCursor = c + size
	}
	s.Completion.Hide()
}

// replaceBuffer swaps the whole editor text and puts the cursor at its end
func replaceBuffer(s *models.SessionState, text string) {
	s.SQLText = text
	s.SQLCursor = len(text)
	s.Completion.Hide()
}

// clampCursor pulls an out-of-range or mid-rune cursor back to a boundary
func clampCursor(s *models.SessionState) int {
	c := s.SQLCursor
	if c < 0 {
		c = 0
	}
	if c > len(s.SQLText) {
		c = len(s.SQLText)
	}
	for c > 0 && c < len(s.SQLText) && !utf8.RuneStart(s.SQLText[c]) {
		c--
	}
	s.SQLCursor = c
	return c
}

func refreshCompletion(s *models.SessionState) {
	if !s.CompletionEnabled {
		s.Completion.Hide()
		return
	}
	res := completion.Complete(s.SQLText, s.SQLCursor, s.Tables, s.Catalog)
	if !res.Visible() {
		s.Completion.Hide()
		s.Completion.PrefixStart = res.PrefixStart
		return
	}
	s.Completion = models.CompletionState{
		Items:       res.Items,
		Visible:     true,
		PrefixStart: res.PrefixStart,
	}
}

func acceptCompletion(s *models.SessionState) bool {
	if !s.Completion.Visible || len(s.Completion.Items) == 0 {
		return false
	}
	sel := s.Completion.Selected
	if sel < 0 || sel >= len(s.Completion.Items) {
		sel = 0
	}
	s.SQLText, s.SQLCursor = completion.Accept(s.SQLText, clampCursor(s), s.Completion.PrefixStart, s.Completion.Items[sel])
	s.Completion.Hide()
	return true
}

// moveCompletion moves the popup selection, wrapping at both ends
func moveCompletion(s *models.SessionState, dir Direction) {
	n := len(s.Completion.Items)
	if n == 0 {
		return
	}
	if dir == Up {
		s.Completion.Selected = (s.Completion.Selected - 1 + n) % n
	} else {
		s.Completion.Selected = (s.Completion.Selected + 1) % n
	}
}
