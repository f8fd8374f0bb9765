package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"pending to active", StatusPendingModeration, StatusActive, true},
		{"pending to rejected", StatusPendingModeration, StatusRejected, true},
		{"pending to hidden", StatusPendingModeration, StatusHidden, false},
		{"active to hidden", StatusActive, StatusHidden, true},
		{"active to pending on re-moderation", StatusActive, StatusPendingModeration, true},
		{"active to rejected", StatusActive, StatusRejected, true},
		{"hidden to active", StatusHidden, StatusActive, true},
		{"hidden to rejected", StatusHidden, StatusRejected, false},
		{"rejected to active", StatusRejected, StatusActive, true},
		{"rejected to hidden", StatusRejected, StatusHidden, false},
		{"unknown status", "archived", StatusActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Review{Status: tt.from}
			assert.Equal(t, tt.allowed, r.CanTransitionTo(tt.to))
		})
	}
}

func TestIsValidRating(t *testing.T) {
	valid := []float64{1.0, 1.5, 2.0, 3.5, 4.5, 5.0}
	for _, v := range valid {
		assert.True(t, IsValidRating(v), "rating %v", v)
	}

	invalid := []float64{0, 0.5, 5.5, 4.2, 3.75, -1}
	for _, v := range invalid {
		assert.False(t, IsValidRating(v), "rating %v", v)
	}
}

func TestIsValidBody(t *testing.T) {
	assert.False(t, IsValidBody("too short"))
	assert.True(t, IsValidBody(makeBody(50)))
	assert.True(t, IsValidBody(makeBody(2000)))
	assert.False(t, IsValidBody(makeBody(2001)))
}

func TestIsValidBody_CountsRunes(t *testing.T) {
	body := make([]rune, 50)
	for i := range body {
		body[i] = 'ğ'
	}
	assert.True(t, IsValidBody(string(body)))
}

func TestCanEdit(t *testing.T) {
	created := time.Now().Add(-time.Hour)

	r := &Review{Status: StatusActive, CreatedAt: created}
	assert.True(t, r.CanEdit(time.Now()))

	r = &Review{Status: StatusHidden, CreatedAt: created}
	assert.False(t, r.CanEdit(time.Now()), "only active reviews are editable")

	r = &Review{Status: StatusActive, CreatedAt: created, EditCount: MaxEdits}
	assert.False(t, r.CanEdit(time.Now()), "edit count cap")

	r = &Review{Status: StatusActive, CreatedAt: time.Now().Add(-25 * time.Hour)}
	assert.False(t, r.CanEdit(time.Now()), "outside the edit window")

	r = &Review{Status: StatusActive, CreatedAt: time.Now().Add(-(EditWindow - time.Minute)), EditCount: MaxEdits - 1}
	assert.True(t, r.CanEdit(time.Now()), "last edit just inside the window")
}

func TestIsValidCategory(t *testing.T) {
	assert.True(t, IsValidCategory(CategorySalary))
	assert.False(t, IsValidCategory("parking"))
}

func makeBody(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}
