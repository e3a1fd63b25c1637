package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountTasks(t *testing.T) {
	text := `# No Leftovers

- [ ] email vendor (2025-09-09.md)
- [x] book flights
some prose in between
- [ ] file taxes ([[2025-09-08]])

- [X] old done task
`
	open, done := countTasks(text)
	assert.Equal(t, 2, open)
	assert.Equal(t, 2, done)
}

func TestCountTasksEmpty(t *testing.T) {
	open, done := countTasks("")
	assert.Equal(t, 0, open)
	assert.Equal(t, 0, done)
}
