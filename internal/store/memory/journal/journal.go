// Package journal records undo steps for in-place writes to memory tables.
package journal

// Journal collects the inverse of every write made while a transaction is
// open. The zero value is idle and records nothing.
type Journal struct {
	steps  []func()
	active bool
}

func (j *Journal) Begin() {
	j.steps = j.steps[:0]
	j.active = true
}

// Record adds an undo step. Outside a transaction it is a no-op.
func (j *Journal) Record(undo func()) {
	if j.active {
		j.steps = append(j.steps, undo)
	}
}

func (j *Journal) Commit() {
	clear(j.steps)
	j.steps = j.steps[:0]
	j.active = false
}

// Rollback undoes the recorded writes, newest first.
func (j *Journal) Rollback() {
	for i := len(j.steps) - 1; i >= 0; i-- {
		j.steps[i]()
	}

	j.Commit()
}
