package monitor

import "sync"

// Budget caps the number of upstream API calls for the life of the process.
type Budget struct {
	mu   sync.Mutex
	used int
	max  int
}

// NewBudget creates a budget allowing max calls.
func NewBudget(max int) *Budget {
	return &Budget{max: max}
}

// Allow reserves one call. It returns false once max calls were reserved.
func (b *Budget) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.used >= b.max {
		return false
	}
	b.used++
	return true
}

func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

func (b *Budget) Max() int {
	return b.max
}
