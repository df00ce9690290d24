package runner

import (
	"sync"
)

// Progress tracks live scan counters for logging and the status server.
// Written by the harvesting goroutine, read by HTTP handlers, so it
// carries its own lock; the ResultStore itself stays single-goroutine.
type Progress struct {
	mu sync.RWMutex

	mode          string
	passTotal     int
	passCompleted int
	passValid     int
	passInvalid   int

	storeValid   int
	storeInvalid int
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Mode          string `json:"mode,omitempty"`
	PassTotal     int    `json:"pass_total"`
	PassCompleted int    `json:"pass_completed"`
	PassValid     int    `json:"pass_valid"`
	PassInvalid   int    `json:"pass_invalid"`
	StoreValid    int    `json:"store_valid"`
	StoreInvalid  int    `json:"store_invalid"`
	StoreTotal    int    `json:"store_total"`
}

// NewProgress returns a zeroed tracker.
func NewProgress() *Progress {
	return &Progress{}
}

// SetStoreCounts seeds the persisted-store counters, typically right
// after the resume load.
func (p *Progress) SetStoreCounts(valid, invalid int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.storeValid = valid
	p.storeInvalid = invalid
}

// BeginPass resets the per-pass counters for a new scan pass.
func (p *Progress) BeginPass(total int, mode string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = mode
	p.passTotal = total
	p.passCompleted = 0
	p.passValid = 0
	p.passInvalid = 0
}

// Record accounts one completed validation. replaced/prevValid describe
// the record the result overwrote, if any, so the store counters move
// by the right delta on rescans.
func (p *Progress) Record(valid, replaced, prevValid bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.passCompleted++
	if valid {
		p.passValid++
	} else {
		p.passInvalid++
	}

	if replaced {
		if prevValid {
			p.storeValid--
		} else {
			p.storeInvalid--
		}
	}
	if valid {
		p.storeValid++
	} else {
		p.storeInvalid++
	}
}

// Snapshot returns a copy of the current counters.
func (p *Progress) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Snapshot{
		Mode:          p.mode,
		PassTotal:     p.passTotal,
		PassCompleted: p.passCompleted,
		PassValid:     p.passValid,
		PassInvalid:   p.passInvalid,
		StoreValid:    p.storeValid,
		StoreInvalid:  p.storeInvalid,
		StoreTotal:    p.storeValid + p.storeInvalid,
	}
}
