package regio

import (
	"context"
	"errors"
	"sync"
)

// errInjected marks mock failures configured by tests.
var errInjected = errors.New("injected failure")

// Mock is a thread-safe in-memory register channel for testing and
// development. It records every write in order so tests can assert on
// register programming sequences.
type Mock struct {
	mu        sync.Mutex
	regs      map[uint16]uint32
	log       []RegVal
	failWrite bool
	failRead  bool
	failAfter int             // fail the Nth write from now; -1 = disabled
	failAt    map[uint16]bool // fail writes to specific addresses
}

// NewMock creates a new mock channel with all registers reading as zero.
func NewMock() *Mock {
	return &Mock{
		regs:      make(map[uint16]uint32),
		failAfter: -1,
		failAt:    make(map[uint16]bool),
	}
}

// SetFailWrite configures the mock to fail all write operations.
func (m *Mock) SetFailWrite(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrite = fail
}

// SetFailRead configures the mock to fail all read operations.
func (m *Mock) SetFailRead(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failRead = fail
}

// FailAfterWrites arms a one-shot failure on the nth write from now
// (n=0 fails the next write). Pass a negative n to disarm.
func (m *Mock) FailAfterWrites(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
}

// FailAtReg configures writes to the given register address to fail.
func (m *Mock) FailAtReg(addr uint16, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAt[addr] = fail
}

func (m *Mock) Write(ctx context.Context, reg Reg, val uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite || m.failAt[reg.Addr] {
		return &IOError{Op: "write", Addr: reg.Addr, Err: errInjected}
	}
	if m.failAfter >= 0 {
		if m.failAfter == 0 {
			m.failAfter = -1
			return &IOError{Op: "write", Addr: reg.Addr, Err: errInjected}
		}
		m.failAfter--
	}
	m.regs[reg.Addr] = val
	m.log = append(m.log, RegVal{Reg: reg, Val: val})
	return nil
}

func (m *Mock) Read(ctx context.Context, reg Reg) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRead {
		return 0, &IOError{Op: "read", Addr: reg.Addr, Err: errInjected}
	}
	return m.regs[reg.Addr], nil
}

func (m *Mock) WriteSeq(ctx context.Context, seq []RegVal) error {
	for _, rv := range seq {
		if err := m.Write(ctx, rv.Reg, rv.Val); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mock) Close() error { return nil }

// Reg returns the last value written to the given register address.
func (m *Mock) Reg(addr uint16) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[addr]
}

// Writes returns a copy of the ordered write log.
func (m *Mock) Writes() []RegVal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RegVal, len(m.log))
	copy(out, m.log)
	return out
}

// WriteCount returns the number of successful writes so far.
func (m *Mock) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.log)
}

// ClearLog discards the recorded write log (register values are kept).
func (m *Mock) ClearLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = nil
}
