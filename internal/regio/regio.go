// Package regio provides the register channel abstraction for the IMX585
// control bus. It defines the Channel interface and register descriptor
// types used by both the real I2C channel and the mock channel.
package regio

import (
	"context"
	"fmt"
)

// Reg describes a sensor register: a 16-bit address plus the width and byte
// order of its value on the wire.
type Reg struct {
	Addr  uint16
	Width uint8 // 1, 2 or 3 bytes
	BE    bool  // big-endian payload; IMX585 registers are little-endian
}

// Reg8 returns a descriptor for an 8-bit register.
func Reg8(addr uint16) Reg { return Reg{Addr: addr, Width: 1} }

// Reg16LE returns a descriptor for a 16-bit little-endian register.
func Reg16LE(addr uint16) Reg { return Reg{Addr: addr, Width: 2} }

// Reg24LE returns a descriptor for a 24-bit little-endian register.
func Reg24LE(addr uint16) Reg { return Reg{Addr: addr, Width: 3} }

// RegVal pairs a register with the value to be written to it.
type RegVal struct {
	Reg Reg
	Val uint32
}

// Channel is the register I/O interface for the sensor control bus.
// All operations are context-aware and safe for concurrent use.
type Channel interface {
	// Write writes an N-byte value to a register as one bus transaction.
	Write(ctx context.Context, reg Reg, val uint32) error

	// Read reads an N-byte value from a register.
	Read(ctx context.Context, reg Reg) (uint32, error)

	// WriteSeq writes a sequence of registers, stopping at the first failure.
	WriteSeq(ctx context.Context, seq []RegVal) error

	// Close releases the underlying bus.
	Close() error
}

// IOError is returned when a bus transaction fails.
type IOError struct {
	Op   string // "write" or "read"
	Addr uint16
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("regio: %s reg 0x%04x: %v", e.Op, e.Addr, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// encode serializes val into buf according to the register width and byte
// order. buf must have room for reg.Width bytes.
func encode(reg Reg, val uint32, buf []byte) {
	for i := uint8(0); i < reg.Width; i++ {
		shift := 8 * i
		if reg.BE {
			shift = 8 * (reg.Width - 1 - i)
		}
		buf[i] = byte(val >> shift)
	}
}

// decode deserializes a register value from buf.
func decode(reg Reg, buf []byte) uint32 {
	var val uint32
	for i := uint8(0); i < reg.Width; i++ {
		shift := 8 * i
		if reg.BE {
			shift = 8 * (reg.Width - 1 - i)
		}
		val |= uint32(buf[i]) << shift
	}
	return val
}
