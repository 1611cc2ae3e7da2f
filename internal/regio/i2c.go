//go:build linux

package regio

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"
)

const (
	i2cRdwrIOCTL = 0x0707 // I2C_RDWR ioctl — combined transfers with REPEATED START
	i2cMsgRD     = 0x0001 // i2c_msg flag: read direction
	maxOpsPerSec = 1000
)

// i2cMsg mirrors struct i2c_msg from linux/i2c.h
type i2cMsg struct {
	addr   uint16
	flags  uint16
	length uint16
	_pad   uint16 // struct alignment
	buf    uintptr
}

// i2cRdwr mirrors struct i2c_rdwr_ioctl_data from linux/i2c-dev.h
type i2cRdwr struct {
	msgs  uintptr
	nmsgs uint32
}

// I2CChannel is the real register channel, speaking to the sensor over a
// Linux I2C adapter using I2C_RDWR transactions. Register addresses are
// 16-bit big-endian on the wire; value byte order follows the Reg descriptor.
type I2CChannel struct {
	mu      sync.Mutex
	fd      int
	addr    uint16 // 7-bit device address
	limiter *rate.Limiter
}

var _ Channel = (*I2CChannel)(nil)

// OpenI2C opens the given I2C character device (e.g. /dev/i2c-10) for the
// sensor at the given 7-bit address.
func OpenI2C(device string, addr uint16) (*I2CChannel, error) {
	fd, err := unix.Open(device, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("regio: open %s: %w", device, err)
	}
	return &I2CChannel{
		fd:      fd,
		addr:    addr,
		limiter: rate.NewLimiter(rate.Limit(maxOpsPerSec), 10),
	}, nil
}

func (c *I2CChannel) Write(ctx context.Context, reg Reg, val uint32) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.writeLocked(reg, val)
	countOp("write", err)
	return err
}

func (c *I2CChannel) Read(ctx context.Context, reg Reg) (uint32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fd < 0 {
		return 0, &IOError{Op: "read", Addr: reg.Addr, Err: unix.EBADF}
	}

	wbuf := [2]byte{byte(reg.Addr >> 8), byte(reg.Addr)}
	var rbuf [3]byte

	// Two i2c_msg: [write reg addr] + [read N bytes], combined with I2C_RDWR
	msgs := [2]i2cMsg{
		{addr: c.addr, flags: 0, length: 2, buf: uintptr(unsafe.Pointer(&wbuf[0]))},
		{addr: c.addr, flags: i2cMsgRD, length: uint16(reg.Width), buf: uintptr(unsafe.Pointer(&rbuf[0]))},
	}
	rdwr := i2cRdwr{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: 2}

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(c.fd), i2cRdwrIOCTL, uintptr(unsafe.Pointer(&rdwr))); errno != 0 {
		countOp("read", errno)
		return 0, &IOError{Op: "read", Addr: reg.Addr, Err: errno}
	}
	countOp("read", nil)
	return decode(reg, rbuf[:reg.Width]), nil
}

func (c *I2CChannel) WriteSeq(ctx context.Context, seq []RegVal) error {
	for _, rv := range seq {
		if err := c.Write(ctx, rv.Reg, rv.Val); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the I2C file descriptor.
func (c *I2CChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fd >= 0 {
		err := unix.Close(c.fd)
		c.fd = -1
		return err
	}
	return nil
}

func (c *I2CChannel) writeLocked(reg Reg, val uint32) error {
	if c.fd < 0 {
		return &IOError{Op: "write", Addr: reg.Addr, Err: unix.EBADF}
	}

	var wbuf [5]byte
	wbuf[0] = byte(reg.Addr >> 8)
	wbuf[1] = byte(reg.Addr)
	encode(reg, val, wbuf[2:])

	msgs := [1]i2cMsg{
		{addr: c.addr, flags: 0, length: uint16(2 + reg.Width), buf: uintptr(unsafe.Pointer(&wbuf[0]))},
	}
	rdwr := i2cRdwr{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: 1}

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(c.fd), i2cRdwrIOCTL, uintptr(unsafe.Pointer(&rdwr))); errno != 0 {
		return &IOError{Op: "write", Addr: reg.Addr, Err: errno}
	}
	return nil
}
