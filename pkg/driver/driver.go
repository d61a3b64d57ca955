// Package driver adapts a YardStick One-class USB radio to the
// RadioDriver interface the FHSS core's consumed side needs: frequency
// programming, per-radio correction, and the last-packet CRC flag that
// feeds the anti-jam detector (spec §6 "consumed" interfaces).
package driver

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
)

// USB identifiers for the supported dongle family.
const (
	VendorID  = 0x1D50
	ProductID = 0x605B
)

const (
	appSystem  = 0xFF
	sysPokeReg = 0x84
	sysPeek    = 0x80

	freqRegAddr       = 0xDF00 // base frequency register, chip-dependent offset applied by caller
	correctionRegAddr = 0xDF04 // signed Hz frequency-offset estimate, chip AFC-dependent

	defaultTimeout = 500 * time.Millisecond
)

// RadioDriver is the interface the FHSS core's frequency map and anti-jam
// detector drive a physical radio through. Correction exposes the radio's
// own frequency-offset estimate (e.g. AFC) so the caller can feed it into
// freqmap.Map.SetCorrection and track drift (spec §4.B); SetCorrection
// pushes a computed correction back down to hardware that applies it
// on-chip rather than purely in the frequency map.
type RadioDriver interface {
	SetFrequency(hz uint32) error
	LastPacketCRCOK() (bool, error)
	Correction() (int32, error)
	SetCorrection(hz int32) error
	Close() error
}

// USBDriver implements RadioDriver over a YardStick One-class dongle's EP5
// vendor protocol, adapted from a register-poke/peek command set.
type USBDriver struct {
	mu sync.Mutex

	dev    *gousb.Device
	cfg    *gousb.Config
	iface  *gousb.Interface
	epIn   *gousb.InEndpoint
	epOut  *gousb.OutEndpoint
	Serial string
}

// Open claims the first matching USB device found on the given gousb
// context.
func Open(ctx *gousb.Context) (*USBDriver, error) {
	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(VendorID), gousb.ID(ProductID))
	if err != nil {
		return nil, fmt.Errorf("driver: open device: %w", err)
	}
	if dev == nil {
		return nil, fmt.Errorf("driver: no matching device found")
	}

	serial, _ := dev.SerialNumber()
	dev.SetAutoDetach(true)

	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("driver: claim config: %w", err)
	}
	iface, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		return nil, fmt.Errorf("driver: claim interface: %w", err)
	}
	epIn, err := iface.InEndpoint(5)
	if err != nil {
		iface.Close()
		cfg.Close()
		dev.Close()
		return nil, fmt.Errorf("driver: claim IN endpoint: %w", err)
	}
	epOut, err := iface.OutEndpoint(5)
	if err != nil {
		iface.Close()
		cfg.Close()
		dev.Close()
		return nil, fmt.Errorf("driver: claim OUT endpoint: %w", err)
	}

	return &USBDriver{
		dev:    dev,
		cfg:    cfg,
		iface:  iface,
		epIn:   epIn,
		epOut:  epOut,
		Serial: serial,
	}, nil
}

// Close releases the USB interface, config, and device handle.
func (d *USBDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.iface != nil {
		d.iface.Close()
	}
	if d.cfg != nil {
		d.cfg.Close()
	}
	if d.dev != nil {
		return d.dev.Close()
	}
	return nil
}

func (d *USBDriver) send(cmd uint8, payload []byte) ([]byte, error) {
	packet := make([]byte, 4+len(payload))
	packet[0] = appSystem
	packet[1] = cmd
	binary.LittleEndian.PutUint16(packet[2:4], uint16(len(payload)))
	copy(packet[4:], payload)

	wctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if _, err := d.epOut.WriteContext(wctx, packet); err != nil {
		return nil, fmt.Errorf("driver: write: %w", err)
	}

	rctx, rcancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer rcancel()
	buf := make([]byte, 64)
	n, err := d.epIn.ReadContext(rctx, buf)
	if err != nil {
		return nil, fmt.Errorf("driver: read: %w", err)
	}
	return buf[:n], nil
}

// SetFrequency programs the radio's frequency register via a POKE
// command.
func (d *USBDriver) SetFrequency(hz uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	payload := make([]byte, 6)
	binary.LittleEndian.PutUint16(payload[0:2], freqRegAddr)
	binary.LittleEndian.PutUint32(payload[2:6], hz)
	_, err := d.send(sysPokeReg, payload)
	return err
}

// Correction reads the radio's current frequency-offset estimate via a PEEK
// command against the correction register.
func (d *USBDriver) Correction() (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	payload := make([]byte, 3)
	binary.LittleEndian.PutUint16(payload[0:2], correctionRegAddr)
	payload[2] = 4
	resp, err := d.send(sysPeek, payload)
	if err != nil {
		return 0, err
	}
	if len(resp) < 4 {
		return 0, fmt.Errorf("driver: short correction response")
	}
	return int32(binary.LittleEndian.Uint32(resp[len(resp)-4:])), nil
}

// SetCorrection programs the radio's frequency-offset register via a POKE
// command.
func (d *USBDriver) SetCorrection(hz int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	payload := make([]byte, 6)
	binary.LittleEndian.PutUint16(payload[0:2], correctionRegAddr)
	binary.LittleEndian.PutUint32(payload[2:6], uint32(hz))
	_, err := d.send(sysPokeReg, payload)
	return err
}

// LastPacketCRCOK reads the CRC-OK flag of the most recently received
// packet via a PEEK command against the radio's status register.
func (d *USBDriver) LastPacketCRCOK() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	payload := make([]byte, 3)
	binary.LittleEndian.PutUint16(payload[0:2], freqRegAddr+2)
	payload[2] = 1
	resp, err := d.send(sysPeek, payload)
	if err != nil {
		return false, err
	}
	if len(resp) == 0 {
		return false, fmt.Errorf("driver: empty status response")
	}
	const crcOKBit = 0x80
	return resp[len(resp)-1]&crcOKBit != 0, nil
}
