// hal/devices/pic.go
package devices

import (
	"fmt"
	"sync"

	"example.com/x86-hal/hal/portio"
)

// PICController represents a single 8259A PIC (Master or Slave).
type PICController struct {
	isMaster bool
	offset   uint8 // Base interrupt vector offset (ICW2)
	imr      uint8 // Interrupt Mask Register
	irr      uint8 // Interrupt Request Register
	isr      uint8 // In-Service Register

	icwCount  int  // Which ICW (1-4) is expected next, 0 when initialized
	expectOCW bool // ICW sequence finished, data port writes are OCW1
	modeFlags byte // ICW1 bits, plus ICW4 bits once received
	autoEOI   bool

	readISR bool // OCW3 register select: ISR (true) or IRR (false)
}

// PICDevice manages a pair of Master and Slave 8259A PICs.
type PICDevice struct {
	master PICController
	slave  PICController
	lock   sync.Mutex
}

// NewPICDevice returns a master/slave pair in the power-on state: every
// line masked until the guest programs the chips.
func NewPICDevice() *PICDevice {
	p := &PICDevice{
		master: PICController{isMaster: true, imr: 0xFF, modeFlags: PIC_ICW1_IC4},
		slave:  PICController{imr: 0xFF, modeFlags: PIC_ICW1_IC4},
	}
	return p
}

// HandleIO processes I/O operations for the PIC ports.
func (p *PICDevice) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if size != 1 {
		return fmt.Errorf("PICDevice: I/O size %d not supported for port 0x%x, only 1-byte supported", size, port)
	}

	var pc, slave *PICController
	var cmdPort uint16
	switch port {
	case PIC_MASTER_CMD_PORT, PIC_MASTER_DATA_PORT:
		pc, slave, cmdPort = &p.master, &p.slave, PIC_MASTER_CMD_PORT
	case PIC_SLAVE_CMD_PORT, PIC_SLAVE_DATA_PORT:
		pc, cmdPort = &p.slave, PIC_SLAVE_CMD_PORT
	default:
		return fmt.Errorf("PICDevice: Unhandled I/O to port 0x%x, direction %d", port, direction)
	}

	switch direction {
	case portio.DirOut:
		if port == cmdPort {
			pc.writeCommandPort(data[0], slave)
		} else {
			pc.writeDataPort(data[0])
		}
	case portio.DirIn:
		if port == cmdPort {
			data[0] = pc.readSelectedRegister()
		} else {
			data[0] = pc.imr
		}
	default:
		return fmt.Errorf("PICDevice: invalid I/O direction %d for port 0x%x", direction, port)
	}
	return nil
}

// writeCommandPort handles ICW1 and OCW2/OCW3.
func (pc *PICController) writeCommandPort(val byte, slave *PICController) {
	if val&PIC_ICW1_INIT != 0 {
		pc.icwCount = 1
		pc.expectOCW = false
		pc.imr = 0x00
		pc.irr = 0x00
		pc.isr = 0x00
		pc.modeFlags = val & (PIC_ICW1_LTIM | PIC_ICW1_SNGL | PIC_ICW1_IC4)
		pc.autoEOI = false
		pc.readISR = false
		return
	}
	if val&0x18 == PIC_OCW3_ID {
		pc.processOCW3(val)
	} else {
		pc.processOCW2(val, slave)
	}
	pc.expectOCW = true
}

// writeDataPort handles ICW2-ICW4 during initialization and OCW1 afterwards.
func (pc *PICController) writeDataPort(val byte) {
	if pc.icwCount == 0 || pc.expectOCW {
		pc.imr = val
		return
	}
	switch pc.icwCount {
	case 1: // ICW2: vector offset
		pc.offset = val &^ 0x07
		switch {
		case pc.modeFlags&PIC_ICW1_SNGL == 0:
			pc.icwCount = 2
		case pc.modeFlags&PIC_ICW1_IC4 != 0:
			pc.icwCount = 3
		default:
			pc.icwCount = 0
		}
	case 2: // ICW3: cascade wiring, nothing to model
		if pc.modeFlags&PIC_ICW1_IC4 != 0 {
			pc.icwCount = 3
		} else {
			pc.icwCount = 0
		}
	case 3: // ICW4
		pc.modeFlags |= val
		pc.autoEOI = val&PIC_ICW4_AEOI != 0
		pc.icwCount = 0
	}
}

func (pc *PICController) readSelectedRegister() byte {
	if pc.readISR {
		return pc.isr
	}
	return pc.irr
}

// processOCW2 handles specific and non-specific EOI. Rotation is not modelled.
func (pc *PICController) processOCW2(val byte, slave *PICController) {
	if val&PIC_OCW2_EOI_CMD == 0 {
		return
	}
	if val&PIC_OCW2_SL_CMD != 0 {
		pc.isr &^= 1 << (val & PIC_OCW2_LEVEL_MASK)
		return
	}
	for i := uint8(0); i < 8; i++ {
		if pc.isr&(1<<i) == 0 {
			continue
		}
		pc.isr &^= 1 << i
		if pc.isMaster && i == PIC_MASTER_SLAVE_IRQ && slave != nil {
			slave.processOCW2(PIC_OCW2_EOI_CMD, nil)
		}
		return
	}
}

func (pc *PICController) processOCW3(val byte) {
	if val&PIC_OCW3_POLL_CMD != 0 {
		return
	}
	if val&PIC_OCW3_RR_CMD != 0 {
		pc.readISR = val&PIC_OCW3_RIS_CMD != 0
	}
}

// RaiseIRQ latches an edge on irqLine (0-15) into the IRR unless masked.
func (p *PICDevice) RaiseIRQ(irqLine uint8) {
	p.lock.Lock()
	defer p.lock.Unlock()

	switch {
	case irqLine < 8:
		if p.master.imr&(1<<irqLine) == 0 {
			p.master.irr |= 1 << irqLine
		}
	case irqLine < 16:
		line := irqLine - 8
		if p.slave.imr&(1<<line) == 0 {
			p.slave.irr |= 1 << line
			if p.master.imr&(1<<PIC_MASTER_SLAVE_IRQ) == 0 {
				p.master.irr |= 1 << PIC_MASTER_SLAVE_IRQ
			}
		}
	}
}

// HasPendingInterrupts reports whether an unmasked request is waiting and not
// blocked by an in-service line.
func (p *PICDevice) HasPendingInterrupts() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	_, _, ok := p.nextLocked()
	return ok
}

// GetInterruptVector acknowledges the highest-priority pending request and
// returns its vector. It returns 0 when nothing is pending.
func (p *PICDevice) GetInterruptVector() uint8 {
	p.lock.Lock()
	defer p.lock.Unlock()

	line, fromSlave, ok := p.nextLocked()
	if !ok {
		return 0
	}
	if !fromSlave {
		p.master.irr &^= 1 << line
		if !p.master.autoEOI {
			p.master.isr |= 1 << line
		}
		return p.master.offset + line
	}

	p.slave.irr &^= 1 << line
	if !p.slave.autoEOI {
		p.slave.isr |= 1 << line
	}
	if !p.master.autoEOI {
		p.master.isr |= 1 << PIC_MASTER_SLAVE_IRQ
	}
	if p.slave.irr&^p.slave.imr == 0 {
		p.master.irr &^= 1 << PIC_MASTER_SLAVE_IRQ
	}
	return p.slave.offset + line
}

// nextLocked finds the highest-priority deliverable line. Priority is fixed:
// IRQ0 highest, the slave's lines take the cascade line's slot. A line is
// blocked while it or a higher-priority line is in service.
func (p *PICDevice) nextLocked() (line uint8, fromSlave bool, ok bool) {
	pending := p.master.irr &^ p.master.imr
	for i := uint8(0); i < 8; i++ {
		inService := p.master.isr&(1<<i) != 0
		if pending&(1<<i) != 0 {
			if i != PIC_MASTER_SLAVE_IRQ {
				return i, false, !inService
			}
			slavePending := p.slave.irr &^ p.slave.imr
			for j := uint8(0); j < 8; j++ {
				if p.slave.isr&(1<<j) != 0 {
					break
				}
				if slavePending&(1<<j) != 0 {
					return j, true, true
				}
			}
		}
		if inService {
			return 0, false, false
		}
	}
	return 0, false, false
}

// Masked reports whether irqLine is masked in its controller's IMR.
func (p *PICDevice) Masked(irqLine uint8) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	if irqLine < 8 {
		return p.master.imr&(1<<irqLine) != 0
	}
	return p.slave.imr&(1<<(irqLine-8)) != 0
}
