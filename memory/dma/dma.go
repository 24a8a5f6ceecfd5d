// This file is part of gopsx.
//
// gopsx is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// gopsx is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with gopsx.  If not, see <https://www.gnu.org/licenses/>.

// Package dma implements the seven-channel DMA controller at
// 0x1f801080-0x1f8010ff: DPCR/DICR, per-channel MADR/BCR/CHCR, the three
// sync modes (burst/slice/linked-list), priority arbitration between
// channels, chopping (cycle-stealing), and channel 6's OT-clear special
// case. Each channel moves words directly between RAM and a device through
// the narrow Device interface, never going through the wider memory bus
// dispatch a CPU load/store would.
package dma

import "github.com/gopsx/psx/interrupt"

// Device is the narrow interface a DMA-capable peripheral (MDEC, SPU, GPU,
// CD-ROM, PIO, OTC) satisfies so this package never imports any of them.
type Device interface {
	// Ready reports whether the device's DMA FIFO can accept/supply a word.
	Ready() bool
	// Request reports whether the device has another block available,
	// used by slice-mode channels between blocks.
	Request() bool
	// Write hands a word read from RAM to the device (RAM -> device).
	Write(word uint32)
	// Read takes a word from the device to be written to RAM (device -> RAM).
	Read() uint32
}

// Bus is the narrow memory interface a DMA channel moves words through.
type Bus interface {
	Read32(addr uint32) uint32
	Write32(addr uint32, v uint32)
}

type syncMode uint8

const (
	syncManual syncMode = iota
	syncSlice
	syncLinkedList
)

func syncModeFromCHCR(chcr uint32) syncMode {
	switch (chcr >> 9) & 3 {
	case 0:
		return syncManual
	case 1:
		return syncSlice
	default:
		return syncLinkedList
	}
}

type direction uint8

const (
	deviceToRAM direction = iota
	ramToDevice
)

func directionFromCHCR(chcr uint32) direction {
	if chcr&1 != 0 {
		return ramToDevice
	}
	return deviceToRAM
}

type result uint8

const (
	resultInProgress result = iota
	resultPaused
	resultFinished
	resultBlockFinished
)

type linkedListHeader struct {
	nextAddr uint32
	words    uint32
}

// channel is one of the seven DMA channels (0=MDECin, 1=MDECout, 2=GPU,
// 3=CDROM, 4=SPU, 5=PIO, 6=OTC).
type channel struct {
	id int

	madr     uint32
	madrRead uint32
	bcr      uint32
	chcr     uint32

	enabled  bool
	busError bool

	device Device

	syncMode  syncMode
	direction direction

	remainingWords  uint16
	remainingBlocks uint16

	waitingNextBlock bool

	choppingWindowWords  int
	choppingWindowCycles int

	linkedList *linkedListHeader
}

func newChannel(id int, dev Device) *channel {
	return &channel{id: id, device: dev, syncMode: syncSlice}
}

func (c *channel) isReady() bool {
	active := c.chcr&(1<<24) != 0
	trigger := c.chcr&(1<<28) != 0
	var ready bool
	switch c.syncMode {
	case syncManual:
		ready = trigger && active
	default:
		ready = active
	}
	return c.enabled && ready
}

func (c *channel) readMADR() uint32 { return c.madrRead }

func (c *channel) writeMADR(v uint32) {
	c.madr = v & 0xfffffc
	c.madrRead = v
}

func (c *channel) readBCR() uint32 {
	switch c.syncMode {
	case syncManual:
		if c.chcr&0x100 != 0 {
			return uint32(c.remainingWords)
		}
		return c.bcr
	case syncSlice:
		return c.bcr&0xffff | uint32(c.remainingBlocks)<<16
	default:
		return c.bcr
	}
}

func (c *channel) writeBCR(v uint32) {
	c.bcr = v
	c.updateRemainingBlocksWords(false)
}

func (c *channel) readCHCR() uint32 { return c.chcr }

func (c *channel) writeCHCR(v uint32) {
	c.chcr = v
	if c.id == 6 {
		// D6_CHCR (OTC) only exposes bits 24/28/30 for read-write; the
		// address-decrement direction bit is hardwired.
		c.chcr &= (1 << 24) | (1 << 28) | (1 << 30)
		c.chcr |= 2
	}
	c.syncMode = syncModeFromCHCR(c.chcr)
	c.direction = directionFromCHCR(c.chcr)
	c.updateRemainingBlocksWords(false)
	c.updateChoppingWindows()
	c.waitingNextBlock = false
	c.linkedList = nil
}

func (c *channel) updateChoppingWindows() {
	choppingWords := (c.chcr >> 16) & 7
	choppingCycles := (c.chcr >> 20) & 7
	c.choppingWindowWords = 1 << choppingWords
	c.choppingWindowCycles = 1 << choppingCycles
}

func (c *channel) updateRemainingBlocksWords(onlyWords bool) {
	switch c.syncMode {
	case syncManual:
		c.remainingWords = uint16(c.bcr & 0xffff)
		c.remainingBlocks = 0
	case syncSlice:
		c.remainingWords = uint16(c.bcr & 0xffff)
		if !onlyWords {
			c.remainingBlocks = uint16(c.bcr >> 16)
		}
	default:
		c.remainingWords = 0
		c.remainingBlocks = 0
	}
}

func (c *channel) transferCompleted() {
	c.chcr &^= 1 << 24
	c.linkedList = nil
}

func (c *channel) doDMA(bus Bus) result {
	if c.chcr&(1<<28) != 0 {
		c.chcr &^= 1 << 28
	}
	switch c.syncMode {
	case syncManual:
		if c.id == 6 {
			return c.doChannel6OT(bus)
		}
		return c.doManual(bus)
	case syncSlice:
		return c.doSlice(bus)
	default:
		return c.doLinkedList(bus)
	}
}

func (c *channel) choppingPause() (paused bool) {
	if c.chcr&0x100 == 0 {
		return false
	}
	if c.choppingWindowWords == 0 {
		c.choppingWindowCycles--
		if c.choppingWindowCycles == 0 {
			c.updateChoppingWindows()
			return false
		}
		return true
	}
	return false
}

func (c *channel) doChannel6OT(bus Bus) result {
	if c.choppingPause() {
		return resultPaused
	}
	if c.remainingWords == 1 {
		bus.Write32(c.madr, 0xffffff)
	} else {
		target := c.madr
		c.madr = (target - 4) & 0xfffffc
		bus.Write32(target, c.madr)
	}
	c.remainingWords--
	if c.remainingWords == 0 {
		c.transferCompleted()
		return resultFinished
	}
	if c.chcr&0x100 != 0 {
		c.choppingWindowWords--
		if c.choppingWindowWords == 0 {
			return resultPaused
		}
	}
	return resultInProgress
}

func (c *channel) readWriteWord(bus Bus) bool {
	if !c.device.Ready() {
		return false
	}
	target := c.madr
	if c.chcr&2 == 0 {
		c.madr += 4
	} else {
		c.madr -= 4
	}
	c.madr &= 0xfffffc
	switch c.direction {
	case deviceToRAM:
		bus.Write32(target, c.device.Read())
	case ramToDevice:
		c.device.Write(bus.Read32(target))
	}
	return true
}

func (c *channel) doManual(bus Bus) result {
	if c.choppingPause() {
		return resultPaused
	}
	if !c.readWriteWord(bus) {
		return resultPaused
	}
	c.remainingWords--
	if c.remainingWords == 0 {
		c.transferCompleted()
		return resultFinished
	}
	if c.chcr&0x100 != 0 {
		c.choppingWindowWords--
		if c.choppingWindowWords == 0 {
			return resultPaused
		}
	}
	return resultInProgress
}

func (c *channel) doSlice(bus Bus) result {
	if c.waitingNextBlock {
		if c.device.Request() {
			c.waitingNextBlock = false
		} else {
			return resultPaused
		}
	}
	if !c.readWriteWord(bus) {
		return resultPaused
	}
	c.remainingWords--
	if c.remainingWords == 0 {
		c.remainingBlocks--
		if c.remainingBlocks == 0 {
			c.transferCompleted()
			return resultFinished
		}
		c.updateRemainingBlocksWords(true)
		c.waitingNextBlock = true
		return resultBlockFinished
	}
	return resultInProgress
}

func (c *channel) doLinkedList(bus Bus) result {
	if c.direction != ramToDevice {
		return resultFinished
	}
	target := c.madr
	if c.chcr&2 == 0 {
		c.madr += 4
	} else {
		c.madr -= 4
	}
	c.madr &= 0xfffffc

	word := bus.Read32(target)

	if c.linkedList == nil {
		nextAddr := word & 0xffffff
		words := word >> 24
		if words > 0 {
			c.linkedList = &linkedListHeader{nextAddr: nextAddr, words: words}
		} else if nextAddr&0x800000 != 0 {
			c.madrRead = nextAddr
			c.transferCompleted()
			return resultFinished
		} else {
			c.madr = nextAddr
		}
		return resultInProgress
	}

	c.device.Write(word)
	c.linkedList.words--
	if c.linkedList.words == 0 {
		if c.linkedList.nextAddr&0x800000 != 0 {
			c.madrRead = c.linkedList.nextAddr
			c.transferCompleted()
			return resultFinished
		}
		c.madr = c.linkedList.nextAddr
		c.linkedList = nil
	}
	return resultInProgress
}

// channel/IRQ source mapping: DMA0..DMA6 share the single interrupt.DMA line,
// gated by the per-channel mask in DICR.
const (
	regDPCR = 0x1f8010f0
	regDICR = 0x1f8010f4
	regF8   = 0x1f8010f8
	regFC   = 0x1f8010fc
)

// Controller owns the seven channels and the DPCR/DICR register pair.
type Controller struct {
	channels [7]channel

	dpcr        uint32
	dpcrChanged bool
	dicr        uint32
	irqFlags    uint8
	regF8       uint32
	regFC       uint32

	priorities [8][2]int // [i] = {channel, priority}, channel 7 is the CPU

	inProgressChannel int // -1 when no channel is mid-transfer
	dmaEnabled        bool

	irqs *interrupt.Collector
}

// New creates a Controller wired to the seven per-channel devices (index 0
// MDECin .. index 6 OTC) and the interrupt collector it raises DMA
// completions through.
func New(devices [7]Device, irqs *interrupt.Collector) *Controller {
	ctl := &Controller{irqs: irqs, inProgressChannel: -1, dpcr: 0x07654321}
	for i := range ctl.channels {
		ctl.channels[i] = *newChannel(i, devices[i])
	}
	for i := range ctl.priorities {
		ctl.priorities[i] = [2]int{7 - i, 7 - i}
	}
	return ctl
}

// Step drives DMA for the given number of CPU cycles, moving at most one
// word per cycle slot in the arbitrated channel, mirroring the hardware's
// cycle-stealing behaviour. Returns whether the last cycle left a transfer
// in progress; a transfer paused for chopping, waiting on its device or
// between slice blocks reports false.
func (ctl *Controller) Step(cpuCycles int, bus Bus) bool {
	inProgress := false
	for i := 0; i < cpuCycles; i++ {
		inProgress = ctl.tick(bus)
	}
	return inProgress
}

func (ctl *Controller) tick(bus Bus) bool {
	active := ctl.inProgressChannel
	if active < 0 || ctl.dpcrChanged {
		ctl.dpcrChanged = false
		if !ctl.dmaEnabled {
			return false
		}
		found := -1
		for _, p := range ctl.priorities {
			ch := p[0]
			if ch == 7 {
				continue // CPU priority slot; no DMA channel here
			}
			if ctl.channels[ch].isReady() {
				found = ch
				break
			}
		}
		if found < 0 {
			return false
		}
		active = found
		ctl.inProgressChannel = active
	}

	switch ctl.channels[active].doDMA(bus) {
	case resultInProgress:
		return true
	case resultPaused:
		return false
	case resultFinished:
		ctl.inProgressChannel = -1
		ctl.raiseChannelIRQ(active)
		return false
	default: // resultBlockFinished
		if ctl.dicr&(1<<uint(active)) != 0 {
			ctl.raiseChannelIRQ(active)
		}
		return false
	}
}

func (ctl *Controller) raiseChannelIRQ(channel int) {
	mask := uint8(1 << uint(channel))
	if ctl.dicr&(1<<23) == 0 {
		return
	}
	enableMask := uint8((ctl.dicr >> 16) & 0x7f)
	if enableMask&mask == 0 {
		return
	}
	ctl.irqFlags |= mask
	ctl.irqs.Set(interrupt.DMA)
}

// ReadRegister implements bus.Peripheral for 0x1f801080-0x1f8010ff.
func (ctl *Controller) ReadRegister(addr uint32) uint32 {
	switch addr {
	case regDPCR:
		return ctl.dpcr
	case regDICR:
		return ctl.readDICR()
	case regF8:
		return ctl.regF8
	case regFC:
		return ctl.regFC
	}
	if ch, reg, ok := decodeChannelAddr(addr); ok {
		switch reg {
		case 0x0:
			return ctl.channels[ch].readMADR()
		case 0x4:
			return ctl.channels[ch].readBCR()
		case 0x8:
			return ctl.channels[ch].readCHCR()
		}
	}
	return 0
}

// WriteRegister implements bus.Peripheral.
func (ctl *Controller) WriteRegister(addr uint32, v uint32) {
	switch addr {
	case regDPCR:
		ctl.writeDPCR(v)
		return
	case regDICR:
		ctl.writeDICR(v)
		return
	case regF8:
		ctl.regF8 = v
		return
	case regFC:
		ctl.regFC = v
		return
	}
	if ch, reg, ok := decodeChannelAddr(addr); ok {
		switch reg {
		case 0x0:
			ctl.channels[ch].writeMADR(v)
		case 0x4:
			ctl.channels[ch].writeBCR(v)
		case 0x8:
			ctl.channels[ch].writeCHCR(v)
		}
	}
}

func decodeChannelAddr(addr uint32) (channel int, reg uint32, ok bool) {
	if addr < 0x1f801080 || addr >= 0x1f8010f0 {
		return 0, 0, false
	}
	off := addr - 0x1f801080
	return int(off / 0x10), off % 0x10, true
}

func (ctl *Controller) readDICR() uint32 {
	dicr := ctl.dicr &^ (0x7f << 24)
	dicr |= uint32(ctl.irqFlags) << 16
	irqMask := uint8((dicr >> 16) & 0x7f)
	b31 := dicr&(1<<15) != 0 || (dicr&(1<<23) != 0 && irqMask&ctl.irqFlags != 0)
	if b31 {
		dicr |= 1 << 31
	}
	return dicr
}

func (ctl *Controller) writeDICR(v uint32) {
	ctl.dicr = v & 0x7fffffff
	ctl.irqFlags &^= uint8((v >> 24) & 0x7f)
}

func (ctl *Controller) writeDPCR(v uint32) {
	ctl.dpcr = v
	ctl.dmaEnabled = false
	remaining := v
	for ch := 0; ch < 8; ch++ {
		priority := int(remaining & 7)
		remaining >>= 3
		enabled := remaining&1 != 0
		remaining >>= 1
		ctl.dmaEnabled = ctl.dmaEnabled || enabled
		if ch < 7 {
			ctl.channels[ch].enabled = enabled
		}
		ctl.priorities[ch] = [2]int{ch, priority}
	}
	sortPrioritiesAscending(&ctl.priorities)
	ctl.dpcrChanged = true
}

// sortPrioritiesAscending orders channels by (priority<<3 | channel)
// ascending, so the lowest numeric priority value (DPCR's 0=highest) is
// tried first during arbitration, ties broken toward the lower channel
// number.
func sortPrioritiesAscending(p *[8][2]int) {
	key := func(e [2]int) int { return e[1]<<3 | e[0] }
	for i := 1; i < len(p); i++ {
		for j := i; j > 0 && key(p[j-1]) > key(p[j]); j-- {
			p[j-1], p[j] = p[j], p[j-1]
		}
	}
}
