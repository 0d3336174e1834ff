package storage

import (
	"context"
	"encoding/binary"
	"fmt"

	"pauldb/internal/seq"
)

const (
	heapHeaderSize = 8  // next(4) + numSlots(2) + freeOffset(2)
	heapSlotSize   = 11 // kind(1) + offset(2) + length(2) + fwdPage(4) + fwdSlot(2)
	maxForwardHops = 64

	// maxRowSize is the largest payload one slot can hold: an empty
	// page minus its header and the row's own slot directory entry.
	maxRowSize = PageSize - heapHeaderSize - heapSlotSize
)

type slotKind uint8

const (
	slotTombstone slotKind = iota
	slotLive
	slotForward
)

type heapSlot struct {
	kind    slotKind
	offset  uint16
	length  uint16
	fwdPage PageID
	fwdSlot uint16
}

// heapPage is the in-memory view of one page of a Heap's linked list: a
// header (next-page-id, free-space offset), a slot directory growing
// from the header, and variable-width payloads packed from the page's
// high end downward.
type heapPage struct {
	id         PageID
	next       PageID
	freeOffset uint16
	slots      []heapSlot
	buf        []byte
}

func newHeapPage(id PageID) *heapPage {
	return &heapPage{id: id, next: 0, freeOffset: PageSize, buf: make([]byte, PageSize)}
}

func decodeHeapPage(id PageID, raw []byte) *heapPage {
	p := &heapPage{id: id, buf: append([]byte(nil), raw...)}
	p.next = PageID(binary.LittleEndian.Uint32(p.buf[0:4]))
	numSlots := int(binary.LittleEndian.Uint16(p.buf[4:6]))
	p.freeOffset = binary.LittleEndian.Uint16(p.buf[6:8])
	p.slots = make([]heapSlot, numSlots)
	pos := heapHeaderSize
	for i := 0; i < numSlots; i++ {
		p.slots[i] = heapSlot{
			kind:    slotKind(p.buf[pos]),
			offset:  binary.LittleEndian.Uint16(p.buf[pos+1 : pos+3]),
			length:  binary.LittleEndian.Uint16(p.buf[pos+3 : pos+5]),
			fwdPage: PageID(binary.LittleEndian.Uint32(p.buf[pos+5 : pos+9])),
			fwdSlot: binary.LittleEndian.Uint16(p.buf[pos+9 : pos+11]),
		}
		pos += heapSlotSize
	}
	return p
}

func (p *heapPage) encodeHeader() {
	binary.LittleEndian.PutUint32(p.buf[0:4], uint32(p.next))
	binary.LittleEndian.PutUint16(p.buf[4:6], uint16(len(p.slots)))
	binary.LittleEndian.PutUint16(p.buf[6:8], p.freeOffset)
}

func (p *heapPage) encodeSlot(i int) {
	s := p.slots[i]
	pos := heapHeaderSize + i*heapSlotSize
	p.buf[pos] = byte(s.kind)
	binary.LittleEndian.PutUint16(p.buf[pos+1:pos+3], s.offset)
	binary.LittleEndian.PutUint16(p.buf[pos+3:pos+5], s.length)
	binary.LittleEndian.PutUint32(p.buf[pos+5:pos+9], uint32(s.fwdPage))
	binary.LittleEndian.PutUint16(p.buf[pos+9:pos+11], s.fwdSlot)
}

// freeSpace returns the bytes available for one more slot directory
// entry plus its payload.
func (p *heapPage) freeSpace() int {
	used := heapHeaderSize + len(p.slots)*heapSlotSize
	return int(p.freeOffset) - used
}

func (p *heapPage) insert(data []byte) (int, bool) {
	if heapSlotSize+len(data) > p.freeSpace() {
		return 0, false
	}
	offset := int(p.freeOffset) - len(data)
	copy(p.buf[offset:offset+len(data)], data)
	p.freeOffset = uint16(offset)
	p.slots = append(p.slots, heapSlot{kind: slotLive, offset: uint16(offset), length: uint16(len(data))})
	idx := len(p.slots) - 1
	p.encodeSlot(idx)
	p.encodeHeader()
	return idx, true
}

func (p *heapPage) get(slot int) (data []byte, found bool, fwd RowID, isForward bool) {
	if slot < 0 || slot >= len(p.slots) {
		return nil, false, 0, false
	}
	s := p.slots[slot]
	switch s.kind {
	case slotLive:
		out := make([]byte, s.length)
		copy(out, p.buf[s.offset:int(s.offset)+int(s.length)])
		return out, true, 0, false
	case slotForward:
		return nil, false, MakeRowID(s.fwdPage, uint32(s.fwdSlot)), true
	default:
		return nil, false, 0, false
	}
}

// setInPlace tries to overwrite slot's payload without relocating it to
// another page: in place if data fits the existing allocation, or in
// a freshly carved area of the same page otherwise.
func (p *heapPage) setInPlace(slot int, data []byte) bool {
	if slot < 0 || slot >= len(p.slots) || p.slots[slot].kind != slotLive {
		return false
	}
	s := &p.slots[slot]
	if len(data) <= int(s.length) {
		copy(p.buf[s.offset:int(s.offset)+len(data)], data)
		s.length = uint16(len(data))
		p.encodeSlot(slot)
		return true
	}
	used := heapHeaderSize + len(p.slots)*heapSlotSize
	if len(data) > int(p.freeOffset)-used {
		return false
	}
	offset := int(p.freeOffset) - len(data)
	copy(p.buf[offset:offset+len(data)], data)
	p.freeOffset = uint16(offset)
	s.offset = uint16(offset)
	s.length = uint16(len(data))
	p.encodeSlot(slot)
	p.encodeHeader()
	return true
}

func (p *heapPage) markForward(slot int, target RowID) {
	p.slots[slot] = heapSlot{kind: slotForward, fwdPage: target.Page(), fwdSlot: uint16(target.Slot())}
	p.encodeSlot(slot)
}

func (p *heapPage) remove(slot int) {
	if slot < 0 || slot >= len(p.slots) {
		return
	}
	p.slots[slot].kind = slotTombstone
	p.encodeSlot(slot)
}

// Heap is the file-backed paged row store: rows packed into fixed pages
// rooted at a known page-id, linked by next-page pointers. Updates that
// outgrow their page leave a forwarding slot behind rather than
// relocating the row's id; there is no compaction, matching the
// B-tree's documented no-rebalance simplification.
type Heap struct {
	medium  PageMedium
	root    PageID
	pages   map[PageID]*heapPage
	dirty   map[PageID]bool
	tailID  PageID
	dropped bool
}

// NewHeap opens a Heap rooted at root. root must already be an
// allocated, empty page (freshly allocated heaps are zero-valued pages,
// which decode as an empty page with next=0).
func NewHeap(medium PageMedium, root PageID) *Heap {
	return &Heap{medium: medium, root: root, pages: make(map[PageID]*heapPage), dirty: make(map[PageID]bool)}
}

func (h *Heap) loadPage(id PageID) (*heapPage, error) {
	if p, ok := h.pages[id]; ok {
		return p, nil
	}
	raw, err := h.medium.Read(id)
	if err != nil {
		return nil, err
	}
	p := decodeHeapPage(id, raw)
	h.pages[id] = p
	return p, nil
}

func (h *Heap) markDirty(p *heapPage) {
	h.pages[p.id] = p
	h.dirty[p.id] = true
}

func (h *Heap) tailPage() (*heapPage, error) {
	if h.tailID != 0 {
		return h.loadPage(h.tailID)
	}
	id := h.root
	p, err := h.loadPage(id)
	if err != nil {
		return nil, err
	}
	for p.next != 0 {
		id = p.next
		p, err = h.loadPage(id)
		if err != nil {
			return nil, err
		}
	}
	h.tailID = id
	return p, nil
}

func (h *Heap) Insert(data []byte) (RowID, error) {
	if h.dropped {
		return 0, ErrDropped
	}
	if len(data) > maxRowSize {
		return 0, fmt.Errorf("storage: row of %d bytes exceeds the %d-byte page capacity", len(data), maxRowSize)
	}
	page, err := h.tailPage()
	if err != nil {
		return 0, err
	}
	for {
		if idx, ok := page.insert(data); ok {
			h.markDirty(page)
			return MakeRowID(page.id, uint32(idx)), nil
		}
		nextID, err := h.medium.Allocate()
		if err != nil {
			return 0, err
		}
		next := newHeapPage(nextID)
		page.next = nextID
		page.encodeHeader()
		h.markDirty(page)
		h.pages[nextID] = next
		h.markDirty(next)
		h.tailID = nextID
		page = next
	}
}

func (h *Heap) Get(id RowID) ([]byte, bool, error) {
	if h.dropped {
		return nil, false, ErrDropped
	}
	cur := id
	for hop := 0; hop < maxForwardHops; hop++ {
		page, err := h.loadPage(cur.Page())
		if err != nil {
			return nil, false, err
		}
		data, found, fwd, isForward := page.get(int(cur.Slot()))
		if isForward {
			cur = fwd
			continue
		}
		return data, found, nil
	}
	return nil, false, fmt.Errorf("storage: forwarding chain for row %d exceeded %d hops", id, maxForwardHops)
}

func (h *Heap) Set(id RowID, data []byte) error {
	if h.dropped {
		return ErrDropped
	}
	cur := id
	for hop := 0; hop < maxForwardHops; hop++ {
		page, err := h.loadPage(cur.Page())
		if err != nil {
			return err
		}
		slot := int(cur.Slot())
		if slot < len(page.slots) && page.slots[slot].kind == slotForward {
			cur = MakeRowID(page.slots[slot].fwdPage, uint32(page.slots[slot].fwdSlot))
			continue
		}
		if page.setInPlace(slot, data) {
			h.markDirty(page)
			return nil
		}
		newID, err := h.Insert(data)
		if err != nil {
			return err
		}
		page.markForward(slot, newID)
		h.markDirty(page)
		return nil
	}
	return fmt.Errorf("storage: forwarding chain for row %d exceeded %d hops", id, maxForwardHops)
}

func (h *Heap) Remove(id RowID) error {
	if h.dropped {
		return ErrDropped
	}
	cur := id
	for hop := 0; hop < maxForwardHops; hop++ {
		page, err := h.loadPage(cur.Page())
		if err != nil {
			return err
		}
		slot := int(cur.Slot())
		_, _, fwd, isForward := page.get(slot)
		page.remove(slot)
		h.markDirty(page)
		if !isForward {
			return nil
		}
		cur = fwd
	}
	return fmt.Errorf("storage: forwarding chain for row %d exceeded %d hops", id, maxForwardHops)
}

func (h *Heap) Iterate(ctx context.Context) seq.Seq[RowEntry] {
	pageID := h.root
	slot := 0
	var page *heapPage
	return seq.Func[RowEntry](func(ctx context.Context) (RowEntry, bool, error) {
		var zero RowEntry
		if h.dropped {
			return zero, false, ErrDropped
		}
		for {
			if err := ctx.Err(); err != nil {
				return zero, false, err
			}
			if page == nil {
				if pageID == 0 {
					return zero, false, nil
				}
				p, err := h.loadPage(pageID)
				if err != nil {
					return zero, false, err
				}
				page = p
			}
			if slot >= len(page.slots) {
				pageID = page.next
				page = nil
				slot = 0
				continue
			}
			i := slot
			slot++
			if page.slots[i].kind != slotLive {
				continue
			}
			data, found, _, _ := page.get(i)
			if !found {
				continue
			}
			return RowEntry{ID: MakeRowID(page.id, uint32(i)), Data: data}, true, nil
		}
	})
}

func (h *Heap) Commit() error {
	if h.dropped {
		return ErrDropped
	}
	for id := range h.dirty {
		p := h.pages[id]
		if err := h.medium.Write(id, p.buf); err != nil {
			return err
		}
	}
	h.dirty = make(map[PageID]bool)
	return h.medium.Sync()
}

func (h *Heap) Drop() error {
	h.dropped = true
	h.pages = nil
	h.dirty = nil
	return nil
}

// Page returns the PageID component of a RowID.
func (id RowID) Page() PageID { return PageID(uint64(id) >> 32) }

// Slot returns the slot-index component of a RowID.
func (id RowID) Slot() uint32 { return uint32(id) }

// MakeRowID composes a RowID from a page and slot index.
func MakeRowID(page PageID, slot uint32) RowID {
	return RowID(uint64(page)<<32 | uint64(slot))
}
