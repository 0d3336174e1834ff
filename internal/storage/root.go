package storage

import (
	"encoding/binary"
	"fmt"
)

// rootMagic/rootVersion stamp a file-backed medium's fixed page 0.
const (
	rootMagic   uint32 = 0x50444244 // "PDBD"
	rootVersion uint16 = 1
)

// CorruptPageError is returned when a page's header or magic fails to
// validate on read — fatal, the open is aborted.
type CorruptPageError struct {
	Page   PageID
	Reason string
}

func (e *CorruptPageError) Error() string {
	return fmt.Sprintf("storage: corrupt page %d: %s", e.Page, e.Reason)
}

// VerifyOrWriteRootHeader stamps m's root page with the magic, version,
// and catalogRoot page-id the first time it is opened against an empty
// file, or validates an existing stamp matches on every later open.
func VerifyOrWriteRootHeader(m *FileMedium, catalogRoot PageID) error {
	buf, err := m.ReadRootRaw()
	if err != nil {
		return err
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic == 0 {
		binary.LittleEndian.PutUint32(buf[0:4], rootMagic)
		binary.LittleEndian.PutUint16(buf[4:6], rootVersion)
		binary.LittleEndian.PutUint32(buf[6:10], uint32(catalogRoot))
		return m.WriteRootRaw(buf)
	}
	if magic != rootMagic {
		return &CorruptPageError{Page: 0, Reason: "bad magic"}
	}
	if v := binary.LittleEndian.Uint16(buf[4:6]); v != rootVersion {
		return &CorruptPageError{Page: 0, Reason: fmt.Sprintf("unsupported version %d", v)}
	}
	return nil
}
