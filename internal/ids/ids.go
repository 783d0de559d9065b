// Package ids defines the non-zero identifier newtypes shared by the
// document index and the vector subsystem, plus the monotonic symbol
// counter used to allocate SymbolIds across batches.
package ids

import "fmt"

// SymbolId uniquely identifies a symbol. Zero is the sentinel for "unset".
type SymbolId uint32

// FileId uniquely identifies an indexed file. Zero is the sentinel for "unset".
type FileId uint32

// VectorId identifies a vector in the vector store. It is always equal to
// the SymbolId value of the symbol it embeds.
type VectorId uint32

// ClusterId identifies an IVF-Flat cluster. Zero means "unassigned".
type ClusterId uint32

// SegmentOrdinal identifies a Bleve index segment for cluster-cache scoping.
type SegmentOrdinal uint32

// NewSymbolId validates and constructs a SymbolId. Zero is rejected.
func NewSymbolId(v uint32) (SymbolId, bool) {
	if v == 0 {
		return 0, false
	}
	return SymbolId(v), true
}

// Value returns the underlying uint32.
func (id SymbolId) Value() uint32 { return uint32(id) }

// IsZero reports whether the id is the unset sentinel.
func (id SymbolId) IsZero() bool { return id == 0 }

func (id SymbolId) String() string { return fmt.Sprintf("Symbol#%d", uint32(id)) }

// NewFileId validates and constructs a FileId. Zero is rejected.
func NewFileId(v uint32) (FileId, bool) {
	if v == 0 {
		return 0, false
	}
	return FileId(v), true
}

func (id FileId) Value() uint32   { return uint32(id) }
func (id FileId) IsZero() bool    { return id == 0 }
func (id FileId) String() string  { return fmt.Sprintf("File#%d", uint32(id)) }

// NewVectorId validates and constructs a VectorId. Zero is rejected.
func NewVectorId(v uint32) (VectorId, bool) {
	if v == 0 {
		return 0, false
	}
	return VectorId(v), true
}

func (id VectorId) Value() uint32 { return uint32(id) }
func (id VectorId) IsZero() bool  { return id == 0 }

// NewClusterId validates and constructs a ClusterId. Zero means unassigned
// and is a valid, representable value here (unlike SymbolId/FileId) since
// "unassigned" is part of the symbol document's lifecycle (§4.6).
func NewClusterId(v uint32) ClusterId { return ClusterId(v) }

func (id ClusterId) Value() uint32     { return uint32(id) }
func (id ClusterId) IsAssigned() bool  { return id != 0 }

func (s SegmentOrdinal) Value() uint32 { return uint32(s) }

// Range is a box over a (start_line, start_col) to (end_line, end_col)
// position, 1-indexed lines, 0-indexed columns; both the start and the
// end position count as inside it (see Contains).
type Range struct {
	StartLine   uint32
	StartColumn uint16
	EndLine     uint32
	EndColumn   uint16
}

// NewRange constructs a Range from its four coordinates.
func NewRange(startLine uint32, startCol uint16, endLine uint32, endCol uint16) Range {
	return Range{StartLine: startLine, StartColumn: startCol, EndLine: endLine, EndColumn: endCol}
}

// Contains reports whether (line, column) falls within the range,
// inclusive of both endpoints.
func (r Range) Contains(line uint32, column uint16) bool {
	if line < r.StartLine || line > r.EndLine {
		return false
	}
	if line == r.StartLine && column < r.StartColumn {
		return false
	}
	if line == r.EndLine && column > r.EndColumn {
		return false
	}
	return true
}
