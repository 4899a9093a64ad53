package replication

import "encoding/binary"

// SegmentKind tags a wire segment's operation (§6).
type SegmentKind uint8

const (
	SegmentCreate SegmentKind = 0
	SegmentUpdate SegmentKind = 1
	SegmentRemove SegmentKind = 2
	SegmentOwner  SegmentKind = 3
)

const (
	segmentHeaderSize = 8  // kind(1) reserved(1) amount(2) value_bytes(4)
	segvalHeaderSize  = 12 // entity_id(8) token(2) payload_len(2)
)

func putSegmentHeader(buf []byte, kind SegmentKind, amount uint16, valueBytes uint32) {
	buf[0] = byte(kind)
	buf[1] = 0
	binary.LittleEndian.PutUint16(buf[2:4], amount)
	binary.LittleEndian.PutUint32(buf[4:8], valueBytes)
}

func getSegmentHeader(buf []byte) (kind SegmentKind, amount uint16, valueBytes uint32) {
	kind = SegmentKind(buf[0])
	amount = binary.LittleEndian.Uint16(buf[2:4])
	valueBytes = binary.LittleEndian.Uint32(buf[4:8])
	return
}

func putSegvalHeader(buf []byte, entityID int64, token, payloadLen uint16) {
	binary.LittleEndian.PutUint64(buf[0:8], uint64(entityID))
	binary.LittleEndian.PutUint16(buf[8:10], token)
	binary.LittleEndian.PutUint16(buf[10:12], payloadLen)
}

func getSegvalHeader(buf []byte) (entityID int64, token, payloadLen uint16) {
	entityID = int64(binary.LittleEndian.Uint64(buf[0:8]))
	token = binary.LittleEndian.Uint16(buf[8:10])
	payloadLen = binary.LittleEndian.Uint16(buf[10:12])
	return
}
