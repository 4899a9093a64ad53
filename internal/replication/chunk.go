package replication

// ChunkID is a bijective-within-grid encoding of a (cx, cy, cz) chunk
// coordinate into a single signed integer, following the row-major
// packing from the original donor's Vec2.ToChunkCoords but generalized
// to three axes and a configurable grid instead of a fixed shift.
type ChunkID int64

// InvalidChunk is the sentinel terminating an entity's chunk array and
// the result of mapping a coordinate outside the configured grid.
const InvalidChunk ChunkID = -1

// MaxChunksPerEntity bounds the fixed-capacity chunk array carried by
// every Entity (§3, §6).
const MaxChunksPerEntity = 8

// Offset selects where the real-space origin sits inside the chunk grid
// on a given axis, so negative world coordinates remain representable.
type Offset int8

const (
	OffsetBegin Offset = iota
	OffsetMiddle
	OffsetEnd
)

// GridConfig describes the chunk grid a World indexes entities against.
type GridConfig struct {
	CountX, CountY, CountZ    int32
	ChunkSize                 float64
	OffsetX, OffsetY, OffsetZ Offset
}

// DefaultGridConfig mirrors the donor's 256-cube default chunk extents.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		CountX: 256, CountY: 256, CountZ: 256,
		ChunkSize: 16,
		OffsetX:   OffsetMiddle,
		OffsetY:   OffsetMiddle,
		OffsetZ:   OffsetMiddle,
	}
}

type chunkIndex struct {
	cfg GridConfig
}

func newChunkIndex(cfg GridConfig) chunkIndex {
	return chunkIndex{cfg: cfg}
}

func biasFor(offset Offset, count int32) int32 {
	switch offset {
	case OffsetBegin:
		return 0
	case OffsetMiddle:
		return count / 2
	case OffsetEnd:
		return count - 1
	default:
		return 0
	}
}

// encode packs biased axis indices (cx,cy,cz), each already within
// [0,count) for its axis, into a single chunk id. Out-of-range axis
// values yield InvalidChunk.
func (ci chunkIndex) encode(cx, cy, cz int32) ChunkID {
	x, y, z := ci.cfg.CountX, ci.cfg.CountY, ci.cfg.CountZ
	if cx < 0 || cx >= x || cy < 0 || cy >= y || cz < 0 || cz >= z {
		return InvalidChunk
	}
	id := int64(cz)*int64(y)*int64(z) + int64(cy)*int64(y) + int64(cx)
	if id < 0 || id >= int64(x)*int64(y)*int64(z) {
		return InvalidChunk
	}
	return ChunkID(id)
}

// decode is the literal inverse of encode's packing formula. The round
// trip holds over the whole grid only when CountX == CountY == CountZ
// (the default configuration). On other grids encode can reject in-grid
// coordinates as InvalidChunk (e.g. CountZ > CountY), distinct
// coordinates can share one id, which decodes to only one of them (e.g.
// CountX > CountY or CountZ < CountY), and ids that would decode to a cx
// outside [0, CountX) are rejected as invalid. See SPEC_FULL.md §E.
func (ci chunkIndex) decode(id ChunkID) (cx, cy, cz int32, ok bool) {
	x, y, z := ci.cfg.CountX, ci.cfg.CountY, ci.cfg.CountZ
	if id < 0 || int64(id) >= int64(x)*int64(y)*int64(z) {
		return 0, 0, 0, false
	}
	stride := int64(y) * int64(z)
	zz := int64(id) / stride
	rem := int64(id) % stride
	yy := rem / int64(y)
	xx := rem % int64(y)
	if xx >= int64(x) {
		return 0, 0, 0, false
	}
	return int32(xx), int32(yy), int32(zz), true
}

// fromReal maps a real-space point to the chunk containing it.
func (ci chunkIndex) fromReal(x, y, z float64) ChunkID {
	size := ci.cfg.ChunkSize
	if size <= 0 {
		size = 1
	}
	cx := int32(floorDiv(x, size)) + biasFor(ci.cfg.OffsetX, ci.cfg.CountX)
	cy := int32(floorDiv(y, size)) + biasFor(ci.cfg.OffsetY, ci.cfg.CountY)
	cz := int32(floorDiv(z, size)) + biasFor(ci.cfg.OffsetZ, ci.cfg.CountZ)
	return ci.encode(cx, cy, cz)
}

func floorDiv(v, size float64) int64 {
	q := v / size
	fq := int64(q)
	if q < 0 && float64(fq) != q {
		fq--
	}
	return fq
}

// radius returns every chunk id within Euclidean chunk-distance r of
// center, admitting a chunk iff its offset from center satisfies
// dx²+dy²+dz² <= r². Chunks outside the grid are silently dropped.
func (ci chunkIndex) radius(center ChunkID, r int8) []ChunkID {
	if r <= 0 {
		return nil
	}
	cx, cy, cz, ok := ci.decode(center)
	if !ok {
		return nil
	}
	rr := int32(r)
	rsq := int64(rr) * int64(rr)
	out := make([]ChunkID, 0, (2*rr+1)*(2*rr+1))
	for dx := -rr; dx <= rr; dx++ {
		for dy := -rr; dy <= rr; dy++ {
			for dz := -rr; dz <= rr; dz++ {
				distSq := int64(dx)*int64(dx) + int64(dy)*int64(dy) + int64(dz)*int64(dz)
				if distSq > rsq {
					continue
				}
				id := ci.encode(cx+dx, cy+dy, cz+dz)
				if id != InvalidChunk {
					out = append(out, id)
				}
			}
		}
	}
	return out
}
