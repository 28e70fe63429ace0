package vm

// cache.go implements a configurable set-associative cache, sitting in front
// of main memory on either the code or data access path. The R2000 itself
// has no cache (spec section 4.4 models the cache as a separate, optional
// memory-system component); this file is new relative to the teacher and is
// grounded on original_source/spym/vm/devices/cache.py, reimplemented in the
// teacher's struct-and-method idiom (explicit fields, no closures) using the
// Word/accessor types already established in words.go and mem.go.

import (
	"math/rand"

	"github.com/mipssim/r2000/internal/log"
)

// ReplacementPolicy selects which line in a full set is evicted.
type ReplacementPolicy int

const (
	ReplaceLRU ReplacementPolicy = iota
	ReplaceFIFO
	ReplaceRandom
)

// WriteHitPolicy controls what happens to the next level on a write hit.
type WriteHitPolicy int

const (
	WriteBack WriteHitPolicy = iota
	WriteThrough
)

// WriteMissPolicy controls whether a write miss pulls the line into the
// cache or bypasses it.
type WriteMissPolicy int

const (
	WriteAllocate WriteMissPolicy = iota
	WriteNoAllocate
)

// CacheParams configures a single cache level. WaySize of 1 means direct
// mapped; WaySize equal to Lines means fully associative; anything in
// between is set associative.
type CacheParams struct {
	Lines     int
	WaySize   int
	WriteHit  WriteHitPolicy
	WriteMiss WriteMissPolicy
	Replace   ReplacementPolicy
}

// DefaultCacheConfig returns the "standard cache" the CLI's -c flag enables:
// a unified, 64-line, 4-way set-associative, write-back/write-allocate, LRU
// cache at L1, with no L2. Split code/data caching and L2 are available
// through CacheConfig directly but have no CLI knob.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		L1Data: &CacheParams{
			Lines:     64,
			WaySize:   4,
			WriteHit:  WriteBack,
			WriteMiss: WriteAllocate,
			Replace:   ReplaceLRU,
		},
	}
}

// cacheLine is one tag-and-data entry. Grounded on cache.py's CacheLine.
type cacheLine struct {
	valid   bool
	dirty   bool
	tag     uint32
	counter int // ticks since use (LRU) or since fill (FIFO)
	addr    Word
	data    []Word
}

// setCounters resets this line's counter and bumps every other line's
// counter in the same set, giving LRU/FIFO eviction a simple monotonic
// ordering without timestamps.
func setCounters(set []*cacheLine, hit *cacheLine) {
	for _, l := range set {
		if l == hit {
			l.counter = 0
		} else {
			l.counter++
		}
	}
}

// Cache is a single level of a configurable cache hierarchy. It implements
// accessor so it can be chained in front of another Cache or of main memory.
type Cache struct {
	name       string
	blockWords int
	numSets    int
	waySize    int
	params     CacheParams
	lines      []*cacheLine
	next       accessor
	rng        *rand.Rand
	log        *log.Logger
}

// NewCache builds a cache of blockSize-byte lines in front of next.
func NewCache(name string, blockSize int, next accessor, params CacheParams) *Cache {
	if params.WaySize <= 0 {
		params.WaySize = 1
	}

	numSets := params.Lines / params.WaySize
	if numSets <= 0 {
		numSets = 1
	}

	lines := make([]*cacheLine, params.Lines)
	for i := range lines {
		lines[i] = &cacheLine{data: make([]Word, blockSize/4)}
	}

	return &Cache{
		name:       name,
		blockWords: blockSize / 4,
		numSets:    numSets,
		waySize:    params.WaySize,
		params:     params,
		lines:      lines,
		next:       next,
		rng:        rand.New(rand.NewSource(1)),
		log:        log.DefaultLogger(),
	}
}

// blockAddr returns the line-aligned base address and the word offset within
// the line for addr.
func (c *Cache) blockAddr(addr Word) (Word, int) {
	lineBytes := Word(c.blockWords * 4)
	base := addr - (addr % lineBytes)
	wordOff := int(addr%lineBytes) / 4

	return base, wordOff
}

// setOf returns the set index and tag for a block-aligned address.
func (c *Cache) setOf(base Word) (int, uint32) {
	blockNum := uint32(base) / uint32(c.blockWords*4)

	return int(blockNum) % c.numSets, blockNum / uint32(c.numSets)
}

// ways returns the slice of lines belonging to a set.
func (c *Cache) ways(set int) []*cacheLine {
	start := set * c.waySize
	return c.lines[start : start+c.waySize]
}

func (c *Cache) find(set int, tag uint32) *cacheLine {
	for _, l := range c.ways(set) {
		if l.valid && l.tag == tag {
			return l
		}
	}

	return nil
}

// victim picks the line to evict or fill in a set: first invalid line, else
// the line chosen by the configured replacement policy.
func (c *Cache) victim(set int) *cacheLine {
	ways := c.ways(set)

	for _, l := range ways {
		if !l.valid {
			return l
		}
	}

	switch c.params.Replace {
	case ReplaceRandom:
		return ways[c.rng.Intn(len(ways))]
	default: // LRU, FIFO: both tracked via the monotonic counter
		victim := ways[0]
		for _, l := range ways[1:] {
			if l.counter > victim.counter {
				victim = l
			}
		}

		return victim
	}
}

// fill loads a block from the next level into line, writing back a dirty
// victim first.
func (c *Cache) fill(line *cacheLine, base Word, set int, tag uint32) error {
	if line.valid && line.dirty {
		if err := c.writeBack(line); err != nil {
			return err
		}
	}

	for i := 0; i < c.blockWords; i++ {
		v, err := c.next.Load(base+Word(i*4), 4)
		if err != nil {
			return err
		}

		line.data[i] = v
	}

	line.valid = true
	line.dirty = false
	line.tag = tag
	line.addr = base

	setCounters(c.ways(set), line)

	return nil
}

func (c *Cache) writeBack(line *cacheLine) error {
	for i, v := range line.data {
		if err := c.next.Store(line.addr+Word(i*4), 4, v); err != nil {
			return err
		}
	}

	line.dirty = false

	return nil
}

// Load implements accessor.
func (c *Cache) Load(addr Word, size int) (Word, error) {
	base, wordOff := c.blockAddr(addr)
	set, tag := c.setOf(base)

	line := c.find(set, tag)
	if line == nil {
		line = c.victim(set)
		if err := c.fill(line, base, set, tag); err != nil {
			return 0, err
		}
	} else if c.params.Replace == ReplaceLRU {
		// FIFO only resets a line's counter on fill, not on every hit;
		// gating this keeps FIFO distinct from LRU (cache.py's getContents).
		setCounters(c.ways(set), line)
	}

	byteOff := int(addr) % 4
	word := line.data[wordOff]

	if byteOff == 0 && size == 4 {
		return word, nil
	}

	return (word >> (byteOff * 8)) & sizeMasks[size], nil
}

// Store implements accessor.
func (c *Cache) Store(addr Word, size int, v Word) error {
	base, wordOff := c.blockAddr(addr)
	set, tag := c.setOf(base)

	line := c.find(set, tag)
	hit := line != nil

	if line == nil {
		if c.params.WriteMiss == WriteNoAllocate {
			return c.next.Store(addr, size, v)
		}

		line = c.victim(set)
		if err := c.fill(line, base, set, tag); err != nil {
			return err
		}
	}

	byteOff := int(addr) % 4

	if byteOff == 0 && size == 4 {
		line.data[wordOff] = v
	} else {
		mask := sizeMasks[size] << (byteOff * 8)
		line.data[wordOff] &^= mask
		line.data[wordOff] |= (v & sizeMasks[size]) << (byteOff * 8)
	}

	line.dirty = true

	// A fill already reset counters for the miss path; only a hit under LRU
	// needs its own reset here (FIFO only resets on fill, see cache.py).
	if hit && c.params.Replace == ReplaceLRU {
		setCounters(c.ways(set), line)
	}

	if c.params.WriteHit == WriteThrough {
		return c.next.Store(addr, size, v)
	}

	return nil
}
