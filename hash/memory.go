package hash

// Memory is an in-process location with back/forward history.
type Memory struct {
	entries []string
	index   int
}

// NewMemory creates a location at addr.
func NewMemory(addr string) *Memory {
	return &Memory{entries: []string{addr}}
}

func (mem *Memory) Address() string {
	return mem.entries[mem.index]
}

// Push adds addr after the current entry, dropping any forward history.
func (mem *Memory) Push(addr string) {

	mem.entries = append(mem.entries[:mem.index+1], addr)
	mem.index++
}

func (mem *Memory) Replace(addr string) {
	mem.entries[mem.index] = addr
}

// Back steps one entry back, reporting false at the start of history.
func (mem *Memory) Back() bool {

	if mem.index == 0 {
		return false
	}
	mem.index--
	return true
}

// Forward steps one entry forward, reporting false at the end of history.
func (mem *Memory) Forward() bool {

	if mem.index == len(mem.entries)-1 {
		return false
	}
	mem.index++
	return true
}

// Len is the number of history entries.
func (mem *Memory) Len() int {
	return len(mem.entries)
}
