// Package layout describes how firmware partitions are arranged in the flash
// of BK7231-family devices.
//
// A Layout is a named, immutable, ordered table of partitions. Lookups by
// name go through an index but iteration always follows the declared order,
// which keeps reports and artifacts deterministic.
package layout

import (
	"fmt"

	"github.com/pkg/errors"
)

// Partition is a named, fixed-address region of flash.
type Partition struct {
	// Name identifies the partition within its layout
	Name string

	// StartAddress is the absolute flash address of the partition
	StartAddress uint32

	// Size is the partition size in bytes
	Size uint32

	// MappedAddress is the address the partition is loaded to at runtime.
	// The code cipher is keyed on it.
	MappedAddress uint32

	// Code marks partitions holding encrypted code
	Code bool
}

// End returns the first address past the partition.
func (p Partition) End() uint64 {
	return uint64(p.StartAddress) + uint64(p.Size)
}

// Contains reports whether the absolute address addr lies inside the partition.
func (p Partition) Contains(addr int) bool {
	return addr >= 0 && uint64(addr) >= uint64(p.StartAddress) && uint64(addr) < p.End()
}

func (p Partition) String() string {
	return fmt.Sprintf("%s[0x%06X+0x%06X]", p.Name, p.StartAddress, p.Size)
}

// Layout is a named table of partitions.
type Layout struct {
	name       string
	partitions []Partition
	index      map[string]int
}

// New validates partitions and builds a Layout from them.
// Partition names must be unique and non-empty, and partitions must not
// overlap.
func New(name string, partitions ...Partition) (*Layout, error) {
	if name == "" {
		return nil, errors.New("layout name cannot be empty")
	}

	l := &Layout{
		name:       name,
		partitions: make([]Partition, 0, len(partitions)),
		index:      make(map[string]int, len(partitions)),
	}

	for _, p := range partitions {
		if p.Name == "" {
			return nil, errors.Errorf("layout %s: partition at 0x%06X has no name", name, p.StartAddress)
		}
		if _, ok := l.index[p.Name]; ok {
			return nil, errors.Errorf("layout %s: duplicate partition %q", name, p.Name)
		}
		if p.End() > 1<<32 {
			return nil, errors.Errorf("layout %s: partition %s exceeds the 32-bit address space", name, p)
		}
		for _, q := range l.partitions {
			if uint64(p.StartAddress) < q.End() && uint64(q.StartAddress) < p.End() {
				return nil, errors.Errorf("layout %s: partition %s overlaps %s", name, p, q)
			}
		}
		l.index[p.Name] = len(l.partitions)
		l.partitions = append(l.partitions, p)
	}

	return l, nil
}

// MustNew is like New but panics on error. It is meant for static tables.
func MustNew(name string, partitions ...Partition) *Layout {
	l, err := New(name, partitions...)
	if err != nil {
		panic(err)
	}
	return l
}

// Name returns the layout name.
func (l *Layout) Name() string {
	return l.name
}

// Partitions returns a copy of the partitions in declared order.
func (l *Layout) Partitions() []Partition {
	out := make([]Partition, len(l.partitions))
	copy(out, l.partitions)
	return out
}

// Names returns the partition names in declared order.
func (l *Layout) Names() []string {
	names := make([]string, len(l.partitions))
	for i, p := range l.partitions {
		names[i] = p.Name
	}
	return names
}

// Partition looks up a partition by name.
func (l *Layout) Partition(name string) (Partition, bool) {
	i, ok := l.index[name]
	if !ok {
		return Partition{}, false
	}
	return l.partitions[i], true
}

// Lookup is like Partition but returns a *PartitionNotFoundError for unknown
// names.
func (l *Layout) Lookup(name string) (Partition, error) {
	p, ok := l.Partition(name)
	if !ok {
		return Partition{}, &PartitionNotFoundError{Layout: l.name, Partition: name}
	}
	return p, nil
}

// Containing returns the partition that contains the absolute address addr.
func (l *Layout) Containing(addr int) (Partition, bool) {
	for _, p := range l.partitions {
		if p.Contains(addr) {
			return p, true
		}
	}
	return Partition{}, false
}

// PartitionNotFoundError indicates that a partition name is not part of a layout.
type PartitionNotFoundError struct {
	Layout    string
	Partition string
}

func (e *PartitionNotFoundError) Error() string {
	return fmt.Sprintf("partition %q is unknown in layout %s", e.Partition, e.Layout)
}
