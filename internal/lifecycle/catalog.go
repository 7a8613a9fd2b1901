package lifecycle

import (
	"fmt"

	"github.com/existflow/sitetask/internal/model"
)

// LowestFloor is the deepest basement level every block has
const LowestFloor = -2

// Block is a building on the site and its number of above-ground floors.
// Zero floors means the block has no floor options.
type Block struct {
	Name   string `yaml:"name" json:"name"`
	Floors int    `yaml:"floors" json:"floors"`
}

// Catalog lists the blocks tasks may refer to
type Catalog []Block

// DefaultCatalog returns the blocks of the site
func DefaultCatalog() Catalog {
	return Catalog{
		{Name: "A Blok", Floors: 28},
		{Name: "B Blok", Floors: 38},
		{Name: "C Blok", Floors: 28},
		{Name: "D Blok", Floors: 18},
		{Name: "E Blok", Floors: 28},
	}
}

// Lookup finds a block by name
func (c Catalog) Lookup(name string) (Block, bool) {
	for _, b := range c {
		if b.Name == name {
			return b, true
		}
	}
	return Block{}, false
}

// HasFloors reports whether the block offers floor options
func (b Block) HasFloors() bool {
	return b.Floors > 0
}

// FloorOptions returns the selectable floors: basements -2, -1, then 1..Floors
func (b Block) FloorOptions() []int {
	if !b.HasFloors() {
		return nil
	}
	opts := make([]int, 0, b.Floors+2)
	for k := LowestFloor; k <= b.Floors; k++ {
		if k != 0 {
			opts = append(opts, k)
		}
	}
	return opts
}

// ValidFloor reports whether k is one of the block's floors
func (b Block) ValidFloor(k int) bool {
	return b.HasFloors() && k >= LowestFloor && k != 0 && k <= b.Floors
}

// FormatFloor renders basements as B1, B2
func FormatFloor(k int) string {
	if k < 0 {
		return fmt.Sprintf("B%d", -k)
	}
	return fmt.Sprintf("%d", k)
}

// FloorLabel renders a task's floor or floor range, empty when unset
func FloorLabel(t *model.Task) string {
	switch {
	case t.Floor != nil:
		return FormatFloor(*t.Floor)
	case t.FloorFrom != nil && t.FloorTo != nil:
		return FormatFloor(*t.FloorFrom) + "–" + FormatFloor(*t.FloorTo)
	default:
		return ""
	}
}
