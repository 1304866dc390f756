package partition

import "fmt"

// #region coord
// Coord is one of the six alignment degrees of freedom.
type Coord int

const (
	X Coord = iota
	Y
	Z
	ThetaX
	ThetaY
	ThetaZ
)

// NumCoords is the number of degrees of freedom per alignable.
const NumCoords = 6

var coordNames = [NumCoords]string{"X", "Y", "Z", "theta_X", "theta_Y", "theta_Z"}

// Coords lists all degrees of freedom in table order.
var Coords = [NumCoords]Coord{X, Y, Z, ThetaX, ThetaY, ThetaZ}

func (c Coord) String() string {
	if !c.Valid() {
		return "unrecognized coordinate"
	}
	return coordNames[c]
}

// Valid reports whether c is one of the six degrees of freedom.
func (c Coord) Valid() bool {
	return c >= X && c <= ThetaZ
}

// ParseCoord maps a coordinate name back to its Coord.
func ParseCoord(name string) (Coord, bool) {
	for i, n := range coordNames {
		if n == name {
			return Coord(i), true
		}
	}
	return -1, false
}

// IsAngular is true for the rotations.
func (c Coord) IsAngular() bool {
	return c >= ThetaX && c <= ThetaZ
}

// CoordFromLabel decodes the degree of freedom carried in the last digit of
// a pede label. The result may be invalid; callers check Valid.
func CoordFromLabel(label uint64) Coord {
	return Coord(int(label%10) - 1)
}

// #endregion coord

// #region partition
// Partition is the high-level structure a correction is booked under.
// The numeric values are the coarse table slots and must not change.
type Partition int

const (
	NotInPCL                    Partition = -1
	TPEHalfCylinderXplusZminus  Partition = 0
	TPEHalfCylinderXminusZminus Partition = 1
	TPBHalfBarrelXplus          Partition = 2
	TPBHalfBarrelXminus         Partition = 3
	TPEHalfCylinderXplusZplus   Partition = 4
	TPEHalfCylinderXminusZplus  Partition = 5
	TPBLadder                   Partition = 6
	TPEPanel                    Partition = 7
)

// CoarseSlots is the number of partitions with a single slot per DOF.
const CoarseSlots = 6

// All lists the in-scope partitions in code order.
var All = []Partition{
	TPEHalfCylinderXplusZminus,
	TPEHalfCylinderXminusZminus,
	TPBHalfBarrelXplus,
	TPBHalfBarrelXminus,
	TPEHalfCylinderXplusZplus,
	TPEHalfCylinderXminusZplus,
	TPBLadder,
	TPEPanel,
}

// Name is the key used in the threshold table. NotInPCL has no key and
// returns an empty string.
func (p Partition) Name() string {
	switch p {
	case TPEHalfCylinderXplusZminus:
		return "TPEHalfCylinderXplusZminus"
	case TPEHalfCylinderXminusZminus:
		return "TPEHalfCylinderXminusZminus"
	case TPBHalfBarrelXplus:
		return "TPBHalfBarrelXplus"
	case TPBHalfBarrelXminus:
		return "TPBHalfBarrelXminus"
	case TPEHalfCylinderXplusZplus:
		return "TPEHalfCylinderXplusZplus"
	case TPEHalfCylinderXminusZplus:
		return "TPEHalfCylinderXminusZplus"
	case TPBLadder:
		return "TPBLadder"
	case TPEPanel:
		return "TPEPanel"
	}
	return ""
}

func (p Partition) String() string {
	if p == NotInPCL {
		return "NotInPCL"
	}
	if name := p.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("Partition(%d)", int(p))
}

// IsFine reports whether p is booked per ladder/panel rather than per slot.
func (p Partition) IsFine() bool {
	return p == TPBLadder || p == TPEPanel
}

// IsCoarse reports whether p owns one of the six coarse slots.
func (p Partition) IsCoarse() bool {
	return p >= TPEHalfCylinderXplusZminus && p <= TPEHalfCylinderXminusZplus
}

// Parse maps a threshold-table key back to its partition.
func Parse(name string) (Partition, bool) {
	for _, p := range All {
		if p.Name() == name {
			return p, true
		}
	}
	return NotInPCL, false
}

// #endregion partition
