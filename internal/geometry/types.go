package geometry

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownElement is returned by a Resolver asked about an id it has no
// numbering for.
var ErrUnknownElement = errors.New("unknown alignable element")

// #region structure-type
// StructureType is the alignable level a pede label refers to.
type StructureType int

const (
	StructureOther StructureType = iota
	TPBHalfBarrel
	TPEHalfCylinder
	TPBLadder
	TPEPanel
	TPBLayer
	TPEHalfDisk
	TPBModule
	TPEBlade
)

var structureNames = map[StructureType]string{
	StructureOther:  "Other",
	TPBHalfBarrel:   "TPBHalfBarrel",
	TPEHalfCylinder: "TPEHalfCylinder",
	TPBLadder:       "TPBLadder",
	TPEPanel:        "TPEPanel",
	TPBLayer:        "TPBLayer",
	TPEHalfDisk:     "TPEHalfDisk",
	TPBModule:       "TPBModule",
	TPEBlade:        "TPEBlade",
}

func (s StructureType) String() string {
	if name, ok := structureNames[s]; ok {
		return name
	}
	return fmt.Sprintf("StructureType(%d)", int(s))
}

// ParseStructureType maps a structure name back to its type.
func ParseStructureType(name string) (StructureType, error) {
	for t, n := range structureNames {
		if n == name {
			return t, nil
		}
	}
	return StructureOther, fmt.Errorf("unknown structure type %q", name)
}

// #endregion structure-type

// #region alignable
// Alignable is what a pede label resolves to: the element id and its level.
// Several levels can share an id, so the type travels with it.
type Alignable struct {
	ID   uint32
	Type StructureType
}

// Attributes is the structural numbering of an element as the tracker
// name space reports it. Fields that do not apply to the element are zero.
type Attributes struct {
	Layer        int `yaml:"layer,omitempty" json:"layer,omitempty"`
	HalfBarrel   int `yaml:"half_barrel,omitempty" json:"half_barrel,omitempty"`
	Ladder       int `yaml:"ladder,omitempty" json:"ladder,omitempty"`
	Endcap       int `yaml:"endcap,omitempty" json:"endcap,omitempty"`
	HalfDisk     int `yaml:"half_disk,omitempty" json:"half_disk,omitempty"`
	HalfCylinder int `yaml:"half_cylinder,omitempty" json:"half_cylinder,omitempty"`
	Blade        int `yaml:"blade,omitempty" json:"blade,omitempty"`
	Panel        int `yaml:"panel,omitempty" json:"panel,omitempty"`
}

// #endregion alignable

// #region interfaces
// Labeler turns a pede parameter label into the alignable it belongs to.
// ok is false when the label names no alignable.
type Labeler interface {
	AlignableFromLabel(ctx context.Context, label uint64) (a Alignable, ok bool, err error)
}

// Resolver returns the structural numbering of an element id.
type Resolver interface {
	Resolve(ctx context.Context, id uint32) (Attributes, error)
}

// Source is a geometry backend serving both lookups.
type Source interface {
	Labeler
	Resolver
}

// #endregion interfaces
