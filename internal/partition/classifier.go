package partition

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/pclgate/internal/geometry"
)

// ErrUnmappedStructure means the geometry reports a structure number the
// partition table has no slot for. Continuing would book the correction in
// the wrong place, so the run is aborted.
var ErrUnmappedStructure = errors.New("structure not mappable to a PCL partition")

// Classify maps an alignable and its numbering to a partition.
// Structures outside the PCL granularity yield NotInPCL without error.
func Classify(a geometry.Alignable, attrs geometry.Attributes) (Partition, error) {
	switch a.Type {
	case geometry.TPBHalfBarrel:
		switch attrs.HalfBarrel {
		case 1:
			return TPBHalfBarrelXminus, nil
		case 2:
			return TPBHalfBarrelXplus, nil
		}
		return NotInPCL, fmt.Errorf("element %d: half-barrel number %d: %w", a.ID, attrs.HalfBarrel, ErrUnmappedStructure)

	case geometry.TPEHalfCylinder:
		switch attrs.Endcap {
		case 1:
			switch attrs.HalfCylinder {
			case 1:
				return TPEHalfCylinderXminusZminus, nil
			case 2:
				return TPEHalfCylinderXplusZminus, nil
			}
		case 2:
			switch attrs.HalfCylinder {
			case 1:
				return TPEHalfCylinderXminusZplus, nil
			case 2:
				return TPEHalfCylinderXplusZplus, nil
			}
		default:
			return NotInPCL, fmt.Errorf("element %d: endcap number %d: %w", a.ID, attrs.Endcap, ErrUnmappedStructure)
		}
		return NotInPCL, fmt.Errorf("element %d: half-cylinder number %d: %w", a.ID, attrs.HalfCylinder, ErrUnmappedStructure)

	case geometry.TPBLadder:
		return TPBLadder, nil
	case geometry.TPEPanel:
		return TPEPanel, nil
	}
	return NotInPCL, nil
}
