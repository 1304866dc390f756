package partition

import "github.com/danielpatrickdp/pclgate/internal/geometry"

// FineSlots is the size of the ladder/panel observation table.
const FineSlots = 820

// NotApplicable is returned by FineIndex for anything outside the legal
// ladder and panel ranges. It is never a valid table position.
const NotApplicable = -200

// Barrel ladders occupy [1, 148]: per layer a base offset, and the second
// half-barrel shifted by the number of ladders in one half.
var (
	ladderBase       = [5]int{0, 0, 12, 40, 84}
	ladderHalfOffset = [5]int{0, 6, 14, 22, 32}
)

// Endcap panels occupy [149, 820]: six half-disk bands of 112 slots, each
// split into two 56-slot half-cylinder bands holding 28 blades x 2 panels.
const (
	panelBase       = 148
	halfDiskBand    = 112
	halfCylBand     = 56
	bladesPerHalfCy = 28
)

// FineIndex returns the 1-based slot of a ladder or panel in the fine table.
func FineIndex(p Partition, a geometry.Attributes) int {
	switch p {
	case TPBLadder:
		return ladderIndex(a)
	case TPEPanel:
		return panelIndex(a)
	}
	return NotApplicable
}

func ladderIndex(a geometry.Attributes) int {
	if a.Layer < 1 || a.Layer > 4 {
		return NotApplicable
	}
	half := ladderHalfOffset[a.Layer]
	if a.Ladder < 1 || a.Ladder > half {
		return NotApplicable
	}
	switch a.HalfBarrel {
	case 1:
		return a.Ladder + ladderBase[a.Layer]
	case 2:
		return a.Ladder + ladderBase[a.Layer] + half
	}
	return NotApplicable
}

func panelIndex(a geometry.Attributes) int {
	if a.HalfDisk < 1 || a.HalfDisk > 3 {
		return NotApplicable
	}
	if a.Blade < 1 || a.Blade > bladesPerHalfCy || a.Panel < 1 || a.Panel > 2 {
		return NotApplicable
	}

	// signed disk -3..-1 on the minus-z endcap, 1..3 on the plus side
	var band int
	switch a.Endcap {
	case 1:
		band = 3 - a.HalfDisk
	case 2:
		band = 2 + a.HalfDisk
	default:
		return NotApplicable
	}

	inBand := 2*a.Blade - a.Panel%2
	switch a.HalfCylinder {
	case 1:
		return inBand + panelBase + band*halfDiskBand
	case 2:
		return inBand + panelBase + band*halfDiskBand + halfCylBand
	}
	return NotApplicable
}
