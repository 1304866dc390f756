package partition

// Multiplier converts solver units to reporting units per DOF:
// cm to um for positions, rad to urad for rotations.
var Multiplier = [NumCoords]float64{
	10000.,   // X
	10000.,   // Y
	10000.,   // Z
	1000000., // theta_X
	1000000., // theta_Y
	1000000., // theta_Z
}

// Convert scales a raw solver value for coordinate c. Invalid coordinates
// return the value unchanged.
func Convert(c Coord, raw float64) float64 {
	if !c.Valid() {
		return raw
	}
	return raw * Multiplier[c]
}
