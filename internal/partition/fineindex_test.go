package partition

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/pclgate/internal/geometry"
)

type fineCase struct {
	name  string
	p     Partition
	attrs geometry.Attributes
}

// legalFineTuples enumerates every physical ladder and panel.
func legalFineTuples() []fineCase {
	var cases []fineCase
	laddersPerHalf := map[int]int{1: 6, 2: 14, 3: 22, 4: 32}
	for layer := 1; layer <= 4; layer++ {
		for hb := 1; hb <= 2; hb++ {
			for ladder := 1; ladder <= laddersPerHalf[layer]; ladder++ {
				cases = append(cases, fineCase{
					name:  fmt.Sprintf("L%d/HB%d/ladder%d", layer, hb, ladder),
					p:     TPBLadder,
					attrs: geometry.Attributes{Layer: layer, HalfBarrel: hb, Ladder: ladder},
				})
			}
		}
	}
	for endcap := 1; endcap <= 2; endcap++ {
		for disk := 1; disk <= 3; disk++ {
			for hc := 1; hc <= 2; hc++ {
				for blade := 1; blade <= 28; blade++ {
					for panel := 1; panel <= 2; panel++ {
						cases = append(cases, fineCase{
							name: fmt.Sprintf("EC%d/D%d/HC%d/blade%d/panel%d", endcap, disk, hc, blade, panel),
							p:    TPEPanel,
							attrs: geometry.Attributes{
								Endcap: endcap, HalfDisk: disk, HalfCylinder: hc, Blade: blade, Panel: panel,
							},
						})
					}
				}
			}
		}
	}
	return cases
}

func TestFineIndexIsBijectionOntoTable(t *testing.T) {
	cases := legalFineTuples()
	require.Len(t, cases, FineSlots)

	seen := make(map[int]string, FineSlots)
	for _, tc := range cases {
		idx := FineIndex(tc.p, tc.attrs)
		require.GreaterOrEqual(t, idx, 1, tc.name)
		require.LessOrEqual(t, idx, FineSlots, tc.name)
		if prev, dup := seen[idx]; dup {
			t.Fatalf("%s and %s both map to %d", prev, tc.name, idx)
		}
		seen[idx] = tc.name
	}
	assert.Len(t, seen, FineSlots)
}

func TestFineIndexRanges(t *testing.T) {
	tests := []struct {
		name  string
		p     Partition
		attrs geometry.Attributes
		want  int
	}{
		{"first ladder", TPBLadder, geometry.Attributes{Layer: 1, HalfBarrel: 1, Ladder: 1}, 1},
		{"layer 1 opposite half", TPBLadder, geometry.Attributes{Layer: 1, HalfBarrel: 2, Ladder: 1}, 7},
		{"layer 2 start", TPBLadder, geometry.Attributes{Layer: 2, HalfBarrel: 1, Ladder: 1}, 13},
		{"layer 2 opposite end", TPBLadder, geometry.Attributes{Layer: 2, HalfBarrel: 2, Ladder: 14}, 40},
		{"layer 3 start", TPBLadder, geometry.Attributes{Layer: 3, HalfBarrel: 1, Ladder: 1}, 41},
		{"layer 4 start", TPBLadder, geometry.Attributes{Layer: 4, HalfBarrel: 1, Ladder: 1}, 85},
		{"last ladder", TPBLadder, geometry.Attributes{Layer: 4, HalfBarrel: 2, Ladder: 32}, 148},
		{"first panel disk -3", TPEPanel, geometry.Attributes{Endcap: 1, HalfDisk: 3, HalfCylinder: 1, Blade: 1, Panel: 1}, 149},
		{"panel 2 of blade 1", TPEPanel, geometry.Attributes{Endcap: 1, HalfDisk: 3, HalfCylinder: 1, Blade: 1, Panel: 2}, 150},
		{"second half-cylinder band", TPEPanel, geometry.Attributes{Endcap: 1, HalfDisk: 3, HalfCylinder: 2, Blade: 1, Panel: 1}, 205},
		{"disk -1", TPEPanel, geometry.Attributes{Endcap: 1, HalfDisk: 1, HalfCylinder: 1, Blade: 1, Panel: 1}, 373},
		{"disk +1", TPEPanel, geometry.Attributes{Endcap: 2, HalfDisk: 1, HalfCylinder: 1, Blade: 1, Panel: 1}, 485},
		{"last panel", TPEPanel, geometry.Attributes{Endcap: 2, HalfDisk: 3, HalfCylinder: 2, Blade: 28, Panel: 2}, 820},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FineIndex(tt.p, tt.attrs))
		})
	}
}

func TestFineIndexOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		p     Partition
		attrs geometry.Attributes
	}{
		{"layer 0", TPBLadder, geometry.Attributes{Layer: 0, HalfBarrel: 1, Ladder: 1}},
		{"layer 5", TPBLadder, geometry.Attributes{Layer: 5, HalfBarrel: 1, Ladder: 1}},
		{"ladder 0", TPBLadder, geometry.Attributes{Layer: 1, HalfBarrel: 1, Ladder: 0}},
		{"ladder past half", TPBLadder, geometry.Attributes{Layer: 1, HalfBarrel: 1, Ladder: 7}},
		{"half-barrel 3", TPBLadder, geometry.Attributes{Layer: 2, HalfBarrel: 3, Ladder: 1}},
		{"half-disk 0", TPEPanel, geometry.Attributes{Endcap: 1, HalfDisk: 0, HalfCylinder: 1, Blade: 1, Panel: 1}},
		{"half-disk 4", TPEPanel, geometry.Attributes{Endcap: 2, HalfDisk: 4, HalfCylinder: 1, Blade: 1, Panel: 1}},
		{"endcap 3", TPEPanel, geometry.Attributes{Endcap: 3, HalfDisk: 1, HalfCylinder: 1, Blade: 1, Panel: 1}},
		{"blade 29", TPEPanel, geometry.Attributes{Endcap: 1, HalfDisk: 1, HalfCylinder: 1, Blade: 29, Panel: 1}},
		{"panel 3", TPEPanel, geometry.Attributes{Endcap: 1, HalfDisk: 1, HalfCylinder: 1, Blade: 1, Panel: 3}},
		{"half-cylinder 0", TPEPanel, geometry.Attributes{Endcap: 1, HalfDisk: 1, HalfCylinder: 0, Blade: 1, Panel: 1}},
		{"coarse partition", TPBHalfBarrelXplus, geometry.Attributes{Layer: 1, HalfBarrel: 1, Ladder: 1}},
		{"not in pcl", NotInPCL, geometry.Attributes{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, NotApplicable, FineIndex(tt.p, tt.attrs))
		})
	}
}
