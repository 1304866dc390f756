package thresholds

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/pclgate/internal/partition"
)

// ErrMissingPartition is returned when a table file omits one of the PCL
// partitions.
var ErrMissingPartition = errors.New("threshold table missing partition")

type partitionFile struct {
	Cut      []float64 `yaml:"cut"`
	SigCut   []float64 `yaml:"sig_cut"`
	MaxMove  []float64 `yaml:"max_move"`
	MaxError []float64 `yaml:"max_error"`
}

type tableFile struct {
	MinRecords int                      `yaml:"min_records"`
	Partitions map[string]partitionFile `yaml:"partitions"`
}

// Load reads a threshold table from YAML.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read thresholds: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML threshold table. Every PCL partition
// must be present with six values per cut.
func Parse(data []byte) (Table, error) {
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return Table{}, fmt.Errorf("parse thresholds: %w", err)
	}
	if tf.MinRecords < 0 {
		return Table{}, fmt.Errorf("min_records must be >= 0, got %d", tf.MinRecords)
	}

	t := Table{MinRecords: tf.MinRecords, Partitions: make(map[string]Thresholds, len(tf.Partitions))}
	for name, pf := range tf.Partitions {
		if _, ok := partition.Parse(name); !ok {
			return Table{}, fmt.Errorf("unknown partition %q in thresholds", name)
		}
		var th Thresholds
		fields := []struct {
			key string
			src []float64
			dst *[partition.NumCoords]float64
		}{
			{"cut", pf.Cut, &th.Cut},
			{"sig_cut", pf.SigCut, &th.SigCut},
			{"max_move", pf.MaxMove, &th.MaxMoveCut},
			{"max_error", pf.MaxError, &th.MaxErrorCut},
		}
		for _, f := range fields {
			if len(f.src) != partition.NumCoords {
				return Table{}, fmt.Errorf("%s.%s: want %d values, got %d", name, f.key, partition.NumCoords, len(f.src))
			}
			copy(f.dst[:], f.src)
		}
		t.Partitions[name] = th
	}

	for _, p := range partition.All {
		if _, ok := t.Partitions[p.Name()]; !ok {
			return Table{}, fmt.Errorf("%w: %s", ErrMissingPartition, p.Name())
		}
	}
	return t, nil
}
