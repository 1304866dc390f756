package geometry

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LabelStride is the spacing between base labels; the remainder of a label
// modulo the stride selects the parameter (DOF) of the alignable.
const LabelStride = 10

// #region element
// Element is one row of a static geometry table.
type Element struct {
	Label      uint64 `yaml:"label"`
	ID         uint32 `yaml:"id"`
	Type       string `yaml:"type"`
	Attributes `yaml:",inline"`
}

type tableFile struct {
	Elements []Element `yaml:"elements"`
}

// #endregion element

// #region static
// Static is an in-memory geometry table, typically exported once from the
// detector description and shipped alongside the solver output.
type Static struct {
	byLabel map[uint64]Alignable
	byID    map[uint32]Attributes
}

// NewStatic indexes elements by base label and by id.
func NewStatic(elements []Element) (*Static, error) {
	s := &Static{
		byLabel: make(map[uint64]Alignable, len(elements)),
		byID:    make(map[uint32]Attributes, len(elements)),
	}
	for i, el := range elements {
		if el.Label%LabelStride != 0 {
			return nil, fmt.Errorf("element %d: label %d is not a multiple of %d", i, el.Label, LabelStride)
		}
		typ, err := ParseStructureType(el.Type)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if _, dup := s.byLabel[el.Label]; dup {
			return nil, fmt.Errorf("element %d: duplicate label %d", i, el.Label)
		}
		if prev, seen := s.byID[el.ID]; seen && prev != el.Attributes {
			return nil, fmt.Errorf("element %d: id %d listed with conflicting numbering", i, el.ID)
		}
		s.byLabel[el.Label] = Alignable{ID: el.ID, Type: typ}
		s.byID[el.ID] = el.Attributes
	}
	return s, nil
}

// LoadStatic reads a YAML geometry table.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geometry table: %w", err)
	}
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse geometry table: %w", err)
	}
	return NewStatic(tf.Elements)
}

// AlignableFromLabel strips the parameter digit and looks up the base label.
func (s *Static) AlignableFromLabel(_ context.Context, label uint64) (Alignable, bool, error) {
	a, ok := s.byLabel[label-label%LabelStride]
	return a, ok, nil
}

// Resolve returns the numbering recorded for id.
func (s *Static) Resolve(_ context.Context, id uint32) (Attributes, error) {
	attrs, ok := s.byID[id]
	if !ok {
		return Attributes{}, fmt.Errorf("resolve %d: %w", id, ErrUnknownElement)
	}
	return attrs, nil
}

// Len reports the number of labelled elements.
func (s *Static) Len() int {
	return len(s.byLabel)
}

// #endregion static
