package state

import (
	"context"

	"github.com/danielpatrickdp/pclgate/internal/geometry"
)

type nopGeometry struct{}

func (nopGeometry) AlignableFromLabel(context.Context, uint64) (geometry.Alignable, bool, error) {
	return geometry.Alignable{}, false, nil
}

func (nopGeometry) Resolve(context.Context, uint32) (geometry.Attributes, error) {
	return geometry.Attributes{}, geometry.ErrUnknownElement
}
