package transcode

import (
	"fmt"

	"github.com/Faultbox/re-strands/pkg/geometry"
	"github.com/Faultbox/re-strands/pkg/rigging"
	"github.com/Faultbox/re-strands/pkg/strands"
)

// Rig builds a rigging file for an existing strands file from the roots of its
// HIGH LOD.
func Rig(strandsData []byte, mesh *geometry.Mesh) ([]byte, error) {
	f, err := strands.Parse(strandsData)
	if err != nil {
		return nil, err
	}
	roots, err := f.High.RootPositions()
	if err != nil {
		return nil, fmt.Errorf("high LOD roots: %w", err)
	}
	records, err := rigging.Build(roots, mesh)
	if err != nil {
		return nil, err
	}
	return rigging.Marshal(records)
}
