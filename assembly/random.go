// SPDX-License-Identifier: MIT

package assembly

import (
	"fmt"
	"math/rand/v2"

	"github.com/katalvlaran/sparsegraph/sparse"
)

// maxDraws bounds the rejection loop for one node id; afterwards the
// distribution mean, clamped into range, is used.
const maxDraws = 64

// RandomConfig describes a synthetic mesh.
type RandomConfig struct {
	// Elements is the number of elements.
	Elements int `yaml:"elements"`
	// NodesPerElement is the number of nodes each element couples.
	NodesPerElement int `yaml:"nodes_per_element"`
	// BlockSize is the number of DOFs per node.
	BlockSize int `yaml:"block_size"`
	// Nodes is the number of mesh nodes; graph size is Nodes·BlockSize.
	Nodes int `yaml:"nodes"`
	// StdDev is the spread of node ids around each element's center.
	StdDev float64 `yaml:"stddev"`
	// Seed offsets every per-element generator.
	Seed uint64 `yaml:"seed"`
}

// DefaultRandomConfig mirrors the classic benchmark shape at 1/1000 scale.
func DefaultRandomConfig() RandomConfig {
	return RandomConfig{
		Elements:        1000,
		NodesPerElement: 4,
		BlockSize:       4,
		Nodes:           1000 / 6,
		StdDev:          100,
	}
}

// Validate reports the first unusable field.
func (c RandomConfig) Validate() error {
	switch {
	case c.Elements < 0:
		return fmt.Errorf("%w: elements must be non-negative (%d)", ErrBadConfig, c.Elements)
	case c.NodesPerElement < 1:
		return fmt.Errorf("%w: nodes per element must be positive (%d)", ErrBadConfig, c.NodesPerElement)
	case c.BlockSize < 1:
		return fmt.Errorf("%w: block size must be positive (%d)", ErrBadConfig, c.BlockSize)
	case c.Nodes < 3:
		return fmt.Errorf("%w: need at least 3 nodes (%d)", ErrBadConfig, c.Nodes)
	case !(c.StdDev > 0):
		return fmt.Errorf("%w: stddev must be positive (%v)", ErrBadConfig, c.StdDev)
	}
	return nil
}

// Size is the row count a ContiguousGraph needs for this mesh.
func (c RandomConfig) Size() int { return c.Nodes * c.BlockSize }

// Random generates cfg.Elements connectivities of NodesPerElement·BlockSize
// equation ids each.
//
// Element i draws node ids n from N(Nodes/Elements·i, StdDev), truncated
// toward zero and accepted when 0 < n < Nodes-1; node n expands to the
// block n·BlockSize … n·BlockSize+BlockSize-1. Each element has its own
// generator seeded with (Seed, i), so the result is fully deterministic.
func Random(cfg RandomConfig) ([]Connectivity, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	out := make([]Connectivity, cfg.Elements)
	for i := range out {
		out[i] = randomElement(cfg, i)
	}
	return out, nil
}

func randomElement(cfg RandomConfig, i int) Connectivity {
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i)))
	mean := float64(cfg.Nodes) / float64(max(cfg.Elements, 1)) * float64(i)
	hi := int64(cfg.Nodes - 1)

	conn := make(Connectivity, cfg.NodesPerElement*cfg.BlockSize)
	for j := 0; j < cfg.NodesPerElement; j++ {
		node := int64(-1)
		for draw := 0; draw < maxDraws; draw++ {
			if n := int64(rng.NormFloat64()*cfg.StdDev + mean); n > 0 && n < hi {
				node = n
				break
			}
		}
		if node < 0 {
			node = min(max(int64(mean), 1), hi-1)
		}
		eq := sparse.Index(node) * sparse.Index(cfg.BlockSize)
		for k := 0; k < cfg.BlockSize; k++ {
			conn[j*cfg.BlockSize+k] = eq + sparse.Index(k)
		}
	}
	return conn
}
