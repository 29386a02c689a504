package merkle

import (
	"encoding/json"
	"fmt"
)

// Direction records, for one proof step, where the sibling sits relative to
// the node being carried up, or that the node had no sibling at that level.
type Direction uint8

const (
	DirectionUnknown Direction = iota
	// SiblingLeft means the sibling is the left child: parent = H(sibling || node)
	SiblingLeft
	// SiblingRight means the sibling is the right child: parent = H(node || sibling)
	SiblingRight
	// Promoted means the node was unpaired and carried up unchanged.
	Promoted
)

func (d Direction) String() string {
	switch d {
	case SiblingLeft:
		return "left"
	case SiblingRight:
		return "right"
	case Promoted:
		return "promoted"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

func (d Direction) valid() bool {
	return d == SiblingLeft || d == SiblingRight || d == Promoted
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProofFormat, d)
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "left":
		*d = SiblingLeft
	case "right":
		*d = SiblingRight
	case "promoted":
		*d = Promoted
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidProofFormat, text)
	}
	return nil
}

// ProofStep is one level of an inclusion proof. Sibling is meaningful only
// when Direction is SiblingLeft or SiblingRight and is zero for promoted steps.
type ProofStep struct {
	Direction Direction
	Sibling   Digest
}

type proofStepJSON struct {
	Direction Direction `json:"direction"`
	Sibling   *Digest   `json:"sibling,omitempty"`
}

func (s ProofStep) MarshalJSON() ([]byte, error) {
	v := proofStepJSON{Direction: s.Direction}
	if s.Direction != Promoted {
		sibling := s.Sibling
		v.Sibling = &sibling
	}
	return json.Marshal(v)
}

func (s *ProofStep) UnmarshalJSON(data []byte) error {
	var v proofStepJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch {
	case v.Direction == Promoted && v.Sibling != nil:
		return fmt.Errorf("%w: promoted step with a sibling", ErrInvalidProofFormat)
	case v.Direction != Promoted && v.Sibling == nil:
		return fmt.Errorf("%w: %s step without a sibling", ErrInvalidProofFormat, v.Direction)
	}
	s.Direction = v.Direction
	s.Sibling = Digest{}
	if v.Sibling != nil {
		s.Sibling = *v.Sibling
	}
	return nil
}

// Proof is the inclusion proof for the leaf at LeafIndex in a tree of
// LeafCount leaves. Steps run from the leaf level up to just below the root.
type Proof struct {
	LeafIndex uint64      `json:"leaf_index"`
	LeafCount uint64      `json:"leaf_count"`
	Steps     []ProofStep `json:"steps"`
}

// PathDirections returns the shape of every proof for leaf index in a tree of
// leafCount leaves: one direction per level, leaf level first. The caller must
// ensure index < leafCount.
func PathDirections(index, leafCount uint64) []Direction {
	dirs := make([]Direction, 0, TreeHeight(leafCount))
	for width := leafCount; width > 1; width = width/2 + width%2 {
		switch {
		case index%2 == 1:
			dirs = append(dirs, SiblingLeft)
		case index+1 < width:
			dirs = append(dirs, SiblingRight)
		default:
			dirs = append(dirs, Promoted)
		}
		index /= 2
	}
	return dirs
}

// Proof returns the inclusion proof for leaf i.
func (t *Tree) Proof(i uint64) (Proof, error) {
	n := t.LeafCount()
	if i >= n {
		return Proof{}, fmt.Errorf("%w: index %d, leaf count %d", ErrIndexOutOfBounds, i, n)
	}

	dirs := PathDirections(i, n)
	proof := Proof{
		LeafIndex: i,
		LeafCount: n,
		Steps:     make([]ProofStep, len(dirs)),
	}

	idx := i
	for h, dir := range dirs {
		level := t.levels[h]
		proof.Steps[h].Direction = dir
		switch dir {
		case SiblingLeft:
			proof.Steps[h].Sibling = level[idx-1]
		case SiblingRight:
			proof.Steps[h].Sibling = level[idx+1]
		}
		idx /= 2
	}
	return proof, nil
}

// AuditPath returns just the sibling digests, leaf level first, skipping the
// promoted steps. This is the RFC 6962 form of the proof.
func (p Proof) AuditPath() [][]byte {
	var path [][]byte
	for _, s := range p.Steps {
		if s.Direction == Promoted {
			continue
		}
		path = append(path, s.Sibling.Bytes())
	}
	return path
}

// Validate checks the proof is structurally sound for its own leaf index and
// leaf count. It says nothing about whether the proof reproduces any root.
func (p Proof) Validate() error {
	if p.LeafCount == 0 {
		return fmt.Errorf("%w: leaf count is zero", ErrInvalidProofFormat)
	}
	if p.LeafIndex >= p.LeafCount {
		return fmt.Errorf("%w: leaf index %d not below leaf count %d", ErrInvalidProofFormat, p.LeafIndex, p.LeafCount)
	}
	want := PathDirections(p.LeafIndex, p.LeafCount)
	if len(p.Steps) != len(want) {
		return fmt.Errorf("%w: %d steps, expected %d", ErrInvalidProofFormat, len(p.Steps), len(want))
	}
	for i, s := range p.Steps {
		if !s.Direction.valid() {
			return fmt.Errorf("%w: step %d has %s", ErrInvalidProofFormat, i, s.Direction)
		}
		if s.Direction != want[i] {
			return fmt.Errorf("%w: step %d is %s, expected %s", ErrInvalidProofFormat, i, s.Direction, want[i])
		}
		if s.Direction == Promoted && !s.Sibling.IsZero() {
			return fmt.Errorf("%w: step %d is promoted but carries a sibling", ErrInvalidProofFormat, i)
		}
	}
	return nil
}
