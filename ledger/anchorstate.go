package ledger

import (
	"time"

	"github.com/forestrie/go-merklebatch/merkle"
	"github.com/fxamacker/cbor/v2"
)

// AnchorState is the payload signed for each registration.
type AnchorState struct {
	RemoteBatchID uint64 `cbor:"1,keyasint"`
	Root          []byte `cbor:"2,keyasint"`
	Owner         string `cbor:"3,keyasint"`
	MetadataURI   string `cbor:"4,keyasint"`
	// Timestamp is the unix time (milliseconds) read when the anchor was
	// signed.
	Timestamp int64 `cbor:"5,keyasint"`
}

// Record converts the state to the registry record. The root must be a full
// digest.
func (s AnchorState) Record() (Record, error) {
	root, err := merkle.DigestFromBytes(s.Root)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Root:        root,
		Owner:       s.Owner,
		MetadataURI: s.MetadataURI,
		Timestamp:   time.UnixMilli(s.Timestamp).UTC(),
	}, nil
}

// AnchorCodec encodes anchor states as deterministic CBOR, so the same state
// always produces the same signed bytes.
type AnchorCodec struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

func NewAnchorCodec() (AnchorCodec, error) {
	encMode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return AnchorCodec{}, err
	}
	decMode, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return AnchorCodec{}, err
	}
	return AnchorCodec{encMode: encMode, decMode: decMode}, nil
}

func (c AnchorCodec) MarshalCBOR(state AnchorState) ([]byte, error) {
	return c.encMode.Marshal(state)
}

func (c AnchorCodec) UnmarshalInto(data []byte, state *AnchorState) error {
	return c.decMode.Unmarshal(data, state)
}
