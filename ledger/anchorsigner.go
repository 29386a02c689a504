package ledger

import (
	"crypto/rand"
	"fmt"

	"github.com/veraison/go-cose"
)

// AnchorSigner produces COSE Sign1 messages over anchor states. The signed
// message is the registry's durable record: whoever holds the public key can
// check the root was registered by the key holder.
type AnchorSigner struct {
	codec AnchorCodec
}

func NewAnchorSigner(codec AnchorCodec) AnchorSigner {
	return AnchorSigner{codec: codec}
}

// Sign1 signs state and returns the CBOR encoded COSE Sign1 message.
func (s AnchorSigner) Sign1(coseSigner cose.Signer, keyIdentifier string, state AnchorState, external []byte) ([]byte, error) {
	payload, err := s.codec.MarshalCBOR(state)
	if err != nil {
		return nil, err
	}

	msg := cose.Sign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{
				cose.HeaderLabelAlgorithm: coseSigner.Algorithm(),
				cose.HeaderLabelKeyID:     []byte(keyIdentifier),
			},
		},
		Payload: payload,
	}
	if err = msg.Sign(rand.Reader, external, coseSigner); err != nil {
		return nil, err
	}
	return msg.MarshalCBOR()
}

// DecodeSignedAnchor decodes the message and its payload without checking the
// signature. Use VerifySignedAnchor before trusting the returned state.
func DecodeSignedAnchor(codec AnchorCodec, data []byte) (*cose.Sign1Message, AnchorState, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(data); err != nil {
		return nil, AnchorState{}, err
	}
	var state AnchorState
	if err := codec.UnmarshalInto(msg.Payload, &state); err != nil {
		return nil, AnchorState{}, err
	}
	return &msg, state, nil
}

func VerifySignedAnchor(verifier cose.Verifier, msg *cose.Sign1Message, external []byte) error {
	if err := msg.Verify(external, verifier); err != nil {
		return fmt.Errorf("%w: %w", ErrSealVerifyFailed, err)
	}
	return nil
}
