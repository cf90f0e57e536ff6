package covault

import (
	"fmt"

	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/ethereum/go-ethereum/crypto"
	"gitlab.com/yawning/secp256k1-voi/secec"
)

// PrivKeyToAddr derives the covault identifier for a hex-encoded secp256k1
// private key.
func PrivKeyToAddr(privHex string, prefix string) (string, error) {
	key, err := crypto.HexToECDSA(privHex)
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)
	return bech32.ConvertAndEncode(prefix, addr.Bytes())
}

// SignBytes signs data with a hex-encoded secp256k1 private key. The
// signature is the 65-byte [R || S || V] form over the keccak256 digest.
func SignBytes(data []byte, privHex string) ([]byte, error) {
	key, err := crypto.HexToECDSA(privHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	digest := crypto.Keccak256(data)
	return crypto.Sign(digest, key)
}

// VerifySignature recovers the signer of a 65-byte signature and checks it
// against the given covault identifier.
func VerifySignature(data []byte, signature []byte, id string) error {
	if len(signature) != 65 {
		return fmt.Errorf("invalid signature length: %d", len(signature))
	}

	digest := crypto.Keccak256(data)
	pubkey, err := crypto.SigToPub(digest, signature)
	if err != nil {
		return fmt.Errorf("signature recovery failed: %w", err)
	}

	if _, err := secec.NewPublicKey(crypto.FromECDSAPub(pubkey)); err != nil {
		return fmt.Errorf("recovered key is not on the curve: %w", err)
	}

	prefix, _, err := bech32.DecodeAndConvert(id)
	if err != nil {
		return fmt.Errorf("invalid key id: %w", err)
	}

	addr := crypto.PubkeyToAddress(*pubkey)
	derived, err := bech32.ConvertAndEncode(prefix, addr.Bytes())
	if err != nil {
		return err
	}
	if derived != id {
		return fmt.Errorf("signature does not match %s", id)
	}

	return nil
}
