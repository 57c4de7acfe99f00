package crypto

import (
	"errors"
	"fmt"
	"sync"

	goethkzg "github.com/crate-crypto/go-eth-kzg"
)

// EIP-4844 sidecar sizes in bytes.
const (
	BytesPerBlob       = 131072
	BytesPerCommitment = 48
	BytesPerProof      = 48
)

var (
	ErrInvalidBlobSize       = errors.New("kzg: blob must be 131072 bytes")
	ErrInvalidCommitmentSize = errors.New("kzg: commitment must be 48 bytes")
	ErrInvalidProofSize      = errors.New("kzg: proof must be 48 bytes")
	ErrSidecarMismatch       = errors.New("kzg: blob, commitment and proof counts differ")
)

var (
	kzgCtxOnce sync.Once
	kzgCtx     *goethkzg.Context
	kzgCtxErr  error
)

// kzgContext initialises the go-eth-kzg context with the embedded Ethereum
// ceremony trusted setup. Loading the SRS takes a few seconds, so it is done
// once on first use rather than at package init.
func kzgContext() (*goethkzg.Context, error) {
	kzgCtxOnce.Do(func() {
		kzgCtx, kzgCtxErr = goethkzg.NewContext4096Secure()
		if kzgCtxErr != nil {
			kzgCtxErr = fmt.Errorf("kzg: failed to initialize context: %w", kzgCtxErr)
		}
	})
	return kzgCtx, kzgCtxErr
}

// VerifyBlobSidecar checks an EIP-4844 sidecar: equal counts of blobs,
// commitments and proofs, well-formed sizes, and a valid KZG proof for every
// blob against the Ethereum ceremony trusted setup.
func VerifyBlobSidecar(blobs, commitments, proofs [][]byte) error {
	if len(blobs) != len(commitments) || len(blobs) != len(proofs) {
		return ErrSidecarMismatch
	}
	if len(blobs) == 0 {
		return nil
	}
	ctx, err := kzgContext()
	if err != nil {
		return err
	}
	for i := range blobs {
		if len(blobs[i]) != BytesPerBlob {
			return ErrInvalidBlobSize
		}
		if len(commitments[i]) != BytesPerCommitment {
			return ErrInvalidCommitmentSize
		}
		if len(proofs[i]) != BytesPerProof {
			return ErrInvalidProofSize
		}
		var (
			blob       goethkzg.Blob
			commitment goethkzg.KZGCommitment
			proof      goethkzg.KZGProof
		)
		copy(blob[:], blobs[i])
		copy(commitment[:], commitments[i])
		copy(proof[:], proofs[i])
		if err := ctx.VerifyBlobKZGProof(&blob, commitment, proof); err != nil {
			return fmt.Errorf("kzg: blob %d proof invalid: %w", i, err)
		}
	}
	return nil
}
