package crypto

import (
	"errors"
	"testing"
)

func TestVerifyBlobSidecar_Empty(t *testing.T) {
	if err := VerifyBlobSidecar(nil, nil, nil); err != nil {
		t.Fatalf("empty sidecar should verify, got %v", err)
	}
}

func TestVerifyBlobSidecar_CountMismatch(t *testing.T) {
	err := VerifyBlobSidecar([][]byte{make([]byte, BytesPerBlob)}, nil, nil)
	if !errors.Is(err, ErrSidecarMismatch) {
		t.Fatalf("expected count mismatch, got %v", err)
	}
}
