package policy

import (
	"encoding/base64"
	"errors"
	"sync"
	"testing"
)

type failingNonceSource struct{}

func (failingNonceSource) Nonce() (string, error) {
	return "", errors.New("entropy exhausted")
}

func TestCryptoNonceSourceUniqueness(t *testing.T) {
	src := CryptoNonceSource{}

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		nonce, err := src.Nonce()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, dup := seen[nonce]; dup {
			t.Fatalf("duplicate nonce after %d draws", i)
		}
		seen[nonce] = struct{}{}
	}
}

func TestCryptoNonceSourceEncoding(t *testing.T) {
	nonce, err := CryptoNonceSource{}.Nonce()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil {
		t.Fatalf("nonce is not valid base64: %v", err)
	}
	if len(raw) != nonceBytes {
		t.Errorf("expected %d bytes of entropy, got %d", nonceBytes, len(raw))
	}
}

func TestCryptoNonceSourceConcurrent(t *testing.T) {
	src := CryptoNonceSource{}

	const workers = 16
	const perWorker = 100

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				nonce, err := src.Nonce()
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				mu.Lock()
				if _, dup := seen[nonce]; dup {
					t.Errorf("duplicate nonce under concurrency")
				}
				seen[nonce] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}
