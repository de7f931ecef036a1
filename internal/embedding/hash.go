package embedding

import (
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"
)

// ContentHash returns a stable cache key for text embedded by model
func ContentHash(model, text string) string {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
