package util

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// JsonHash fingerprints the JSON encoding of s
func JsonHash(s interface{}) string {
	bs, _ := json.Marshal(s)
	hash := sha256.Sum256(bs)
	return hex.EncodeToString(hash[:])
}

func CopyFloatMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func SortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
