package filecache

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// DeriveKey computes the cache identity of a (content, name) pair. Content
// and name are digested independently and joined, so identical bytes under
// different names never collide and boundary-crafted inputs cannot alias a
// concatenated hash. The derivation carries no salt, so keys are stable
// across process restarts.
func DeriveKey(content []byte, name string) string {
	contentDigest := strconv.FormatUint(xxhash.Sum64(content), 16)
	nameDigest := strconv.FormatUint(xxhash.Sum64String(name), 16)
	return contentDigest + "_" + nameDigest
}
