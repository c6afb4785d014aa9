package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ExportedConfiguration is the manual export/import blob for one
// configuration. It is the only shape that ever leaves the session; live
// session state is never persisted.
type ExportedConfiguration struct {
	Name              string          `json:"name"`
	Timestamp         time.Time       `json:"timestamp"`
	CompatibilityHash string          `json:"compatibilityHash"`
	Options           SelectedOptions `json:"options"`
	ModelCode         string          `json:"modelCode"`
	ModelGUID         string          `json:"modelGuid"`
}

// CompatibilityHash computes a deterministic digest of the option tree's
// shape: the sorted "code:type" pairs of all options. It is a soft check on
// import, not a cryptographic guarantee.
func CompatibilityHash(def *UIDefinition) string {
	pairs := make([]string, 0, len(def.Options))
	for _, opt := range def.Options {
		pairs = append(pairs, fmt.Sprintf("%s:%s", opt.Code, opt.Type))
	}
	sort.Strings(pairs)
	sum := sha256.Sum256([]byte(strings.Join(pairs, ";")))
	return hex.EncodeToString(sum[:])
}
