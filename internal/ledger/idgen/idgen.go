// Package idgen derives ledger record identifiers.
//
// An identifier is a SHA-256 digest over the submitted business fields, the
// submission time and a per-generator sequence number. Given the same inputs
// and sequence number the digest is reproducible; the sequence number keeps two
// identical submissions within the same nanosecond apart.
package idgen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/text/unicode/norm"

	"credentia/internal/ledger/models"
)

// digestBytes is how much of the SHA-256 sum ends up in the identifier.
const digestBytes = 20

// Generator hands out record identifiers. It is safe for concurrent use.
type Generator struct {
	seq atomic.Uint64
}

// New creates a generator whose first identifier uses sequence number 1.
func New() *Generator {
	return &Generator{}
}

// NewAt creates a generator that resumes after the given sequence number.
func NewAt(start uint64) *Generator {
	g := &Generator{}
	g.seq.Store(start)
	return g
}

// Generate returns the identifier for a submission and advances the sequence.
func (g *Generator) Generate(studentName, studentID, courseName string, submittedAt time.Time) models.RecordID {
	return Digest(studentName, studentID, courseName, submittedAt, g.seq.Add(1))
}

// Sequence returns the last sequence number handed out.
func (g *Generator) Sequence() uint64 {
	return g.seq.Load()
}

// Digest is the pure identifier function. Fields are trimmed and NFC-normalized
// and written length-prefixed so that shifting characters between fields
// changes the digest.
func Digest(studentName, studentID, courseName string, submittedAt time.Time, seq uint64) models.RecordID {
	h := sha256.New()
	for _, field := range []string{studentName, studentID, courseName} {
		v := normalize(field)
		fmt.Fprintf(h, "%d:%s|", len(v), v)
	}
	fmt.Fprintf(h, "%d|%d", submittedAt.UnixNano(), seq)
	sum := h.Sum(nil)
	return models.RecordID("0x" + hex.EncodeToString(sum[:digestBytes]))
}

func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
