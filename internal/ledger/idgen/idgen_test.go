package idgen_test

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credentia/internal/ledger/idgen"
	"credentia/internal/ledger/models"
)

var recordIDPattern = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

var submittedAt = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func TestDigest_Shape(t *testing.T) {
	id := idgen.Digest("Ann", "S1", "CS", submittedAt, 1)
	assert.Regexp(t, recordIDPattern, id.String())
}

func TestDigest_Reproducible(t *testing.T) {
	a := idgen.Digest("Ann", "S1", "CS", submittedAt, 7)
	b := idgen.Digest("Ann", "S1", "CS", submittedAt, 7)
	assert.Equal(t, a, b)
}

func TestDigest_InputsChangeOutput(t *testing.T) {
	base := idgen.Digest("Ann", "S1", "CS", submittedAt, 1)

	tests := []struct {
		name string
		id   models.RecordID
	}{
		{"name", idgen.Digest("Bob", "S1", "CS", submittedAt, 1)},
		{"student id", idgen.Digest("Ann", "S2", "CS", submittedAt, 1)},
		{"course", idgen.Digest("Ann", "S1", "Math", submittedAt, 1)},
		{"time", idgen.Digest("Ann", "S1", "CS", submittedAt.Add(time.Nanosecond), 1)},
		{"sequence", idgen.Digest("Ann", "S1", "CS", submittedAt, 2)},
		{"field boundary", idgen.Digest("AnnS", "1", "CS", submittedAt, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, tt.id)
		})
	}
}

func TestDigest_NormalizesFields(t *testing.T) {
	// "é" as a single code point vs "e" followed by a combining acute accent.
	composed := idgen.Digest("Ren\u00e9", "S1", "CS", submittedAt, 1)
	decomposed := idgen.Digest("  Rene\u0301 ", "S1", "CS", submittedAt, 1)
	assert.Equal(t, composed, decomposed)
}

func TestGenerator_AdvancesSequence(t *testing.T) {
	g := idgen.New()
	first := g.Generate("Ann", "S1", "CS", submittedAt)
	second := g.Generate("Ann", "S1", "CS", submittedAt)

	assert.NotEqual(t, first, second)
	assert.Equal(t, uint64(2), g.Sequence())
	assert.Equal(t, idgen.Digest("Ann", "S1", "CS", submittedAt, 1), first)
	assert.Equal(t, idgen.Digest("Ann", "S1", "CS", submittedAt, 2), second)
}

func TestGenerator_NewAtResumes(t *testing.T) {
	g := idgen.NewAt(41)
	id := g.Generate("Ann", "S1", "CS", submittedAt)
	assert.Equal(t, idgen.Digest("Ann", "S1", "CS", submittedAt, 42), id)
}

func TestGenerator_ConcurrentUnique(t *testing.T) {
	g := idgen.New()
	const n = 200

	var mu sync.Mutex
	seen := make(map[models.RecordID]struct{}, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.Generate("Ann", "S1", "CS", submittedAt)
			mu.Lock()
			seen[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, n)
	assert.Equal(t, uint64(n), g.Sequence())
}
