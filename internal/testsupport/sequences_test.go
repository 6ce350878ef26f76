package testsupport

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextSequence_Increments(t *testing.T) {
	seq1 := NextSequence()
	seq2 := NextSequence()
	seq3 := NextSequence()

	assert.Greater(t, seq2, seq1, "Sequence should increment")
	assert.Greater(t, seq3, seq2, "Sequence should increment")
	assert.Equal(t, seq1+1, seq2, "Should increment by 1")
	assert.Equal(t, seq2+1, seq3, "Should increment by 1")
}

func TestUniqueName_GeneratesUnique(t *testing.T) {
	name1 := UniqueName("test_cohort")
	name2 := UniqueName("test_cohort")
	name3 := UniqueName("test_cohort")

	assert.NotEqual(t, name1, name2, "Names should be unique")
	assert.NotEqual(t, name2, name3, "Names should be unique")
	assert.NotEqual(t, name1, name3, "Names should be unique")
	assert.Contains(t, name1, "test_cohort_", "Should contain prefix")
}

func TestUniqueString_GeneratesUUID(t *testing.T) {
	str1 := UniqueString()
	str2 := UniqueString()

	assert.NotEqual(t, str1, str2, "Should generate unique strings")
	assert.Len(t, str1, 36, "Should be valid UUID length")
	assert.Len(t, str2, 36, "Should be valid UUID length")
}

func TestUniqueSubjectID_GeneratesUnique(t *testing.T) {
	id1 := UniqueSubjectID()
	id2 := UniqueSubjectID()

	assert.NotEqual(t, id1, id2, "Subject IDs should be unique")
	assert.Contains(t, id1, "P", "Should contain prefix")
}

func TestUniqueSessionID_GeneratesUnique(t *testing.T) {
	sid1 := UniqueSessionID()
	sid2 := UniqueSessionID()

	assert.NotEqual(t, sid1, sid2, "Session IDs should be unique")
	assert.Contains(t, sid1, "session_", "Should contain prefix")
}

func TestConcurrentSequenceGeneration(t *testing.T) {
	const goroutines = 100
	const iterations = 100

	seen := sync.Map{}
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				seq := NextSequence()
				_, loaded := seen.LoadOrStore(seq, true)
				assert.False(t, loaded, "Sequence %d should be unique", seq)
			}
		}()
	}

	wg.Wait()
}

func TestConcurrentUniqueNames(t *testing.T) {
	const goroutines = 50
	const iterations = 50

	seen := sync.Map{}
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				name := UniqueName("test")
				_, loaded := seen.LoadOrStore(name, true)
				assert.False(t, loaded, "Name %s should be unique", name)
			}
		}()
	}

	wg.Wait()
}
