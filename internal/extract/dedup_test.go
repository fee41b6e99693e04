package extract

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhdb/internal/models"
)

func TestDedup_FirstOccurrenceWins(t *testing.T) {
	in := []models.Resource{
		{ServiceName: "CAPS", Description: "v1"},
		{ServiceName: "caps", Description: "v2"},
	}

	got := Dedup(in)
	require.Len(t, got, 1)
	assert.Equal(t, "v1", got[0].Description)
}

func TestDedup_NormalizesWhitespaceAndCase(t *testing.T) {
	in := []models.Resource{
		{ServiceName: "  Counseling   Center "},
		{ServiceName: "counseling center", ContactEmail: "later@osu.edu"},
		{ServiceName: "Über Wellness"},
		{ServiceName: "über wellness"},
		{ServiceName: "Crisis Line"},
	}

	got := Dedup(in)
	require.Len(t, got, 3)
	assert.Equal(t, "  Counseling   Center ", got[0].ServiceName)
	assert.Empty(t, got[0].ContactEmail)
	assert.Equal(t, "Über Wellness", got[1].ServiceName)
	assert.Equal(t, "Crisis Line", got[2].ServiceName)
}

func TestDedup_DropsEmptyKeys(t *testing.T) {
	got := Dedup([]models.Resource{{ServiceName: ""}, {ServiceName: "   "}, {ServiceName: "CAPS"}})

	require.Len(t, got, 1)
	assert.Equal(t, "CAPS", got[0].ServiceName)
}

func TestDedup_Empty(t *testing.T) {
	assert.Empty(t, Dedup(nil))
}

func TestDedup_Properties(t *testing.T) {
	names := []string{"CAPS", "caps", " Caps ", "Wellness", "WELLNESS", "Crisis", "", "crisis "}
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		n := rng.Intn(12)
		in := make([]models.Resource, n)

		for i := range in {
			in[i] = models.Resource{
				ServiceName: names[rng.Intn(len(names))],
				Description: fmt.Sprintf("record-%d", i),
			}
		}

		out := Dedup(in)
		assert.LessOrEqual(t, len(out), len(in))

		keys := map[string]bool{}
		for _, r := range out {
			key := DedupKey(r.ServiceName)
			assert.False(t, keys[key], "duplicate key %q", key)
			keys[key] = true

			for _, orig := range in {
				if DedupKey(orig.ServiceName) == key {
					assert.Equal(t, orig.Description, r.Description)
					break
				}
			}
		}
	}
}
