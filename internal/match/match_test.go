package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Bennylavaa/RealmPortal/internal/domain"
)

func TestReplaceWholeWord(t *testing.T) {
	r := New([]domain.Pair{{Old: "Stormrage", New: "Area-52"}})

	tests := []struct {
		name  string
		input string
		want  string
		count int
	}{
		{name: "standalone", input: "realm=Stormrage", want: "realm=Area-52", count: 1},
		{name: "suffix attached", input: "realm=StormrageEU", want: "realm=StormrageEU"},
		{name: "prefix attached", input: "realm=OldStormrage", want: "realm=OldStormrage"},
		{name: "underscore attached", input: "Stormrage_Backup", want: "Stormrage_Backup"},
		{name: "digit attached", input: "Stormrage2", want: "Stormrage2"},
		{name: "hyphen is a boundary", input: "Thrall-Stormrage", want: "Thrall-Area-52", count: 1},
		{name: "lua string", input: `["Thrall - Stormrage"] = {}`, want: `["Thrall - Area-52"] = {}`, count: 1},
		{name: "multiple", input: "Stormrage Stormrage", want: "Area-52 Area-52", count: 2},
		{name: "case sensitive", input: "stormrage STORMRAGE", want: "stormrage STORMRAGE"},
		{name: "unicode letter neighbour", input: "éStormrage", want: "éStormrage"},
		{name: "empty text", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := r.Replace(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.count, n)
			assert.Equal(t, tt.count, r.Count(tt.input))
		})
	}
}

func TestReplaceDoesNotChain(t *testing.T) {
	r := New([]domain.Pair{
		{Old: "Alpha", New: "Beta"},
		{Old: "Beta", New: "Gamma"},
	})

	got, n := r.Replace("Alpha Beta")
	assert.Equal(t, "Beta Gamma", got)
	assert.Equal(t, 2, n)
}

func TestReplaceEarlierPairWinsOverlap(t *testing.T) {
	r := New([]domain.Pair{
		{Old: "Twisting Nether", New: "Argent Dawn"},
		{Old: "Nether", New: "Void"},
	})

	got, _ := r.Replace("Twisting Nether and Nether")
	assert.Equal(t, "Argent Dawn and Void", got)
}

func TestNewDropsNoOpPairs(t *testing.T) {
	r := New([]domain.Pair{
		{Old: "Same", New: "Same"},
		{Old: "", New: "Thing"},
		{Old: "Thing", New: ""},
	})
	assert.True(t, r.Empty())

	input := "Same Thing"
	got, n := r.Replace(input)
	assert.Equal(t, input, got)
	assert.Zero(t, n)
}

func TestReplaceSegment(t *testing.T) {
	r := New([]domain.Pair{{Old: "MyWarrior", New: "MyPaladin"}})

	got, n := r.Replace("MyWarrior")
	assert.Equal(t, "MyPaladin", got)
	assert.Equal(t, 1, n)

	got, n = r.Replace("MyWarriorAlt")
	assert.Equal(t, "MyWarriorAlt", got)
	assert.Zero(t, n)
}

func TestReplaceRoundTrip(t *testing.T) {
	forward := New([]domain.Pair{{Old: "Stormrage", New: "Area-52"}})
	back := New([]domain.Pair{{Old: "Area-52", New: "Stormrage"}})

	input := "realm=Stormrage\r\nalt=StormrageEU\n"
	migrated, _ := forward.Replace(input)
	restored, _ := back.Replace(migrated)
	assert.Equal(t, input, restored)
}
