package media

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcileNoChange(t *testing.T) {
	a := []string{"p1", "p2", "p3"}
	assert.Empty(t, Reconcile(a, a))
}

func TestReconcileAgainstEmpty(t *testing.T) {
	a := []string{"p1", "p2", "p3"}
	assert.Equal(t, a, Reconcile(a, nil))
	assert.Equal(t, a, Reconcile(a, []string{}))
	assert.Empty(t, Reconcile(nil, a))
	assert.Empty(t, Reconcile(nil, nil))
}

func TestReconcileNeverDeletesKeptPaths(t *testing.T) {
	cases := []struct {
		name string
		old  []string
		new  []string
		want []string
	}{
		{"one removed", []string{"a", "b", "c"}, []string{"a", "c"}, []string{"b"}},
		{"reordered", []string{"a", "b", "c"}, []string{"c", "a", "b"}, nil},
		{"duplicates in new", []string{"a", "b"}, []string{"b", "b"}, []string{"a"}},
		{"duplicates in old", []string{"a", "a", "b"}, []string{"b"}, []string{"a"}},
		{"additions ignored", []string{"a"}, []string{"a", "z"}, nil},
		{"empty entries", []string{"", "a", " "}, []string{"", "  "}, []string{"a"}},
		{"whitespace around kept path", []string{"a"}, []string{" a "}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Reconcile(tc.old, tc.new)
			assert.ElementsMatch(t, tc.want, got)
			for _, p := range got {
				assert.NotContains(t, tc.new, p)
			}
		})
	}
}

func TestReconcileOrderInsensitive(t *testing.T) {
	old := []string{"a", "b", "c", "d", "e"}
	keep := []string{"b", "d"}
	want := Reconcile(old, keep)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffledOld := append([]string(nil), old...)
		shuffledKeep := append([]string(nil), keep...)
		rng.Shuffle(len(shuffledOld), func(i, j int) { shuffledOld[i], shuffledOld[j] = shuffledOld[j], shuffledOld[i] })
		rng.Shuffle(len(shuffledKeep), func(i, j int) { shuffledKeep[i], shuffledKeep[j] = shuffledKeep[j], shuffledKeep[i] })
		assert.ElementsMatch(t, want, Reconcile(shuffledOld, shuffledKeep))
	}
}

func TestReconcileDoesNotMutateInputs(t *testing.T) {
	old := []string{"a", " b "}
	neu := []string{"a"}
	_ = Reconcile(old, neu)
	assert.Equal(t, []string{"a", " b "}, old)
	assert.Equal(t, []string{"a"}, neu)
}
