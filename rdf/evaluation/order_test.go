package evaluation

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
	"github.com/ansell/openrdf-sesame-sub015/rdf/annotations"
	"github.com/ansell/openrdf-sesame-sub015/rdf/storage"
)

var exVal = rdf.IRI(ex + "val")

// valueStore holds n subjects whose ex:val values repeat every 7.
func valueStore(n int) *storage.MemoryStore {
	store := storage.NewMemoryStore()
	for i := 0; i < n; i++ {
		subj := rdf.IRI(fmt.Sprintf("%ss%03d", ex, (i*37)%n))
		store.Add(rdf.NewStatement(subj, exVal, rdf.NewInteger(int64((i*13)%7))))
	}
	return store
}

func valuePattern() *algebra.StatementPattern { return pattern("s", exVal, "v") }

// sortedByValue is the reference ordering: by ?v then by the whole
// solution.
func sortedByValue(sols []Solution, ascending bool) []Solution {
	out := append([]Solution(nil), sols...)
	sort.SliceStable(out, func(i, j int) bool {
		c := rdf.CompareValues(out[i].Get("v"), out[j].Get("v"))
		if !ascending {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return out[i].Compare(out[j]) < 0
	})
	return out
}

func window(sols []Solution, offset, limit int) []Solution {
	if offset > len(sols) {
		return nil
	}
	sols = sols[offset:]
	if limit >= 0 && limit < len(sols) {
		sols = sols[:limit]
	}
	return sols
}

func orderOptions(t *testing.T, spill bool) Options {
	if !spill {
		return Options{}
	}
	return Options{OrderSyncThreshold: 4, SpillDir: t.TempDir()}
}

func TestOrderLimitEqualsSortThenTruncate(t *testing.T) {
	for _, spill := range []bool{false, true} {
		for _, ascending := range []bool{true, false} {
			t.Run(fmt.Sprintf("spill=%v,asc=%v", spill, ascending), func(t *testing.T) {
				s := NewStrategy(valueStore(40), orderOptions(t, spill))
				all := evaluate(t, s, valuePattern())
				require.Len(t, all, 40)
				want := sortedByValue(all, ascending)

				order := algebra.NewOrder(valuePattern(), algebra.OrderElem{Expr: v("v"), Ascending: ascending})
				assert.Equal(t, strs(want), strs(evaluate(t, s, order)))

				for _, w := range []struct{ offset, limit int }{{0, 1}, {0, 5}, {3, 4}, {10, -1}, {38, 10}, {0, 40}, {0, 100}} {
					got := evaluate(t, s, algebra.NewSlice(order, int64(w.offset), int64(w.limit)))
					assert.Equal(t, strs(window(want, w.offset, w.limit)), strs(got), "offset=%d limit=%d", w.offset, w.limit)
				}
			})
		}
	}
}

func TestOrderDuplicates(t *testing.T) {
	for _, spill := range []bool{false, true} {
		t.Run(fmt.Sprintf("spill=%v", spill), func(t *testing.T) {
			s := NewStrategy(valueStore(30), orderOptions(t, spill))
			values := algebra.NewProjection(valuePattern(), "v")
			order := algebra.NewOrder(values, algebra.OrderElem{Expr: v("v"), Ascending: true})

			all := evaluate(t, s, order)
			require.Len(t, all, 30)
			assert.Equal(t, strs(sortedByValue(all, true)), strs(all))

			distinct := evaluate(t, s, algebra.NewDistinct(order))
			require.Len(t, distinct, 7)
			for i, sol := range distinct {
				assert.Equal(t, rdf.NewInteger(int64(i)), sol.Get("v"))
			}

			reduced := evaluate(t, s, algebra.NewReduced(order))
			assert.Equal(t, strs(distinct), strs(reduced))

			top := evaluate(t, s, algebra.NewSlice(algebra.NewDistinct(order), 2, 3))
			assert.Equal(t, strs(distinct[2:5]), strs(top))

			// Without distinct, duplicates survive the limit
			firstFive := evaluate(t, s, algebra.NewSlice(order, 0, 5))
			assert.Equal(t, strs(all[:5]), strs(firstFive))
		})
	}
}

func TestOrderUnboundSortsFirst(t *testing.T) {
	s := newTestStrategy(Options{})
	lj := algebra.NewLeftJoin(pattern("s", "p", "o"), pattern("o", exP, "z"), nil)
	order := algebra.NewOrder(lj, algebra.OrderElem{Expr: v("z"), Ascending: true})

	// (a p b) and (a p c) find nothing; (x q a) joins with both of a's
	// statements.
	got := evaluate(t, s, order)
	require.Len(t, got, 4)
	for _, sol := range got[:2] {
		assert.False(t, sol.Has("z"))
	}
	assert.Equal(t, exB, got[2].Get("z"))
	assert.Equal(t, exC, got[3].Get("z"))
}

func TestOrderMultipleKeys(t *testing.T) {
	s := newTestStrategy(Options{})
	order := algebra.NewOrder(pattern("s", "p", "o"),
		algebra.OrderElem{Expr: v("s"), Ascending: false},
		algebra.OrderElem{Expr: v("o"), Ascending: true})

	got := evaluate(t, s, order)
	assert.Equal(t, []string{
		sol("s", exX, "p", exQ, "o", exA).String(),
		sol("s", exA, "p", exP, "o", exB).String(),
		sol("s", exA, "p", exP, "o", exC).String(),
	}, strs(got))
}

func TestOrderSpillAnnotatesAndCleansUp(t *testing.T) {
	rec := &eventRecorder{}
	spillDir := t.TempDir()
	s := NewStrategy(valueStore(20), Options{
		OrderSyncThreshold: 3,
		SpillDir:           spillDir,
		Context:            NewContext(rec.handle),
	})

	order := algebra.NewOrder(valuePattern(), algebra.OrderElem{Expr: v("v"), Ascending: true})
	it, err := s.Evaluate(order, Solution{})
	require.NoError(t, err)
	require.True(t, it.Next())

	entries, err := os.ReadDir(spillDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "spill database should exist while iterating")

	require.NoError(t, it.Close())
	entries, err = os.ReadDir(spillDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	spilled := rec.named(annotations.OrderSpilled)
	require.Len(t, spilled, 1)
	assert.Equal(t, 4, spilled[0].Data["entries"])
}

func TestOrderStores(t *testing.T) {
	stores := map[string]func(t *testing.T) OrderStore{
		"memory": func(t *testing.T) OrderStore { return newMemoryOrderStore() },
		"spilling": func(t *testing.T) OrderStore {
			return newSpillingOrderStore(t.TempDir(), 2, &BaseContext{})
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			defer store.Close()

			add := func(key string, distinct bool) bool {
				added, err := store.Add([]byte(key), sol("k", rdf.NewString(key)), distinct)
				require.NoError(t, err)
				return added
			}

			assert.True(t, add("b", false))
			assert.True(t, add("a", false))
			assert.True(t, add("c", false))
			assert.True(t, add("b", false))
			assert.False(t, add("a", true))
			assert.Equal(t, 4, store.Len())

			last, ok, err := store.LastKey()
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "c", string(last))

			require.NoError(t, store.RemoveLast())
			last, _, err = store.LastKey()
			require.NoError(t, err)
			assert.Equal(t, "b", string(last))

			// Drops one of the two occurrences of b
			require.NoError(t, store.RemoveLast())
			assert.Equal(t, 2, store.Len())

			it, err := store.Iterate()
			require.NoError(t, err)
			got, err := Collect(it)
			require.NoError(t, err)
			assert.Equal(t, []string{
				sol("k", rdf.NewString("a")).String(),
				sol("k", rdf.NewString("b")).String(),
			}, strs(got))
		})
	}
}

func TestSpillingOrderStoreSpills(t *testing.T) {
	store := newSpillingOrderStore(t.TempDir(), 2, &BaseContext{})
	defer store.Close()

	for _, k := range []string{"x", "y"} {
		_, err := store.Add([]byte(k), sol("k", rdf.NewString(k)), false)
		require.NoError(t, err)
	}
	assert.False(t, store.Spilled())

	_, err := store.Add([]byte("z"), sol("k", rdf.NewString("z")), false)
	require.NoError(t, err)
	assert.True(t, store.Spilled())
	assert.Equal(t, 3, store.Len())
}

func TestOrderSpillsLargeLiterals(t *testing.T) {
	// Ten 70KB literals that only differ in their last characters, several
	// of them twice.
	prefix := strings.Repeat("x", 70000)
	rows := make([]map[string]rdf.Value, 0, 14)
	for i := 0; i < 10; i++ {
		rows = append(rows, map[string]rdf.Value{"v": rdf.NewString(fmt.Sprintf("%s%02d", prefix, (i*7)%10))})
	}
	rows = append(rows, rows[:4]...)
	values := algebra.NewBindingSetAssignment([]string{"v"}, rows...)

	for _, ascending := range []bool{true, false} {
		t.Run(fmt.Sprintf("asc=%v", ascending), func(t *testing.T) {
			memory := NewStrategy(storage.NewMemoryStore(), Options{})
			spilling := NewStrategy(storage.NewMemoryStore(), Options{OrderSyncThreshold: 2, SpillDir: t.TempDir()})
			order := algebra.NewOrder(values, algebra.OrderElem{Expr: v("v"), Ascending: ascending})

			want := evaluate(t, memory, order)
			require.Len(t, want, 14)
			assert.Equal(t, strs(sortedByValue(want, ascending)), strs(want))
			assert.Equal(t, strs(want), strs(evaluate(t, spilling, order)))

			distinct := evaluate(t, spilling, algebra.NewDistinct(order))
			assert.Equal(t, strs(evaluate(t, memory, algebra.NewDistinct(order))), strs(distinct))
			assert.Len(t, distinct, 10)

			top := evaluate(t, spilling, algebra.NewSlice(order, 0, 5))
			assert.Equal(t, strs(want[:5]), strs(top))
		})
	}
}

func TestSpillingOrderStoreLongKeys(t *testing.T) {
	store := newSpillingOrderStore(t.TempDir(), 1, &BaseContext{})
	defer store.Close()

	long := strings.Repeat("k", maxSpillKeySize)
	keys := []string{long + "b", long, long + "a", "a", long + "b", "z"}
	for _, k := range keys {
		_, err := store.Add([]byte(k), sol("k", rdf.NewString(k)), false)
		require.NoError(t, err)
	}
	require.True(t, store.Spilled())
	added, err := store.Add([]byte(long+"a"), sol("k", rdf.NewString(long+"a")), true)
	require.NoError(t, err)
	assert.False(t, added)

	require.NoError(t, store.RemoveLast())
	last, ok, err := store.LastKey()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, long+"b", string(last))

	// Drops one of the two occurrences of long+"b"
	require.NoError(t, store.RemoveLast())
	assert.Equal(t, 4, store.Len())

	it, err := store.Iterate()
	require.NoError(t, err)
	got, err := Collect(it)
	require.NoError(t, err)
	assert.Equal(t, []string{
		sol("k", rdf.NewString("a")).String(),
		sol("k", rdf.NewString(long)).String(),
		sol("k", rdf.NewString(long+"a")).String(),
		sol("k", rdf.NewString(long+"b")).String(),
	}, strs(got))
}
