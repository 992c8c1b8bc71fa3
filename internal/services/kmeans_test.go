package services

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agri-route-service/internal/domain"
)

func seeded(seed uint64) *rand.Rand { return rand.New(rand.NewPCG(seed, seed)) }

func TestClusterCount(t *testing.T) {
	cases := []struct{ total, capacity, want int }{
		{0, 10000, 1},
		{15000, 10000, 2},
		{20000, 10000, 2},
		{20001, 10000, 3},
		{500, 0, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClusterCount(tc.total, tc.capacity), "%d/%d", tc.total, tc.capacity)
	}
}

func twoBlobs() []*domain.LocationGroup {
	return []*domain.LocationGroup{
		// around Pune
		locatedGroup("p1", 18.52, 73.85, 100),
		locatedGroup("p2", 18.55, 73.90, 100),
		locatedGroup("p3", 18.48, 73.80, 100),
		// around Nashik
		locatedGroup("n1", 20.00, 73.78, 100),
		locatedGroup("n2", 20.02, 73.80, 100),
		locatedGroup("n3", 19.98, 73.75, 100),
	}
}

func keysOf(c domain.Cluster) map[string]bool {
	out := map[string]bool{}
	for _, m := range c.Members {
		out[m.Key] = true
	}
	return out
}

func TestKMeansSeparatesBlobs(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		clusters := KMeans(twoBlobs(), 2, DefaultMaxIterations, seeded(seed))
		require.Len(t, clusters, 2, "seed %d", seed)

		for _, c := range clusters {
			keys := keysOf(c)
			require.Len(t, keys, 3, "seed %d", seed)
			pune := keys["p1"] && keys["p2"] && keys["p3"]
			nashik := keys["n1"] && keys["n2"] && keys["n3"]
			assert.True(t, pune || nashik, "seed %d mixed cluster %v", seed, keys)
		}
	}
}

func TestKMeansMembershipIsAPartition(t *testing.T) {
	groups := twoBlobs()
	groups = append(groups, &domain.LocationGroup{Key: "unlocated"})

	clusters := KMeans(groups, 4, DefaultMaxIterations, seeded(7))

	seen := map[string]int{}
	for _, c := range clusters {
		assert.NotEmpty(t, c.Members)
		for _, m := range c.Members {
			seen[m.Key]++
		}
	}
	assert.Len(t, seen, 6)
	for k, n := range seen {
		assert.Equal(t, 1, n, k)
	}
}

func TestKMeansClampsKAndIsDeterministic(t *testing.T) {
	groups := twoBlobs()[:2]
	clusters := KMeans(groups, 5, DefaultMaxIterations, seeded(3))
	assert.LessOrEqual(t, len(clusters), 2)

	a := KMeans(twoBlobs(), 3, DefaultMaxIterations, seeded(42))
	b := KMeans(twoBlobs(), 3, DefaultMaxIterations, seeded(42))

	summary := func(cs []domain.Cluster) [][]string {
		out := make([][]string, 0, len(cs))
		for _, c := range cs {
			keys := make([]string, 0, len(c.Members))
			for _, m := range c.Members {
				keys = append(keys, m.Key)
			}
			out = append(out, keys)
		}
		return out
	}
	if diff := cmp.Diff(summary(a), summary(b)); diff != "" {
		t.Fatalf("same seed gave different clusters (-a +b):\n%s", diff)
	}
}

func TestKMeansEmptyInput(t *testing.T) {
	assert.Nil(t, KMeans(nil, 3, DefaultMaxIterations, seeded(1)))
	assert.Nil(t, KMeans([]*domain.LocationGroup{{Key: "x"}}, 1, DefaultMaxIterations, seeded(1)))
}
