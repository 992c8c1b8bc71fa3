package services

import (
	"math"
	"math/rand/v2"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/geo"
)

const (
	DefaultMaxIterations = 100
	// Convergence threshold on centroid movement, in degrees.
	centroidEpsilon = 1e-4
)

// ClusterCount returns how many vehicles the demand needs at minimum.
func ClusterCount(totalPlants, capacity int) int {
	if capacity <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(float64(totalPlants)/float64(capacity))))
}

// KMeans partitions located groups into at most k spatial clusters.
//
// Initial centroids are k distinct groups drawn by shuffling with rng, so results
// are reproducible for a fixed seed. Groups without coordinates are ignored.
// Clusters that end up empty are dropped, so fewer than k may be returned.
func KMeans(groups []*domain.LocationGroup, k, maxIterations int, rng *rand.Rand) []domain.Cluster {
	located := make([]*domain.LocationGroup, 0, len(groups))
	for _, g := range groups {
		if g.Coords != nil {
			located = append(located, g)
		}
	}
	if len(located) == 0 {
		return nil
	}
	k = min(max(k, 1), len(located))
	if maxIterations < 1 {
		maxIterations = DefaultMaxIterations
	}

	perm := rng.Perm(len(located))
	centroids := make([]domain.Coordinates, k)
	for i := range k {
		centroids[i] = *located[perm[i]].Coords
	}

	assign := make([]int, len(located))
	for iter := 0; iter < maxIterations; iter++ {
		for i, g := range located {
			assign[i] = nearestCentroid(*g.Coords, centroids)
		}

		moved := false
		for c := range centroids {
			members := make([]domain.Coordinates, 0)
			for i, g := range located {
				if assign[i] == c {
					members = append(members, *g.Coords)
				}
			}
			if len(members) == 0 {
				continue
			}
			next := geo.Centroid(members)
			if math.Abs(next.Lat-centroids[c].Lat) > centroidEpsilon || math.Abs(next.Lon-centroids[c].Lon) > centroidEpsilon {
				moved = true
			}
			centroids[c] = next
		}
		if !moved {
			break
		}
	}

	// Final assignment against the settled centroids.
	for i, g := range located {
		assign[i] = nearestCentroid(*g.Coords, centroids)
	}

	clusters := make([]domain.Cluster, 0, k)
	for c := range centroids {
		cl := domain.Cluster{Centroid: centroids[c]}
		for i, g := range located {
			if assign[i] == c {
				cl.Members = append(cl.Members, g)
			}
		}
		if len(cl.Members) > 0 {
			clusters = append(clusters, cl)
		}
	}
	return clusters
}

// nearestCentroid breaks distance ties toward the lower index.
func nearestCentroid(p domain.Coordinates, centroids []domain.Coordinates) int {
	best, bestDist := 0, math.Inf(1)
	for i, c := range centroids {
		if d := geo.DistanceKm(p, c); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
