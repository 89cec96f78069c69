package scaler

import (
	"sort"

	"github.com/xmackex/aurorascaler/helper"
	"github.com/xmackex/aurorascaler/logging"
	"github.com/xmackex/aurorascaler/scaler/structs"
)

// SelectPlacements builds the full ordered list of placement candidates for
// a scale-up attempt. The preferred shape is always tried before the
// fallback shapes; duplicate shapes are removed while preserving priority
// order. Zones are visited in ascending order of their current reader count
// so new readers spread across zones, with ties broken by the original zone
// list order to keep the output deterministic for a given snapshot.
//
// Under InstancePriority the candidate list exhausts every zone for each
// shape before advancing to the next shape; under AZPriority it exhausts
// every shape within each zone before advancing to the next zone. Callers
// consume the list lazily and stop at the first successful placement.
func SelectPlacements(preferred string, fallbacks, zones []string,
	zoneCounts map[string]int, strategy structs.FallbackStrategy) []structs.PlacementCandidate {

	shapes := helper.DedupStrings(append([]string{preferred}, fallbacks...))
	orderedZones := orderZonesByReaderCount(zones, zoneCounts)

	candidates := make([]structs.PlacementCandidate, 0, len(shapes)*len(orderedZones))

	switch strategy {
	case structs.AZPriority:
		for _, zone := range orderedZones {
			for _, shape := range shapes {
				candidates = append(candidates, structs.PlacementCandidate{
					Shape: shape,
					Zone:  zone,
					Rank:  len(candidates),
				})
			}
		}
	default:
		for _, shape := range shapes {
			for _, zone := range orderedZones {
				candidates = append(candidates, structs.PlacementCandidate{
					Shape: shape,
					Zone:  zone,
					Rank:  len(candidates),
				})
			}
		}
	}

	logging.Debug("core/placement: built %v placement candidates from %v "+
		"shapes and %v zones using the %v strategy", len(candidates),
		len(shapes), len(orderedZones), strategy)

	return candidates
}

// orderZonesByReaderCount sorts zones ascending by their current reader
// count. The sort is stable so zones with equal counts keep their input
// order rather than being arbitrarily reshuffled.
func orderZonesByReaderCount(zones []string, counts map[string]int) []string {
	ordered := make([]string, len(zones))
	copy(ordered, zones)

	sort.SliceStable(ordered, func(i, j int) bool {
		return counts[ordered[i]] < counts[ordered[j]]
	})

	return ordered
}
