package report

import (
	"fmt"
	"time"

	"neupages/internal/ports"
)

// SynapseStats aggregates pre/post synapse counts for one neuron type.
type SynapseStats struct {
	TotalPre  int64   `json:"total_pre"`
	TotalPost int64   `json:"total_post"`
	AvgPre    float64 `json:"avg_pre"`
	AvgPost   float64 `json:"avg_post"`
}

// PageDocument is the generated report for one neuron type, written as
// {neuron_type}.json under the output directory.
type PageDocument struct {
	NeuronType         string       `json:"neuron_type"`
	Dataset            string       `json:"dataset"`
	TotalCount         int64        `json:"total_count"`
	SynapseStats       SynapseStats `json:"synapse_stats"`
	SomaSidesAvailable []string     `json:"soma_sides_available"`
	GeneratedAt        time.Time    `json:"generated_at"`
}

// BuildPage derives a page document from a source summary.
func BuildPage(summary ports.NeuronSummary, dataset string, now time.Time) PageDocument {
	stats := SynapseStats{
		TotalPre:  summary.PreSynapses,
		TotalPost: summary.PostSynapses,
	}
	if summary.TotalCount > 0 {
		stats.AvgPre = float64(summary.PreSynapses) / float64(summary.TotalCount)
		stats.AvgPost = float64(summary.PostSynapses) / float64(summary.TotalCount)
	}

	sides := make([]string, 0, len(summary.SomaSides))
	for _, side := range summary.SomaSides {
		if side != "" {
			sides = append(sides, side)
		}
	}

	return PageDocument{
		NeuronType:         summary.Type,
		Dataset:            dataset,
		TotalCount:         summary.TotalCount,
		SynapseStats:       stats,
		SomaSidesAvailable: sides,
		GeneratedAt:        now.UTC(),
	}
}

// PageCacheKey is the cache key for a generated page. Every input that
// affects the result is part of the key.
func PageCacheKey(payload PagePayload) string {
	return fmt.Sprintf("page:v%d:%s:%s", payload.Version, payload.Dataset, payload.NeuronType)
}

// ROIHierarchyCacheKey is the cache key for the per-dataset ROI hierarchy.
func ROIHierarchyCacheKey(dataset string) string {
	return "roi-hierarchy:v1:" + dataset
}
