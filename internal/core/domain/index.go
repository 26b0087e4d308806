package domain

import "strings"

// Metric is the distance metric an index is declared with.
type Metric string

// Supported metrics.
const (
	MetricCosine     Metric = "cosine"
	MetricEuclidean  Metric = "euclidean"
	MetricDotProduct Metric = "dotproduct"
)

// ParseMetric normalises a metric name. Unknown names return false.
func ParseMetric(s string) (Metric, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cosine", "":
		return MetricCosine, true
	case "euclidean", "euclid", "l2":
		return MetricEuclidean, true
	case "dotproduct", "dot", "ip":
		return MetricDotProduct, true
	default:
		return "", false
	}
}

// String returns the string representation.
func (m Metric) String() string {
	return string(m)
}

// IndexSpec describes an index to ensure.
type IndexSpec struct {
	Name      string
	Dimension int
	Metric    Metric

	// Cloud and Region form the serverless placement for providers that need one.
	Cloud  string
	Region string
}

// IndexDescription is an index's reported state.
type IndexDescription struct {
	Name      string
	Dimension int
	Metric    Metric
	Ready     bool

	// Host is the data-plane address, for providers that split control and data.
	Host string

	// State is the provider's raw status string.
	State string
}

// Compatible reports whether an existing index matches spec.
func (d IndexDescription) Compatible(spec IndexSpec) bool {
	return d.Dimension == spec.Dimension && d.Metric == spec.Metric
}
