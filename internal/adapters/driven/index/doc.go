// Package index holds helpers shared by the vector index back ends in its
// subpackages: similarity scoring for the back ends that search in process
// and a ranked top-k selection.
package index
