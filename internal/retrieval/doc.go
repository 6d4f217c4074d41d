// Package retrieval is the similarity index over ATT&CK records. It embeds
// record text, stores vectors in a vector.VectorStore, and translates between
// the typed attack.Metadata payload and the store's flat metadata map.
//
// Search results are ordered by ascending distance: lower is a closer match
// for every supported metric.
package retrieval
