// Package vec exposes an in-memory kNN index to SQL through the knn virtual
// table module. An index is bound under a name and attached to a table with
//
//	CREATE VIRTUAL TABLE song_knn USING knn(songs);
//	SELECT id, distance FROM song_knn WHERE id MATCH ? AND k = 5;
//
// The MATCH argument is a float32 BLOB, a JSON array or a comma-separated
// list. Rows come back nearest first; distance is the squared Euclidean
// distance. Without a k constraint DefaultK neighbours are returned.
package vec
