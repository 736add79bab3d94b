package database

import "assetcatalog/internal/constants"

// RowsPerStmt returns how many rows of colsPerRow bind parameters each can
// fit in a single statement without exceeding constants.MaxBindParams.
// SQLite's own parameter ceiling sits well above what this catalog needs,
// but it still enforces a conservative per-statement cap so a single bulk
// insert never builds an unreasonably large SQL string.
func RowsPerStmt(colsPerRow int) int {
	if colsPerRow <= 0 {
		colsPerRow = 1
	}
	n := constants.MaxBindParams / colsPerRow
	if n < 1 {
		n = 1
	}
	return n
}

// ChunkStrings splits ids into slices no longer than size, preserving order.
// Used to keep IN (...) clauses and bulk inserts under the bind-parameter
// ceiling.
func ChunkStrings(ids []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var chunks [][]string
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[i:end])
	}
	return chunks
}
