package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath          string        `json:"db_path"`
	DBSizeBytes     int64         `json:"db_size_bytes"`
	TotalExecutions int           `json:"total_executions"`
	ByStatus        map[string]int `json:"by_status"`
	Contexts        int           `json:"contexts"`
	Modules         []ModuleStats `json:"modules"`
}

// ModuleStats holds per-module counts.
type ModuleStats struct {
	ModuleID string `json:"module_id"`
	Count    int    `json:"count"`
	Failed   int    `json:"failed"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath, ByStatus: map[string]int{}}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM executions`).Scan(&st.TotalExecutions)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_contexts`).Scan(&st.Contexts)

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM executions GROUP BY status`)
	if err != nil {
		return st, err
	}
	for rows.Next() {
		var status string
		var n int
		rows.Scan(&status, &n)
		st.ByStatus[status] = n
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT module_id, COUNT(*) as cnt,
		       SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END) as failed
		FROM executions GROUP BY module_id ORDER BY cnt DESC`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var m ModuleStats
		rows.Scan(&m.ModuleID, &m.Count, &m.Failed)
		st.Modules = append(st.Modules, m)
	}

	return st, nil
}
