package db

import (
	"context"

	"roamexport/internal/apperr"
)

// scanNode scans a row into a Node. The row must have id, file, level, title in that order.
func scanNode(scanner interface{ Scan(dest ...any) error }) (Node, error) {
	var n Node
	err := scanner.Scan(&n.ID, &n.File, &n.Level, &n.Title)
	return n, err
}

// AllNodes returns every row of the nodes table in storage order.
func (d *DB) AllNodes(ctx context.Context) ([]Node, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT id, file, level, title FROM nodes`)
	if err != nil {
		return nil, &apperr.StoreLoadError{Path: d.Path, Op: "query", Err: err}
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, &apperr.StoreLoadError{Path: d.Path, Op: "scan", Err: err}
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperr.StoreLoadError{Path: d.Path, Op: "query", Err: err}
	}
	return nodes, nil
}
