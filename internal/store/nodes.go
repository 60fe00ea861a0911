package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ditgc/internal/dag"
)

// WriteNode stores a message with the given parents and returns the node.
//
// Node ids are content-addressed, so writing the same message with the same
// parents twice returns the existing node unchanged (including its Seq).
// Every parent must already be stored; a missing parent fails with a
// LOOKUP_FAILED dag.Error and nothing is written.
func (s *Store) WriteNode(ctx context.Context, message string, parents []dag.ID) (dag.Node, error) {
	id, err := dag.MessageID(message, parents)
	if err != nil {
		return dag.Node{}, fmt.Errorf("write node: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dag.Node{}, fmt.Errorf("write node: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	existing, err := resolveNode(ctx, tx, id)
	if err == nil {
		return existing, nil
	}
	if !dag.IsLookupError(err) {
		return dag.Node{}, fmt.Errorf("write node: %w", err)
	}

	for _, p := range parents {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE id = ?`, p.String()).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return dag.Node{}, fmt.Errorf("write node: parent: %w", dag.NewLookupError(p, err))
		}
		if err != nil {
			return dag.Node{}, fmt.Errorf("write node: check parent: %w", err)
		}
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM nodes`).Scan(&seq); err != nil {
		return dag.Node{}, fmt.Errorf("write node: next seq: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO nodes (id, message, seq) VALUES (?, ?, ?)
	`, id.String(), message, seq); err != nil {
		return dag.Node{}, fmt.Errorf("write node: insert: %w", err)
	}

	for i, p := range parents {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO node_parents (node_id, position, parent_id) VALUES (?, ?, ?)
		`, id.String(), i, p.String()); err != nil {
			return dag.Node{}, fmt.Errorf("write node: insert parent %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return dag.Node{}, fmt.Errorf("write node: commit: %w", err)
	}

	return dag.Node{
		ID:      id,
		Parents: append([]dag.ID(nil), parents...),
		Message: message,
		Seq:     seq,
	}, nil
}

// ResolveNode retrieves a node and its ordered parents.
// Returns a LOOKUP_FAILED dag.Error if the node is not stored.
func (s *Store) ResolveNode(ctx context.Context, id dag.ID) (dag.Node, error) {
	return resolveNode(ctx, s.db, id)
}

// HasNode reports whether a node is stored.
func (s *Store) HasNode(ctx context.Context, id dag.ID) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE id = ?`, id.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has node: %w", err)
	}
	return true, nil
}

// CountNodes returns the number of stored nodes.
func (s *Store) CountNodes(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return n, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func resolveNode(ctx context.Context, q querier, id dag.ID) (dag.Node, error) {
	node := dag.Node{ID: id}

	err := q.QueryRowContext(ctx, `
		SELECT message, seq FROM nodes WHERE id = ?
	`, id.String()).Scan(&node.Message, &node.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return dag.Node{}, dag.NewLookupError(id, err)
	}
	if err != nil {
		return dag.Node{}, fmt.Errorf("resolve node %s: %w", id.Short(), err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT parent_id FROM node_parents
		WHERE node_id = ?
		ORDER BY position ASC
	`, id.String())
	if err != nil {
		return dag.Node{}, fmt.Errorf("query parents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var parentHex string
		if err := rows.Scan(&parentHex); err != nil {
			return dag.Node{}, fmt.Errorf("scan parent: %w", err)
		}
		parent, err := dag.ParseID(parentHex)
		if err != nil {
			return dag.Node{}, fmt.Errorf("resolve node %s: %w", id.Short(), err)
		}
		node.Parents = append(node.Parents, parent)
	}

	if err := rows.Err(); err != nil {
		return dag.Node{}, fmt.Errorf("iterate parents: %w", err)
	}

	return node, nil
}
