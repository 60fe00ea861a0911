package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ditgc/internal/dag"
	"github.com/roach88/ditgc/internal/refs"
)

// Sentinel errors for reference operations.
var (
	// ErrRefNotFound means no reference with the given name exists.
	ErrRefNotFound = errors.New("reference not found")

	// ErrRefMoved means the reference exists but points somewhere else now.
	ErrRefMoved = errors.New("reference moved")
)

// SetRef creates or moves a reference. The name must follow the issue
// reference layout (see package refs). The target does not have to be stored;
// a dangling reference fails later when it is peeled.
func (s *Store) SetRef(ctx context.Context, name string, target dag.ID) error {
	if _, err := refs.Parse(name, target); err != nil {
		return fmt.Errorf("set ref: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refs (name, target) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET target = excluded.target
	`, name, target.String())
	if err != nil {
		return fmt.Errorf("set ref %s: %w", name, err)
	}
	return nil
}

// ReadRef retrieves a single reference by name.
// Returns an error wrapping ErrRefNotFound if it does not exist.
func (s *Store) ReadRef(ctx context.Context, name string) (refs.Reference, error) {
	var targetHex string
	err := s.db.QueryRowContext(ctx, `SELECT target FROM refs WHERE name = ?`, name).Scan(&targetHex)
	if errors.Is(err, sql.ErrNoRows) {
		return refs.Reference{}, fmt.Errorf("read ref %s: %w", name, ErrRefNotFound)
	}
	if err != nil {
		return refs.Reference{}, fmt.Errorf("read ref %s: %w", name, err)
	}
	return scanRef(name, targetHex)
}

// ListRefs returns every reference whose name starts with prefix, ordered by
// name (binary collation). An empty prefix lists the whole directory.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListRefs(ctx context.Context, prefix string) ([]refs.Reference, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, target FROM refs
		WHERE instr(name, ?) = 1
		ORDER BY name COLLATE BINARY ASC
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("query refs: %w", err)
	}
	defer rows.Close()

	result := []refs.Reference{}
	for rows.Next() {
		var name, targetHex string
		if err := rows.Scan(&name, &targetHex); err != nil {
			return nil, fmt.Errorf("scan ref: %w", err)
		}
		ref, err := scanRef(name, targetHex)
		if err != nil {
			return nil, err
		}
		result = append(result, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refs: %w", err)
	}

	return result, nil
}

// PeelToNode resolves a reference to the id of the node it points at.
// Returns a PEEL_FAILED dag.Error if the target is not a stored node.
func (s *Store) PeelToNode(ctx context.Context, ref refs.Reference) (dag.ID, error) {
	if ref.Target.IsZero() {
		return dag.ZeroID, dag.NewPeelError(ref.Name, ref.Target, errors.New("empty target"))
	}

	ok, err := s.HasNode(ctx, ref.Target)
	if err != nil {
		return dag.ZeroID, dag.NewPeelError(ref.Name, ref.Target, err)
	}
	if !ok {
		return dag.ZeroID, dag.NewPeelError(ref.Name, ref.Target, dag.NewLookupError(ref.Target, sql.ErrNoRows))
	}
	return ref.Target, nil
}

// DeleteRef removes a reference, but only while it still points at
// ref.Target. A reference that is gone returns ErrRefNotFound; one that
// another writer moved returns ErrRefMoved and is left in place.
func (s *Store) DeleteRef(ctx context.Context, ref refs.Reference) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM refs WHERE name = ? AND target = ?
	`, ref.Name, ref.Target.String())
	if err != nil {
		return fmt.Errorf("delete ref %s: %w", ref.Name, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete ref %s: rows affected: %w", ref.Name, err)
	}
	if n > 0 {
		return nil
	}

	if _, err := s.ReadRef(ctx, ref.Name); err != nil {
		return err
	}
	return fmt.Errorf("delete ref %s: %w", ref.Name, ErrRefMoved)
}

func scanRef(name, targetHex string) (refs.Reference, error) {
	target, err := dag.ParseID(targetHex)
	if err != nil {
		return refs.Reference{}, fmt.Errorf("ref %s: %w", name, err)
	}
	ref, err := refs.Parse(name, target)
	if err != nil {
		return refs.Reference{}, err
	}
	return ref, nil
}
