package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// PostgresStore keeps documents as JSONB rows in the documents table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw []byte
	err := s.db.GetContext(ctx, &raw, `SELECT data FROM documents WHERE collection=$1 AND id=$2`, collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return unmarshalDocument(raw)
}

func (s *PostgresStore) Query(ctx context.Context, q Query) ([]Document, error) {
	query, args, err := buildSelect(q)
	if err != nil {
		return nil, err
	}
	var rows [][]byte
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(rows))
	for _, raw := range rows {
		doc, err := unmarshalDocument(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// Commit applies the batch inside one SQL transaction. Field-level updates lock
// the row so transforms run against the committed value.
func (s *PostgresStore) Commit(ctx context.Context, b *Batch) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, w := range b.Writes() {
		if err = applyWrite(ctx, tx, w); err != nil {
			return fmt.Errorf("%s %s/%s: %w", w.Kind, w.Collection, w.ID, err)
		}
	}
	return tx.Commit()
}

func applyWrite(ctx context.Context, tx *sqlx.Tx, w Write) error {
	switch w.Kind {
	case WriteCreate:
		raw, err := json.Marshal(w.Data)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3) ON CONFLICT (collection, id) DO NOTHING`, w.Collection, w.ID, raw)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrAlreadyExists
		}
		return nil
	case WriteSet:
		raw, err := json.Marshal(w.Data)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
            ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`, w.Collection, w.ID, raw)
		return err
	case WriteUpdate:
		doc, err := lockDocument(ctx, tx, w.Collection, w.ID)
		if err != nil {
			return err
		}
		next, err := applyUpdate(doc, w.Fields, w.Conditions)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE documents SET data=$3, updated_at=NOW() WHERE collection=$1 AND id=$2`, w.Collection, w.ID, raw)
		return err
	case WriteDelete:
		_, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection=$1 AND id=$2`, w.Collection, w.ID)
		return err
	case WriteDeleteExisting:
		doc, err := lockDocument(ctx, tx, w.Collection, w.ID)
		if err != nil {
			return err
		}
		for _, c := range w.Conditions {
			if err := c.check(doc); err != nil {
				return err
			}
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM documents WHERE collection=$1 AND id=$2`, w.Collection, w.ID)
		return err
	default:
		return fmt.Errorf("unsupported write kind %d", w.Kind)
	}
}

func lockDocument(ctx context.Context, tx *sqlx.Tx, collection, id string) (Document, error) {
	var raw []byte
	err := tx.GetContext(ctx, &raw, `SELECT data FROM documents WHERE collection=$1 AND id=$2 FOR UPDATE`, collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return unmarshalDocument(raw)
}

// buildSelect renders q as a parameterised SELECT over the documents table.
func buildSelect(q Query) (string, []any, error) {
	var sb strings.Builder
	args := []any{q.Collection}
	sb.WriteString(`SELECT data FROM documents WHERE collection=$1`)

	for _, f := range q.Filters {
		path, err := jsonPath(f.Field)
		if err != nil {
			return "", nil, err
		}
		switch f.Op {
		case OpEqual:
			raw, err := json.Marshal(f.Value)
			if err != nil {
				return "", nil, err
			}
			args = append(args, string(raw))
			fmt.Fprintf(&sb, ` AND data #> '%s' = $%d::jsonb`, path, len(args))
		case OpArrayContains:
			raw, err := json.Marshal([]any{f.Value})
			if err != nil {
				return "", nil, err
			}
			args = append(args, string(raw))
			fmt.Fprintf(&sb, ` AND data #> '%s' @> $%d::jsonb`, path, len(args))
		case OpIn:
			values, err := toStrings(normalize(f.Value))
			if err != nil {
				return "", nil, err
			}
			if len(values) == 0 {
				sb.WriteString(` AND FALSE`)
				continue
			}
			clauses := make([]string, 0, len(values))
			for _, v := range values {
				raw, _ := json.Marshal(v)
				args = append(args, string(raw))
				clauses = append(clauses, fmt.Sprintf(`data #> '%s' = $%d::jsonb`, path, len(args)))
			}
			sb.WriteString(` AND (` + strings.Join(clauses, ` OR `) + `)`)
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", f.Op)
		}
	}

	if q.OrderBy != "" {
		path, err := jsonPath(q.OrderBy)
		if err != nil {
			return "", nil, err
		}
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, ` ORDER BY data #> '%s' %s`, path, dir)
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	return sb.String(), args, nil
}

// jsonPath converts a dotted field into a Postgres text[] path literal.
func jsonPath(field string) (string, error) {
	if !fieldPattern.MatchString(field) {
		return "", fmt.Errorf("invalid field path %q", field)
	}
	return "{" + strings.ReplaceAll(field, ".", ",") + "}", nil
}

func unmarshalDocument(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
