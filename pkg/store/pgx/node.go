package pgx

import (
	"context"
	"errors"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/trellis-kg/trellis/pkg/common"
	"github.com/trellis-kg/trellis/pkg/logger"
	"github.com/trellis-kg/trellis/pkg/store"
)

const nodeColumns = `public_id, entity_text, type, label, source_document_id, properties, owner_id, created_at, updated_at`

func scanNode(row pgxv5.Row) (common.Node, error) {
	var n common.Node
	err := row.Scan(
		&n.ID,
		&n.EntityText,
		&n.Type,
		&n.Label,
		&n.DocumentID,
		&n.Properties,
		&n.Owner,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	return n, err
}

// GetOrCreateNode creates the node or returns the existing one with the same
// identity key. The single upsert statement is the atomic create-or-fetch
// primitive: a concurrent create of the same key resolves to the stored row,
// with the new properties merged in.
func (s *GraphDBStorage) GetOrCreateNode(ctx context.Context, params store.CreateNodeParams) (common.Node, error) {
	publicID, err := gonanoid.New()
	if err != nil {
		return common.Node{}, fmt.Errorf("failed to generate node id: %w", err)
	}

	props := params.Properties
	if props == nil {
		props = map[string]string{}
	}

	node, err := scanNode(s.conn.QueryRow(ctx, `
		INSERT INTO nodes (public_id, entity_text, entity_key, type, label, source_document_id, properties, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (owner_id, entity_key, type)
		DO UPDATE SET
			properties = nodes.properties || EXCLUDED.properties,
			updated_at = now()
		RETURNING `+nodeColumns,
		publicID,
		params.EntityText,
		store.NormalizeEntityText(params.EntityText),
		params.Type,
		params.Label,
		params.DocumentID,
		props,
		params.Owner,
	))
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			// Lost a concurrent race despite the upsert; treat as "already
			// exists" and re-fetch.
			logger.Debug("[Store] Node upsert raced, re-fetching", "entity", params.EntityText)
			return s.getNodeByKey(ctx, params.Owner, params.EntityText, params.Type)
		}
		return common.Node{}, fmt.Errorf("failed to upsert node: %w", err)
	}
	return node, nil
}

func (s *GraphDBStorage) getNodeByKey(ctx context.Context, owner, entityText, typ string) (common.Node, error) {
	node, err := scanNode(s.conn.QueryRow(ctx, `
		SELECT `+nodeColumns+`
		FROM nodes
		WHERE owner_id = $1 AND entity_key = $2 AND type = $3`,
		owner,
		store.NormalizeEntityText(entityText),
		typ,
	))
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return common.Node{}, common.ErrNotFound
		}
		return common.Node{}, fmt.Errorf("failed to fetch node by key: %w", err)
	}
	return node, nil
}

func (s *GraphDBStorage) GetNode(ctx context.Context, owner, nodeID string) (common.Node, error) {
	node, err := scanNode(s.conn.QueryRow(ctx, `
		SELECT `+nodeColumns+`
		FROM nodes
		WHERE owner_id = $1 AND public_id = $2`,
		owner,
		nodeID,
	))
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return common.Node{}, common.ErrNotFound
		}
		return common.Node{}, fmt.Errorf("failed to fetch node: %w", err)
	}
	return node, nil
}

func (s *GraphDBStorage) GetNodes(ctx context.Context, owner string, filter store.NodeFilter) ([]common.Node, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT `+nodeColumns+`
		FROM nodes
		WHERE owner_id = $1
		  AND ($2 = '' OR source_document_id = $2)
		  AND ($3 = '' OR type = $3)
		ORDER BY id`,
		owner,
		filter.DocumentID,
		filter.Type,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defer rows.Close()

	nodes := make([]common.Node, 0)
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read node rows: %w", err)
	}
	return nodes, nil
}

// DeleteNode removes the node; the edge foreign keys cascade, so incident
// edges go with it.
func (s *GraphDBStorage) DeleteNode(ctx context.Context, owner, nodeID string) error {
	tag, err := s.conn.Exec(ctx, `
		DELETE FROM nodes
		WHERE owner_id = $1 AND public_id = $2`,
		owner,
		nodeID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
