package chronograph

import (
	"context"
	"fmt"
	"time"

	"github.com/graphkeep/chronograph/pkg/types"
)

// edgeMergeKey identifies edges that become parallel once a duplicate node's
// endpoint is rewired onto its canonical counterpart.
type edgeMergeKey struct {
	direction string
	other     string
	name      string
}

// MergeNodeInto physically folds duplicateUUID into canonicalUUID: every
// non-duplicate edge touching the duplicate is rewired onto the canonical
// node, edges that collide after rewiring are merged rather than left as
// parallel edges, the duplicate's attributes are copied onto the canonical
// node where the canonical doesn't already have a value, and the duplicate
// node is tombstoned (not deleted) so its uuid keeps resolving via
// redirects_to. An IS_DUPLICATE_OF edge from duplicate to canonical is
// preserved as the audit trail.
//
// Calling MergeNodeInto twice with the same pair is a no-op the second time:
// once a node is tombstoned with redirects_to == canonicalUUID, it has no
// remaining edges to rewire.
func (c *Client) MergeNodeInto(ctx context.Context, canonicalUUID, duplicateUUID string) error {
	if canonicalUUID == "" || duplicateUUID == "" {
		return fmt.Errorf("merge requires both a canonical and a duplicate uuid")
	}
	if canonicalUUID == duplicateUUID {
		return nil
	}

	duplicate, err := types.GetEntityNodeByUUID(ctx, c.driver, duplicateUUID)
	if err != nil {
		return fmt.Errorf("failed to get duplicate node: %w", err)
	}
	if redirect, ok := duplicate.Metadata["redirects_to"].(string); ok && redirect == canonicalUUID {
		return nil
	}

	canonical, err := types.GetEntityNodeByUUID(ctx, c.driver, canonicalUUID)
	if err != nil {
		return fmt.Errorf("failed to get canonical node: %w", err)
	}

	wrapper := &driverWrapper{c.driver}

	duplicateEdges, err := types.GetEntityEdgesByNode(ctx, wrapper, duplicateUUID)
	if err != nil {
		return fmt.Errorf("failed to get duplicate node edges: %w", err)
	}
	canonicalEdges, err := types.GetEntityEdgesByNode(ctx, wrapper, canonicalUUID)
	if err != nil {
		return fmt.Errorf("failed to get canonical node edges: %w", err)
	}

	survivors := make(map[edgeMergeKey]*types.Edge, len(canonicalEdges))
	for _, edge := range canonicalEdges {
		if edge.Name == "IS_DUPLICATE_OF" {
			continue
		}
		survivors[edgeKeyFor(edge, canonicalUUID)] = edge
	}

	var toSave []*types.Edge
	var toDelete []string

	for _, edge := range duplicateEdges {
		if edge.Name == "IS_DUPLICATE_OF" {
			continue
		}

		fromSource := edge.SourceNodeID == duplicateUUID
		other := edge.SourceNodeID
		if fromSource {
			other = edge.TargetNodeID
		}

		if other == canonicalUUID {
			// The duplicate and the canonical were already directly
			// connected; rewiring would leave a self-loop, so the
			// relation is dropped rather than preserved.
			toDelete = append(toDelete, edge.Uuid)
			continue
		}

		key := edgeKeyFor(edge, duplicateUUID)
		key.other = other

		if survivor, ok := survivors[key]; ok && survivor.Uuid != edge.Uuid {
			mergeEdgeInto(survivor, edge)
			toSave = append(toSave, survivor)
			toDelete = append(toDelete, edge.Uuid)
			continue
		}

		if fromSource {
			edge.SourceNodeID = canonicalUUID
			edge.SourceID = canonicalUUID
		} else {
			edge.TargetNodeID = canonicalUUID
			edge.TargetID = canonicalUUID
		}
		edge.UpdateFromCompat()
		survivors[key] = edge
		toSave = append(toSave, edge)
	}

	for _, edge := range toSave {
		if err := edge.Save(ctx, wrapper); err != nil {
			return fmt.Errorf("failed to save rewired edge %s: %w", edge.Uuid, err)
		}
	}
	if len(toDelete) > 0 {
		if err := types.DeleteEdgesByUUIDs(ctx, wrapper, toDelete); err != nil {
			return fmt.Errorf("failed to delete superseded edges: %w", err)
		}
	}

	if canonical.Metadata == nil {
		canonical.Metadata = make(map[string]interface{})
	}
	for k, v := range duplicate.Metadata {
		if k == "redirects_to" || k == "deleted_at" {
			continue
		}
		if _, exists := canonical.Metadata[k]; !exists {
			canonical.Metadata[k] = v
		}
	}
	if err := c.driver.UpsertNode(ctx, canonical); err != nil {
		return fmt.Errorf("failed to persist merged canonical node: %w", err)
	}

	auditEdges, err := types.GetEntityEdgesBetweenNodes(ctx, wrapper, duplicateUUID, canonicalUUID)
	if err != nil {
		return fmt.Errorf("failed to check for existing duplicate-of edge: %w", err)
	}
	hasAudit := false
	for _, edge := range auditEdges {
		if edge.Name == "IS_DUPLICATE_OF" {
			hasAudit = true
			break
		}
	}
	if !hasAudit {
		now := time.Now().UTC()
		auditEdge := types.NewEntityEdge(
			generateID(),
			duplicateUUID,
			canonicalUUID,
			canonical.GroupID,
			"IS_DUPLICATE_OF",
			types.EntityEdgeType,
		)
		fact := fmt.Sprintf("%s is a duplicate of %s", duplicate.Name, canonical.Name)
		auditEdge.Summary = fact
		auditEdge.Fact = fact
		auditEdge.ValidFrom = now
		auditEdge.UpdatedAt = now
		auditEdge.UpdateFromCompat()
		if err := auditEdge.Save(ctx, wrapper); err != nil {
			return fmt.Errorf("failed to save duplicate-of audit edge: %w", err)
		}
	}

	if duplicate.Metadata == nil {
		duplicate.Metadata = make(map[string]interface{})
	}
	duplicate.Metadata["redirects_to"] = canonicalUUID
	duplicate.Metadata["deleted_at"] = time.Now().UTC().Format(time.RFC3339)
	if err := c.driver.UpsertNode(ctx, duplicate); err != nil {
		return fmt.Errorf("failed to tombstone duplicate node: %w", err)
	}

	return nil
}

// edgeKeyFor builds the merge key for edge as seen from nodeUUID's side,
// i.e. with nodeUUID itself excluded from the key (it becomes "other" once
// rewired to a different uuid by the caller).
func edgeKeyFor(edge *types.Edge, nodeUUID string) edgeMergeKey {
	if edge.SourceNodeID == nodeUUID {
		return edgeMergeKey{direction: "out", other: edge.TargetNodeID, name: edge.Name}
	}
	return edgeMergeKey{direction: "in", other: edge.SourceNodeID, name: edge.Name}
}

// mergeEdgeInto folds src's provenance and attributes into survivor, which
// keeps its own identity, direction, and endpoints. Attributes are set-union
// with survivor's existing values taking precedence on key collisions.
func mergeEdgeInto(survivor, src *types.Edge) {
	episodeSeen := make(map[string]bool, len(survivor.Episodes))
	for _, ep := range survivor.Episodes {
		episodeSeen[ep] = true
	}
	for _, ep := range src.Episodes {
		if !episodeSeen[ep] {
			survivor.Episodes = append(survivor.Episodes, ep)
			episodeSeen[ep] = true
		}
	}
	survivor.SourceIDs = survivor.Episodes

	if survivor.Attributes == nil {
		survivor.Attributes = make(map[string]interface{})
	}
	for k, v := range src.Attributes {
		if _, exists := survivor.Attributes[k]; !exists {
			survivor.Attributes[k] = v
		}
	}

	if src.ValidFrom.Before(survivor.ValidFrom) {
		survivor.ValidFrom = src.ValidFrom
	}

	survivor.UpdateFromCompat()
}
