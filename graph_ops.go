package chronograph

import (
	"context"
	"fmt"

	"github.com/graphkeep/chronograph/pkg/driver"
	"github.com/graphkeep/chronograph/pkg/types"
)

// ClearGraph removes all nodes and edges from the knowledge graph for a specific group.
func (c *Client) ClearGraph(ctx context.Context, groupID string) error {
	if groupID == "" {
		groupID = c.config.GroupID
	}

	// First, get all nodes for this group
	allNodes, err := c.getAllNodesForGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to get nodes for clearing: %w", err)
	}

	// Delete all nodes (this will also delete associated edges in most graph databases)
	for _, node := range allNodes {
		if err := c.driver.DeleteNode(ctx, node.Uuid, groupID); err != nil {
			return fmt.Errorf("failed to delete node %s: %w", node.Uuid, err)
		}
	}

	return nil
}

// getAllNodesForGroup retrieves all nodes for a specific group
func (c *Client) getAllNodesForGroup(ctx context.Context, groupID string) ([]*types.Node, error) {
	// Search for all nodes with a high limit and no type filter
	searchOptions := &driver.SearchOptions{
		Limit: 100000, // Large limit to get all nodes
	}

	return c.driver.SearchNodes(ctx, "", groupID, searchOptions)
}

// CreateIndices creates database indices and constraints for optimal performance.
func (c *Client) CreateIndices(ctx context.Context) error {
	return c.driver.CreateIndices(ctx)
}

// RemoveEpisode deletes an episode and reconciles the entity edges and nodes
// it was the sole evidence for. Edges still supported by another episode keep
// their remaining provenance instead of being deleted outright.
func (c *Client) RemoveEpisode(ctx context.Context, episodeUUID string) error {
	// Find the episode to be deleted
	episode, err := types.GetEpisodicNodeByUUID(ctx, c.driver, episodeUUID)
	if err != nil {
		return fmt.Errorf("failed to get episode: %w", err)
	}

	// Find edges mentioned by the episode
	wrapper := &driverWrapper{c.driver}
	edges, err := types.GetEntityEdgesByUUIDs(ctx, wrapper, episode.EntityEdges)
	if err != nil {
		return fmt.Errorf("failed to get entity edges: %w", err)
	}

	// An edge survives episode removal if any other episode still provides
	// evidence for it; only the removed episode's UUID is stripped from its
	// provenance list. An edge whose only evidence was this episode is deleted
	// outright instead of being left with an empty episodes list.
	var edgesToDelete []*types.Edge
	var edgesToUpdate []*types.Edge
	for _, edge := range edges {
		remaining := make([]string, 0, len(edge.Episodes))
		removed := false
		for _, epUUID := range edge.Episodes {
			if epUUID == episode.Uuid {
				removed = true
				continue
			}
			remaining = append(remaining, epUUID)
		}
		if !removed {
			continue
		}
		if len(remaining) == 0 {
			edgesToDelete = append(edgesToDelete, edge)
			continue
		}
		edge.Episodes = remaining
		edge.SourceIDs = remaining
		edgesToUpdate = append(edgesToUpdate, edge)
	}

	// Find nodes mentioned by the episode
	mentionedNodes, err := types.GetMentionedNodes(ctx, c.driver, []*types.Node{episode})
	if err != nil {
		return fmt.Errorf("failed to get mentioned nodes: %w", err)
	}

	// We should delete all nodes that are only mentioned in the deleted episode
	var nodesToDelete []*types.Node
	for _, node := range mentionedNodes {
		query := `MATCH (e:Episodic)-[:MENTIONS]->(n:Entity {uuid: $uuid}) RETURN count(*) AS episode_count`
		records, _, _, err := c.driver.ExecuteQuery(ctx, query, map[string]interface{}{
			"uuid": node.Uuid,
		})
		if err != nil {
			c.logger.Warn("failed to check episode count for node, skipping deletion",
				"node_uuid", node.Uuid,
				"error", err)
			continue // Skip on error, don't delete
		}

		// Check if only one episode mentions this node
		if recordList, ok := records.([]map[string]interface{}); ok {
			for _, record := range recordList {
				if count, ok := record["episode_count"].(int64); ok && count == 1 {
					nodesToDelete = append(nodesToDelete, node)
				}
			}
		}
	}

	// Persist the trimmed provenance list on edges that survive with other
	// supporting episodes.
	for _, edge := range edgesToUpdate {
		if err := edge.Save(ctx, wrapper); err != nil {
			return fmt.Errorf("failed to update edge %s provenance: %w", edge.Uuid, err)
		}
	}

	// Delete edges first
	if len(edgesToDelete) > 0 {
		edgeUUIDs := make([]string, len(edgesToDelete))
		for i, edge := range edgesToDelete {
			edgeUUIDs[i] = edge.Uuid
		}
		if err := types.DeleteEdgesByUUIDs(ctx, wrapper, edgeUUIDs); err != nil {
			return fmt.Errorf("failed to delete edges: %w", err)
		}
	}

	// Delete nodes
	if len(nodesToDelete) > 0 {
		nodeUUIDs := make([]string, len(nodesToDelete))
		for i, node := range nodesToDelete {
			nodeUUIDs[i] = node.Uuid
		}
		if err := types.DeleteNodesByUUIDs(ctx, c.driver, nodeUUIDs); err != nil {
			return fmt.Errorf("failed to delete nodes: %w", err)
		}
	}

	// Finally, delete the episode itself
	if err := types.DeleteNode(ctx, c.driver, episode); err != nil {
		return fmt.Errorf("failed to delete episode: %w", err)
	}

	return nil
}

// Close closes the client and all its connections.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close()
}

// ExecuteQuery executes a raw Cypher query against the graph database.
// This exposes the underlying driver's query execution capability.
func (c *Client) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (interface{}, interface{}, interface{}, error) {
	return c.driver.ExecuteQuery(ctx, query, params)
}
