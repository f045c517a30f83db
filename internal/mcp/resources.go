package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/nextrep/internal/models"
)

const recentWorkoutDays = 14

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	since := h.now().AddDate(0, 0, -recentWorkoutDays)

	// The list is newest first, so paging stops at the first older session.
	recent := []models.SessionListItem{}
	const pageSize = 100
	for offset := 0; ; offset += pageSize {
		page, err := h.ds.ListWorkouts(ctx, h.user(ctx), pageSize, offset)
		if err != nil {
			return nil, err
		}
		done := len(page.Data) < pageSize
		for _, w := range page.Data {
			if w.Date().Before(since) {
				done = true
				break
			}
			recent = append(recent, w)
		}
		if done {
			break
		}
	}

	data, err := json.Marshal(recent)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
