package api

import (
	"time"

	"github.com/samcharles93/tmckit/internal/export"
	"github.com/samcharles93/tmckit/internal/report"
)

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Param   string `json:"param,omitempty"`
}

type ErrorResponse struct {
	Error ResponseError `json:"error"`
}

// ParseResponse is returned by POST /v1/parse and GET /v1/parse/:id.
type ParseResponse struct {
	ID        string         `json:"id"`
	Object    string         `json:"object"`
	CreatedAt int64          `json:"created_at"`
	Summary   report.Summary `json:"summary"`
}

type TreeResponse struct {
	ID   string      `json:"id"`
	Tree report.Tree `json:"tree"`
}

type TextureListResponse struct {
	ID       string         `json:"id"`
	Textures []export.Entry `json:"textures"`
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Parses  int    `json:"parses"`
}

func newParseResponse(rec *parseRecord) ParseResponse {
	return ParseResponse{
		ID:        rec.ID,
		Object:    "tmc.parse",
		CreatedAt: rec.CreatedAt.Unix(),
		Summary:   rec.Tree.Summary,
	}
}

type parseRecord struct {
	ID        string
	CreatedAt time.Time
	Tree      report.Tree
}
