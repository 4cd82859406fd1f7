// Package canvas owns the shared mutable canvas documents: their data model,
// deterministic placement of new elements, and the per-canvas serialization
// that keeps concurrent mutations from losing updates.
package canvas

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/artboardhq/artboard/internal/domain"
)

// Element is one placed canvas item. The bookkeeping fields beyond position
// and size exist for round-trip fidelity with the visual editor and are
// written once at placement.
type Element struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	X               float64  `json:"x"`
	Y               float64  `json:"y"`
	Width           float64  `json:"width"`
	Height          float64  `json:"height"`
	Angle           float64  `json:"angle"`
	FileID          string   `json:"fileId,omitempty"`
	StrokeColor     string   `json:"strokeColor"`
	BackgroundColor string   `json:"backgroundColor"`
	FillStyle       string   `json:"fillStyle"`
	StrokeWidth     int      `json:"strokeWidth"`
	Roughness       int      `json:"roughness"`
	Opacity         int      `json:"opacity"`
	GroupIDs        []string `json:"groupIds"`
	FrameID         *string  `json:"frameId"`
	Seed            int64    `json:"seed"`
	Version         int      `json:"version"`
	VersionNonce    int64    `json:"versionNonce"`
	IsDeleted       bool     `json:"isDeleted"`
	Locked          bool     `json:"locked"`
	Updated         int64    `json:"updated"`
}

// FileRecord maps a file id to its media reference.
type FileRecord struct {
	ID        string           `json:"id"`
	MIMEType  string           `json:"mimeType"`
	DataURL   string           `json:"dataURL"`
	Created   int64            `json:"created"`
	MediaType domain.MediaType `json:"mediaType,omitempty"`
}

// Document is the full state of one canvas. Every element's FileID must be a
// key of Files; the two are always written together.
type Document struct {
	Elements []Element             `json:"elements"`
	Files    map[string]FileRecord `json:"files"`
}

// NewDocument returns an empty canvas document.
func NewDocument() *Document {
	return &Document{Files: make(map[string]FileRecord)}
}

// newElement builds a placed media element with editor defaults.
func newElement(fileID string, box Box) Element {
	now := time.Now()
	return Element{
		ID:              ulid.Make().String(),
		Type:            "image",
		X:               box.X,
		Y:               box.Y,
		Width:           box.W,
		Height:          box.H,
		FileID:          fileID,
		StrokeColor:     "transparent",
		BackgroundColor: "transparent",
		FillStyle:       "solid",
		StrokeWidth:     1,
		Opacity:         100,
		GroupIDs:        []string{},
		Seed:            rand.Int63(),
		Version:         1,
		VersionNonce:    rand.Int63(),
		Updated:         now.UnixMilli(),
	}
}
