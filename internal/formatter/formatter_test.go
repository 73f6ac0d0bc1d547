package formatter

import (
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/tracklib/internal/models"
	th "github.com/desertthunder/tracklib/internal/testing"
	"github.com/goccy/go-json"
)

func sampleListing() *Listing {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	daft := &models.Artist{ID: "a1", SpotifyID: "daft", Name: "Daft Punk", URL: "https://open.spotify.com/artist/daft"}
	pharrell := &models.Artist{ID: "a2", SpotifyID: "pw", Name: "Pharrell Williams"}

	return &Listing{
		Title: "Tracks by Daft Punk",
		Tracks: []TrackView{
			{
				Track: &models.Track{
					ID: "t1", ISRC: "GBDUW0000053", SpotifyID: "sp1", Name: "One More Time",
					Image:     models.Image{URL: "https://i.scdn.co/image/one", Height: 640, Width: 640},
					Artists:   []models.ArtistRef{"a1"},
					CreatedAt: created,
				},
				Artists: []*models.Artist{daft},
			},
			{
				Track: &models.Track{
					ID: "t2", ISRC: "GBDUW0000059", SpotifyID: "sp2", Name: "Get Lucky",
					Artists:   []models.ArtistRef{"a1", "a2"},
					CreatedAt: created.Add(time.Hour),
				},
				Artists: []*models.Artist{daft, pharrell},
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleListing())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header + 2 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "ID,ISRC,Name,Artists,Spotify ID,Image URL,Image Size,Created" {
			t.Errorf("unexpected headers: %v", records[0])
		}
		if records[2][3] != "Daft Punk, Pharrell Williams" {
			t.Errorf("expected joined artists, got %q", records[2][3])
		}
		if records[1][6] != "640x640" || records[1][7] != "2024-03-01T12:00:00Z" {
			t.Errorf("unexpected image/created columns: %v", records[1])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleListing())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		output := string(data)

		for _, want := range []string{
			"# Tracks by Daft Punk",
			"**Tracks**: 2",
			"## 1. One More Time",
			"![Cover](https://i.scdn.co/image/one)",
			"- **ISRC**: GBDUW0000059",
			"[Daft Punk](https://open.spotify.com/artist/daft), Pharrell Williams",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("markdown missing %q, got:\n%s", want, output)
			}
		}
		if strings.Count(output, "![Cover]") != 1 {
			t.Error("expected cover only for tracks with an image")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleListing())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		output := string(data)

		if !strings.Contains(output, "1. Daft Punk - One More Time [GBDUW0000053]") {
			t.Errorf("unexpected text output:\n%s", output)
		}
		if !strings.Contains(output, "Tracks: 2") {
			t.Error("text missing track count")
		}
	})

	t.Run("ExportToText without artists", func(t *testing.T) {
		listing := &Listing{Tracks: []TrackView{{Track: &models.Track{Name: "Orphan", ISRC: "USUM71703861"}}}}
		data, _ := ExportToText(listing)
		if !strings.Contains(string(data), "Unknown Artist - Orphan") {
			t.Errorf("expected placeholder artist, got %s", data)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleListing())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded Listing
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded.Tracks) != 2 || decoded.Tracks[1].Artists[1].Name != "Pharrell Williams" {
			t.Errorf("unexpected decoded listing: %+v", decoded)
		}
		if !strings.Contains(string(data), `"img"`) {
			t.Error("expected track image under the img key")
		}
	})

	t.Run("Render", func(t *testing.T) {
		tests := []struct {
			format  string
			wantErr bool
		}{
			{"", false},
			{"text", false},
			{"txt", false},
			{"markdown", false},
			{"md", false},
			{"csv", false},
			{"json", false},
			{"yaml", true},
		}

		for _, tt := range tests {
			t.Run(tt.format, func(t *testing.T) {
				_, err := Render(sampleListing(), tt.format)
				if (err != nil) != tt.wantErr {
					t.Errorf("Render(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
				}
			})
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tracks.csv")
		if err := WriteExport(sampleListing(), FormatCSV, path); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.Contains(content, "GBDUW0000053") {
			t.Errorf("file missing track data: %s", content)
		}
	})

	t.Run("WriteExport unknown format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tracks.out")
		if err := WriteExport(sampleListing(), "xml", path); err == nil {
			t.Error("expected error for unsupported format")
		}
	})

	t.Run("WriteExport bad path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "tracks.txt")
		if err := WriteExport(sampleListing(), FormatText, path); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}
