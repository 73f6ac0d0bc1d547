// package formatter renders stored tracks to various formats (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/tracklib/internal/models"
	"github.com/goccy/go-json"
)

// Supported output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// Formats lists the accepted values of a --format flag.
var Formats = []string{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

// TrackView is a stored track with its artists expanded in credit order.
type TrackView struct {
	Track   *models.Track    `json:"track"`
	Artists []*models.Artist `json:"artists"`
}

// ArtistNames joins the artist names for display.
func (v TrackView) ArtistNames() string {
	names := make([]string, len(v.Artists))
	for i, a := range v.Artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// Listing is a titled group of tracks to render.
type Listing struct {
	Title  string      `json:"title"`
	Tracks []TrackView `json:"tracks"`
}

// Render converts a listing to the named format.
func Render(listing *Listing, format string) ([]byte, error) {
	switch format {
	case FormatText, "txt", "":
		return ExportToText(listing)
	case FormatMarkdown, "md":
		return ExportToMarkdown(listing)
	case FormatCSV:
		return ExportToCSV(listing)
	case FormatJSON:
		return ExportToJSON(listing)
	default:
		return nil, fmt.Errorf("unsupported format %q (expected one of %s)", format, strings.Join(Formats, ", "))
	}
}

// ExportToCSV converts a listing to CSV format with columns: ID, ISRC, Name, Artists, Spotify ID, Image URL, Created
func ExportToCSV(listing *Listing) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "ISRC", "Name", "Artists", "Spotify ID", "Image URL", "Image Size", "Created"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, view := range listing.Tracks {
		track := view.Track
		record := []string{
			track.ID,
			track.ISRC,
			track.Name,
			view.ArtistNames(),
			track.SpotifyID,
			track.Image.URL,
			strconv.Itoa(track.Image.Width) + "x" + strconv.Itoa(track.Image.Height),
			track.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a listing to Markdown format with cover images linked inline
func ExportToMarkdown(listing *Listing) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", listing.Title))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(listing.Tracks)))

	for i, view := range listing.Tracks {
		track := view.Track
		buf.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, track.Name))
		if track.Image.URL != "" {
			buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", track.Image.URL))
		}
		buf.WriteString(fmt.Sprintf("- **ISRC**: %s\n", track.ISRC))
		buf.WriteString(fmt.Sprintf("- **Spotify**: https://open.spotify.com/track/%s\n", track.SpotifyID))

		if len(view.Artists) > 0 {
			buf.WriteString("- **Artists**:")
			for j, a := range view.Artists {
				sep := ","
				if j == 0 {
					sep = ""
				}
				if a.URL != "" {
					buf.WriteString(fmt.Sprintf("%s [%s](%s)", sep, a.Name, a.URL))
				} else {
					buf.WriteString(fmt.Sprintf("%s %s", sep, a.Name))
				}
			}
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts a listing to plain text format
func ExportToText(listing *Listing) ([]byte, error) {
	var buf bytes.Buffer

	if listing.Title != "" {
		buf.WriteString(fmt.Sprintf("%s\n", listing.Title))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(listing.Tracks)))

	for i, view := range listing.Tracks {
		artists := view.ArtistNames()
		if artists == "" {
			artists = "Unknown Artist"
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%s]\n", i+1, artists, view.Track.Name, view.Track.ISRC))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a listing to indented JSON
func ExportToJSON(listing *Listing) ([]byte, error) {
	data, err := json.MarshalIndent(listing, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteExport renders listing in format and writes it to path.
func WriteExport(listing *Listing, format, path string) error {
	data, err := Render(listing, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return nil
}
