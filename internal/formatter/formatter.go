// package formatter exports playback history and library data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/auxd/internal/spotify"
)

// TrackRow is a flattened track entry common to history and library exports.
type TrackRow struct {
	Timestamp  string
	Title      string
	Artists    string
	Album      string
	DurationMS int
	URI        string
}

// HistoryRows flattens a recently-played response into export rows.
func HistoryRows(history *spotify.RecentlyPlayed) []TrackRow {
	rows := make([]TrackRow, len(history.Items))
	for i, item := range history.Items {
		rows[i] = trackRow(item.PlayedAt, item.Track)
	}
	return rows
}

// FavouriteRows flattens a saved-tracks page into export rows.
func FavouriteRows(page *spotify.PaginatedTracks) []TrackRow {
	rows := make([]TrackRow, len(page.Items))
	for i, item := range page.Items {
		rows[i] = trackRow(item.AddedAt, item.Track)
	}
	return rows
}

func trackRow(timestamp string, track spotify.Track) TrackRow {
	names := make([]string, len(track.Artists))
	for i, artist := range track.Artists {
		names[i] = artist.Name
	}
	return TrackRow{
		Timestamp:  timestamp,
		Title:      track.Name,
		Artists:    strings.Join(names, ", "),
		Album:      track.Album.Name,
		DurationMS: track.DurationMS,
		URI:        track.URI,
	}
}

// ToCSV converts export rows to CSV with columns: Timestamp, Title, Artists, Album, Duration, URI
func ToCSV(rows []TrackRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Timestamp", "Title", "Artists", "Album", "Duration", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Timestamp,
			row.Title,
			row.Artists,
			row.Album,
			strconv.Itoa(row.DurationMS),
			row.URI,
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

// ToMarkdown converts export rows to a Markdown listing under the given title.
func ToMarkdown(title string, rows []TrackRow) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(rows)))

	buf.WriteString("## Tracks\n\n")
	for i, row := range rows {
		duration := formatDuration(row.DurationMS)
		albumPart := ""
		if row.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", row.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, row.Artists, row.Title, albumPart, duration))
	}

	return buf.Bytes(), nil
}

// ToText converts export rows to plain text.
func ToText(title string, rows []TrackRow) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", title))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(rows)))

	for i, row := range rows {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, row.Artists, row.Title))
	}

	return buf.Bytes(), nil
}

// WriteExport renders rows in the requested format ("csv", "markdown", or
// "text") and writes them to path. The path defaults per format when empty.
func WriteExport(rows []TrackRow, title, format, path string) (string, error) {
	var (
		data []byte
		err  error
	)

	switch format {
	case "csv":
		if path == "" {
			path = defaultPath(title, "csv")
		}
		data, err = ToCSV(rows)
	case "markdown", "md":
		if path == "" {
			path = defaultPath(title, "md")
		}
		data, err = ToMarkdown(title, rows)
	case "text", "txt", "":
		if path == "" {
			path = defaultPath(title, "txt")
		}
		data, err = ToText(title, rows)
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}

	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

func defaultPath(title, ext string) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(title), " ", "_"))
	if slug == "" {
		slug = "export"
	}
	return fmt.Sprintf("%s.%s", slug, ext)
}

func formatDuration(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
