// package formatter provides functions to export canvas snapshots to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/shared"
)

// paletteGlyphs are the characters used to render cells in text output,
// indexed by the color's position in the palette.
const paletteGlyphs = ".#@*+oxsz%&="

// Glyph returns the text glyph for the palette color at index i.
func Glyph(i int) byte {
	return paletteGlyphs[i%len(paletteGlyphs)]
}

// glyphFor maps a cell color to its palette glyph. Colors outside the
// palette (possible after a palette-narrowing reset kept old cells) render
// as '?'.
func glyphFor(color string, palette []string) byte {
	for i, p := range palette {
		if p == color {
			return paletteGlyphs[i%len(paletteGlyphs)]
		}
	}
	return '?'
}

// ExportToCSV converts a canvas to CSV format with one row per cell: X, Y, Color
func ExportToCSV(canvas *models.Canvas) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"X", "Y", "Color"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for y, row := range canvas.Rows() {
		for x, color := range row {
			record := []string{strconv.Itoa(x), strconv.Itoa(y), color}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// JournalToCSV converts a commit journal to CSV format with columns: ID, Actor, X, Y, Color, WrittenAt
func JournalToCSV(commits []models.Commit) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Actor", "X", "Y", "Color", "WrittenAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, c := range commits {
		record := []string{
			strconv.FormatInt(c.ID, 10),
			c.ActorID,
			strconv.Itoa(c.X),
			strconv.Itoa(c.Y),
			c.Color,
			c.WrittenAt.Format("2006-01-02T15:04:05Z07:00"),
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

// ExportToText converts a canvas to character art, one glyph per cell.
func ExportToText(canvas *models.Canvas) ([]byte, error) {
	var buf bytes.Buffer

	palette := canvas.Palette()
	for _, row := range canvas.Rows() {
		for _, color := range row {
			buf.WriteByte(glyphFor(color, palette))
		}
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a canvas to a Markdown snapshot with metadata, a palette legend, and the character-art grid.
func ExportToMarkdown(canvas *models.Canvas, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Canvas Snapshot"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Size**: %dx%d (%d cells)\n", canvas.Width(), canvas.Height(), canvas.CellCount()))
	buf.WriteString(fmt.Sprintf("**Default**: %s\n\n", canvas.DefaultColor()))

	buf.WriteString("## Palette\n\n")
	for i, color := range canvas.Palette() {
		buf.WriteString(fmt.Sprintf("- `%c` %s\n", paletteGlyphs[i%len(paletteGlyphs)], color))
	}
	buf.WriteString("\n## Grid\n\n```\n")

	art, err := ExportToText(canvas)
	if err != nil {
		return nil, err
	}
	buf.Write(art)
	buf.WriteString("```\n")

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of canvas metadata (without cells)
func ToMetadataJSON(canvas *models.Canvas) ([]byte, error) {
	meta := struct {
		EventID      string   `json:"event_id"`
		Width        int      `json:"width"`
		Height       int      `json:"height"`
		Palette      []string `json:"palette"`
		DefaultColor string   `json:"default_color"`
	}{
		EventID:      canvas.EventID(),
		Width:        canvas.Width(),
		Height:       canvas.Height(),
		Palette:      canvas.Palette(),
		DefaultColor: canvas.DefaultColor(),
	}
	return shared.MarshalJSON(meta, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	CellsFile    string
	MetadataFile string
}

// WriteCSVExport exports a canvas to CSV with an accompanying metadata JSON file.
//
// Creates {base}_cells.csv and {base}_metadata.json
func WriteCSVExport(canvas *models.Canvas, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = canvas.EventID()
	}

	csvData, err := ExportToCSV(canvas)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	cellsFile := baseFilepath + "_cells.csv"
	if err := os.WriteFile(cellsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(canvas)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		CellsFile:    cellsFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteJournalExport exports a commit journal to a CSV file.
//
// Filename defaults to {eventID}_journal.csv.
func WriteJournalExport(commits []models.Commit, eventID, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_journal.csv", eventID)
	}

	csvData, err := JournalToCSV(commits)
	if err != nil {
		return "", fmt.Errorf("failed to generate journal CSV: %w", err)
	}

	if err := os.WriteFile(filepath, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write journal file: %w", err)
	}

	return filepath, nil
}

// WriteMarkdownExport exports a canvas snapshot to a Markdown file.
//
// Filename defaults to {eventID}_snapshot.md.
func WriteMarkdownExport(canvas *models.Canvas, title, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_snapshot.md", canvas.EventID())
	}

	mdData, err := ExportToMarkdown(canvas, title)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	if err := os.WriteFile(filepath, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return filepath, nil
}

// WriteTextExport exports a canvas to plain character art.
//
// Filename defaults to {eventID}_grid.txt.
func WriteTextExport(canvas *models.Canvas, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_grid.txt", canvas.EventID())
	}

	textData, err := ExportToText(canvas)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
