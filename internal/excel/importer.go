package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/practicebot/internal/logger"
	"github.com/example/practicebot/pkg/models"
)

// errEmptyRow marks a row with no piece title; it is skipped, not reported.
var errEmptyRow = errors.New("empty row")

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath       string // Path to the Excel or CSV file
	PieceColumn    string // Column with the piece title
	PageColumn     string
	XColumn        string
	YColumn        string
	WidthColumn    string
	HeightColumn   string
	LabelColumn    string
	PriorityColumn string
	ColorColumn    string
	MinutesColumn  string // recommended practice minutes
	SheetName      string // Name of the sheet to import
	StartRow       int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		PieceColumn:    "A",
		PageColumn:     "B",
		XColumn:        "C",
		YColumn:        "D",
		WidthColumn:    "E",
		HeightColumn:   "F",
		LabelColumn:    "G",
		PriorityColumn: "H",
		ColorColumn:    "I",
		MinutesColumn:  "J",
		SheetName:      "Sheet1",
		StartRow:       2, // skip the header
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	PiecesCreated  int
	Created        int
	Skipped        int
	Errors         []string
}

// PieceStore finds and creates pieces by title
type PieceStore interface {
	GetAll(ctx context.Context) ([]models.Piece, error)
	Create(ctx context.Context, piece *models.Piece) error
}

// SpotStore stores newly imported spots
type SpotStore interface {
	Create(ctx context.Context, spot *models.Spot) error
}

// Importer loads spot sheets into the database
type Importer struct {
	pieces PieceStore
	spots  SpotStore
	log    *logger.Logger
}

// NewImporter creates an importer writing through the given stores
func NewImporter(pieces PieceStore, spots SpotStore, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{pieces: pieces, spots: spots, log: log}
}

// Import reads spots from an Excel or CSV file. Row problems are collected
// in the result; only an unreadable file is returned as an error.
func (im *Importer) Import(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	if config.StartRow < 1 {
		config.StartRow = 1
	}
	cols, err := config.columns()
	if err != nil {
		return nil, err
	}

	var rows [][]string
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	existing, err := im.pieces.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing pieces: %w", err)
	}
	pieceMap := make(map[string]int64, len(existing))
	for _, p := range existing {
		pieceMap[strings.ToLower(p.Title)] = p.ID
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++
		err := im.processRow(ctx, row, cols, pieceMap, result)
		switch {
		case errors.Is(err, errEmptyRow):
			result.Skipped++
		case err != nil:
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	im.log.Info("spot import finished",
		"file", config.FilePath,
		"processed", result.TotalProcessed,
		"created", result.Created,
		"pieces_created", result.PiecesCreated,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	return result, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columnIndex holds zero-based cell positions; -1 means the column is unused.
type columnIndex struct {
	piece, page, x, y, w, h, label, priority, color, minutes int
}

func (c ImportConfig) columns() (columnIndex, error) {
	var (
		idx columnIndex
		err error
	)
	for _, m := range []struct {
		dst  *int
		name string
	}{
		{&idx.piece, c.PieceColumn},
		{&idx.page, c.PageColumn},
		{&idx.x, c.XColumn},
		{&idx.y, c.YColumn},
		{&idx.w, c.WidthColumn},
		{&idx.h, c.HeightColumn},
		{&idx.label, c.LabelColumn},
		{&idx.priority, c.PriorityColumn},
		{&idx.color, c.ColorColumn},
		{&idx.minutes, c.MinutesColumn},
	} {
		if *m.dst, err = columnToIndex(m.name); err != nil {
			return columnIndex{}, err
		}
	}
	if idx.piece < 0 {
		return columnIndex{}, fmt.Errorf("piece column is required")
	}
	return idx, nil
}

// columnToIndex converts an Excel column letter to a zero-based index
func columnToIndex(column string) (int, error) {
	column = strings.TrimSpace(column)
	if column == "" {
		return -1, nil
	}
	n, err := excelize.ColumnNameToNumber(column)
	if err != nil {
		return 0, fmt.Errorf("invalid column %q: %w", column, err)
	}
	return n - 1, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// processRow creates one spot from a sheet row
func (im *Importer) processRow(ctx context.Context, row []string, cols columnIndex, pieceMap map[string]int64, result *ImportResult) error {
	title := cell(row, cols.piece)
	if title == "" {
		return errEmptyRow
	}

	page, err := parseInt(cell(row, cols.page), 1)
	if err != nil || page < 1 {
		return fmt.Errorf("invalid page %q", cell(row, cols.page))
	}
	var rect models.Rect
	for _, f := range []struct {
		dst *float64
		i   int
	}{{&rect.X, cols.x}, {&rect.Y, cols.y}, {&rect.Width, cols.w}, {&rect.Height, cols.h}} {
		if *f.dst, err = parseFloat(cell(row, f.i)); err != nil {
			return err
		}
	}
	minutes, err := parseInt(cell(row, cols.minutes), 0)
	if err != nil || minutes < 0 {
		return fmt.Errorf("invalid minutes %q", cell(row, cols.minutes))
	}

	priority := models.PriorityMedium
	if v := cell(row, cols.priority); v != "" {
		if priority, err = models.ParsePriority(v); err != nil {
			return err
		}
	}
	color := models.Red
	if v := cell(row, cols.color); v != "" {
		if color, err = models.ParseColor(v); err != nil {
			return err
		}
	}

	pieceID, err := im.getOrCreatePiece(ctx, title, pieceMap, result)
	if err != nil {
		return err
	}

	spot := models.NewSpot(pieceID, page, rect)
	spot.Label = cell(row, cols.label)
	spot.Priority = priority
	spot.Color = color
	spot.RecommendedMinutes = minutes
	if err := im.spots.Create(ctx, &spot); err != nil {
		return fmt.Errorf("failed to create spot: %w", err)
	}
	result.Created++
	return nil
}

// getOrCreatePiece gets a piece by title or creates a new one if it doesn't exist
func (im *Importer) getOrCreatePiece(ctx context.Context, title string, pieceMap map[string]int64, result *ImportResult) (int64, error) {
	key := strings.ToLower(title)
	if id, ok := pieceMap[key]; ok {
		return id, nil
	}
	piece := &models.Piece{Title: title}
	if err := im.pieces.Create(ctx, piece); err != nil {
		return 0, fmt.Errorf("failed to create piece: %w", err)
	}
	pieceMap[key] = piece.ID
	result.PiecesCreated++
	return piece.ID, nil
}

func parseInt(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	// spreadsheets hand integers back as "3" or "3.0"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %q", s)
	}
	if strings.HasSuffix(s, "%") {
		f /= 100
	}
	return f, nil
}
