package services

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"nokshibox/internal/domain"
	"nokshibox/internal/repos"
)

const maxImportRows = 500

var ErrBadSheet = errors.New("unreadable spreadsheet")

type ImportService struct {
	Cats    *repos.CategoryRepo
	Catalog *CatalogService
}

func NewImportService(cats *repos.CategoryRepo, catalog *CatalogService) *ImportService {
	return &ImportService{Cats: cats, Catalog: catalog}
}

type RowError struct {
	Row    int
	Reason string
}

type ImportReport struct {
	Created []domain.Product
	Skipped []RowError
}

// Import reads the first sheet of an .xlsx workbook: a header row, then
// Title | Category | Price | Details. Every row is checked like the product
// form and stamped with the actor as seller; bad rows are skipped and
// reported. Imported products have no image until edited.
func (s *ImportService) Import(actor domain.Actor, r io.Reader) (ImportReport, error) {
	if !actor.IsSeller() {
		return ImportReport{}, ErrNotSeller
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportReport{}, ErrBadSheet
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ImportReport{}, ErrBadSheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return ImportReport{}, ErrBadSheet
	}
	if len(rows) > maxImportRows+1 {
		return ImportReport{}, fmt.Errorf("%w: more than %d rows", ErrBadSheet, maxImportRows)
	}

	var rep ImportReport
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		line := i + 1
		if blank(row) {
			continue
		}
		if len(row) < 3 {
			rep.Skipped = append(rep.Skipped, RowError{Row: line, Reason: "expected Title, Category, Price"})
			continue
		}
		cat, err := s.Cats.ByName(strings.TrimSpace(row[1]))
		if err != nil {
			if errors.Is(err, repos.ErrNotFound) {
				rep.Skipped = append(rep.Skipped, RowError{Row: line, Reason: fmt.Sprintf("unknown category %q", row[1])})
				continue
			}
			return rep, err
		}
		in := ProductInput{
			Title:      row[0],
			Price:      row[2],
			CategoryID: strconv.FormatInt(cat.ID, 10),
		}
		if len(row) > 3 {
			in.Details = row[3]
		}
		var p domain.Product
		if err := s.Catalog.fill(&p, in); err != nil {
			rep.Skipped = append(rep.Skipped, RowError{Row: line, Reason: err.Error()})
			continue
		}
		p.SellerID = actor.UserID()
		if err := s.Catalog.Prods.Create(&p); err != nil {
			return rep, err
		}
		rep.Created = append(rep.Created, p)
	}
	return rep, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
