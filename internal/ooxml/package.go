// Package ooxml reads the raw cell layer of an xlsx package: sheet list,
// shared-string table, cell style formats and worksheet cells with their type
// flags and unresolved values.
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

const (
	relOfficeDocument = "/officeDocument"
	relSharedStrings  = "/sharedStrings"
	relStyles         = "/styles"

	defaultWorkbookPath = "xl/workbook.xml"
)

// ErrNotFound is returned when a part the package relies on is missing.
var ErrNotFound = errors.New("ooxml: part not found")

// PartError ties a read failure to the package part that caused it.
type PartError struct {
	Part string
	Err  error
}

func (e *PartError) Error() string { return fmt.Sprintf("ooxml: %s: %v", e.Part, e.Err) }

func (e *PartError) Unwrap() error { return e.Err }

// SheetRef is a worksheet declared by the workbook, in declaration order.
type SheetRef struct {
	Name    string
	SheetID int
	Path    string
}

// Package is an opened xlsx container.
type Package struct {
	files         map[string]*zip.File
	workbookPath  string
	sheets        []SheetRef
	sharedStrings []string
	numFmtIDs     []int
	numFmts       map[int]string
	date1904      bool
}

// OpenBytes opens an in-memory xlsx document.
func OpenBytes(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &PartError{Part: "container", Err: err}
	}
	return open(zr)
}

// Open reads the whole stream and opens it.
func Open(r io.Reader) (*Package, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &PartError{Part: "container", Err: err}
	}
	return OpenBytes(data)
}

func open(zr *zip.Reader) (*Package, error) {
	p := &Package{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		p.files[strings.TrimPrefix(f.Name, "/")] = f
	}

	p.workbookPath = p.resolveWorkbookPath()
	var wb xmlWorkbook
	if err := p.decodePart(p.workbookPath, &wb); err != nil {
		return nil, err
	}
	if wb.WorkbookPr != nil {
		switch strings.ToLower(wb.WorkbookPr.Date1904) {
		case "1", "true":
			p.date1904 = true
		}
	}

	rels, err := p.readRels(p.workbookPath)
	if err != nil {
		return nil, err
	}
	for _, ref := range wb.Sheets.Sheet {
		rel, ok := rels[ref.RelID]
		if !ok {
			return nil, &PartError{Part: p.workbookPath, Err: fmt.Errorf("sheet %q has no relationship %q", ref.Name, ref.RelID)}
		}
		p.sheets = append(p.sheets, SheetRef{
			Name:    ref.Name,
			SheetID: ref.SheetID,
			Path:    resolveTarget(p.workbookPath, rel.Target),
		})
	}

	for _, rel := range rels {
		target := resolveTarget(p.workbookPath, rel.Target)
		switch {
		case strings.HasSuffix(rel.Type, relSharedStrings):
			if err := p.loadSharedStrings(target); err != nil {
				return nil, err
			}
		case strings.HasSuffix(rel.Type, relStyles):
			if err := p.loadStyles(target); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

// Sheets returns the worksheets in workbook order.
func (p *Package) Sheets() []SheetRef { return p.sheets }

// SharedStrings returns the shared-string table, indexed by position.
func (p *Package) SharedStrings() []string { return p.sharedStrings }

// Date1904 reports whether serials use the 1904 date system.
func (p *Package) Date1904() bool { return p.date1904 }

// StyleCount is the number of cell formats; -1 when the package has no
// styles part.
func (p *Package) StyleCount() int {
	if p.numFmtIDs == nil {
		return -1
	}
	return len(p.numFmtIDs)
}

// NumberFormat returns the number format id and custom mask of a cell style.
func (p *Package) NumberFormat(style int) (id int, mask string, ok bool) {
	if style < 0 || style >= len(p.numFmtIDs) {
		return 0, "", false
	}
	id = p.numFmtIDs[style]
	return id, p.numFmts[id], true
}

func (p *Package) resolveWorkbookPath() string {
	rels, err := p.readRels("")
	if err != nil {
		return defaultWorkbookPath
	}
	for _, rel := range rels {
		if strings.HasSuffix(rel.Type, relOfficeDocument) {
			return resolveTarget("", rel.Target)
		}
	}
	return defaultWorkbookPath
}

// readRels loads the relationships of a part keyed by id. An absent rels part
// yields an empty map.
func (p *Package) readRels(part string) (map[string]xmlRelationship, error) {
	relsPath := path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
	if part == "" {
		relsPath = "_rels/.rels"
	}
	out := make(map[string]xmlRelationship)
	if _, ok := p.files[relsPath]; !ok {
		return out, nil
	}
	var rels xmlRelationships
	if err := p.decodePart(relsPath, &rels); err != nil {
		return nil, err
	}
	for _, rel := range rels.Relationship {
		out[rel.ID] = rel
	}
	return out, nil
}

func (p *Package) loadSharedStrings(part string) error {
	var sst xmlSST
	if err := p.decodePart(part, &sst); err != nil {
		return err
	}
	p.sharedStrings = make([]string, len(sst.SI))
	for i, si := range sst.SI {
		p.sharedStrings[i] = si.text()
	}
	return nil
}

func (p *Package) loadStyles(part string) error {
	var ss xmlStyleSheet
	if err := p.decodePart(part, &ss); err != nil {
		return err
	}
	p.numFmtIDs = make([]int, len(ss.CellXfs.Xf))
	for i, xf := range ss.CellXfs.Xf {
		p.numFmtIDs[i] = xf.NumFmtID
	}
	p.numFmts = make(map[int]string, len(ss.NumFmts.NumFmt))
	for _, nf := range ss.NumFmts.NumFmt {
		p.numFmts[nf.ID] = nf.Code
	}
	return nil
}

func (p *Package) decodePart(name string, v interface{}) error {
	f, ok := p.files[name]
	if !ok {
		return &PartError{Part: name, Err: ErrNotFound}
	}
	rc, err := f.Open()
	if err != nil {
		return &PartError{Part: name, Err: err}
	}
	defer rc.Close()
	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return &PartError{Part: name, Err: err}
	}
	return nil
}

// resolveTarget turns a relationship target into a package path. Absolute
// targets start at the package root, relative ones at the source part's folder.
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(path.Dir(source), target))
}
