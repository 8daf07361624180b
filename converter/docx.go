package converter

// DOCX reader for the native PDF strategy.
//
// DOCX files are ZIP archives containing OOXML. The main document lives at
// word/document.xml. We stream-parse that XML, tracking paragraph/run/table
// context, and emit a flat list of layout blocks that render.go lays out on
// PDF pages.

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

type blockKind int

const (
	blockParagraph blockKind = iota
	blockHeading
	blockListItem
	blockTable
)

// block is one layout unit of a Word document.
type block struct {
	kind  blockKind
	level int // heading level (1-6) or list nesting level
	text  string
	bold  bool
	rows  [][]string
}

func readDOCX(filePath string) ([]block, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not found in %s", filePath)
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	return parseDocumentXML(rc)
}

// ---------------------------------------------------------------------------
// Streaming XML parser
// ---------------------------------------------------------------------------

type docxParser struct {
	blocks []block

	// element name stack for context queries
	stack []string

	// paragraph state
	inPara    bool
	paraStyle string
	isList    bool
	listLevel int
	paraBold  bool
	paraText  strings.Builder

	// run state
	inRun   bool
	runBold bool

	// table state; nested tables are flattened into the outer cell
	tableDepth int
	rows       [][]string
	currRow    []string
	inCell     bool
	cellText   strings.Builder
}

func (p *docxParser) push(name string) { p.stack = append(p.stack, name) }
func (p *docxParser) pop() {
	if len(p.stack) > 0 {
		p.stack = p.stack[:len(p.stack)-1]
	}
}
func (p *docxParser) inCtx(name string) bool {
	for _, s := range p.stack {
		if s == name {
			return true
		}
	}
	return false
}

func parseDocumentXML(r io.Reader) ([]block, error) {
	dec := xml.NewDecoder(r)
	p := &docxParser{}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			p.push(t.Name.Local)
			p.handleStart(t)
		case xml.EndElement:
			p.handleEnd(t.Name.Local)
			p.pop()
		case xml.CharData:
			p.handleText(string(t))
		}
	}

	return p.blocks, nil
}

func (p *docxParser) handleStart(t xml.StartElement) {
	switch t.Name.Local {

	case "tbl":
		p.tableDepth++
		if p.tableDepth == 1 {
			p.rows = nil
		}
	case "tr":
		if p.tableDepth == 1 {
			p.currRow = nil
		}
	case "tc":
		if p.tableDepth == 1 {
			p.inCell = true
			p.cellText.Reset()
		}

	case "p":
		if p.inCell {
			if p.cellText.Len() > 0 {
				p.cellText.WriteByte('\n')
			}
			return
		}
		p.inPara = true
		p.paraStyle = ""
		p.isList = false
		p.listLevel = 0
		p.paraBold = true
		p.paraText.Reset()
	case "pStyle":
		if p.inPara && p.inCtx("pPr") {
			p.paraStyle = attrVal(t, "val")
		}
	case "numPr":
		if p.inPara {
			p.isList = true
		}
	case "ilvl":
		if p.inPara && p.inCtx("numPr") {
			fmt.Sscanf(attrVal(t, "val"), "%d", &p.listLevel)
		}

	case "r":
		p.inRun = true
		p.runBold = false
	case "b":
		if p.inRun && p.inCtx("rPr") && attrVal(t, "val") != "0" {
			p.runBold = true
		}
	case "br":
		if p.inRun {
			p.handleText("\n")
		}
	case "tab":
		if p.inRun {
			p.handleText("\t")
		}
	}
}

func (p *docxParser) handleEnd(local string) {
	switch local {

	case "r":
		p.inRun = false

	case "t":
		// A paragraph is bold only if every text-bearing run is.
		if p.inPara && !p.inCell && !p.runBold {
			p.paraBold = false
		}

	case "p":
		if p.inPara && !p.inCell {
			p.flushParagraph()
			p.inPara = false
		}

	case "tc":
		if p.tableDepth == 1 {
			p.currRow = append(p.currRow, strings.TrimSpace(p.cellText.String()))
			p.inCell = false
			p.cellText.Reset()
		}

	case "tr":
		if p.tableDepth == 1 {
			p.rows = append(p.rows, p.currRow)
			p.currRow = nil
		}

	case "tbl":
		if p.tableDepth == 1 && len(p.rows) > 0 {
			p.blocks = append(p.blocks, block{kind: blockTable, rows: p.rows})
			p.rows = nil
		}
		if p.tableDepth > 0 {
			p.tableDepth--
		}
	}
}

func (p *docxParser) handleText(text string) {
	switch {
	case p.inCell:
		p.cellText.WriteString(text)
	case p.inPara && p.inRun:
		p.paraText.WriteString(text)
	}
}

func (p *docxParser) flushParagraph() {
	text := strings.TrimSpace(p.paraText.String())
	if text == "" {
		return
	}
	b := block{kind: blockParagraph, text: text, bold: p.paraBold}
	if lvl := headingLevel(p.paraStyle); lvl > 0 {
		b.kind, b.level, b.bold = blockHeading, lvl, true
	} else if p.isList {
		b.kind, b.level = blockListItem, p.listLevel
	}
	p.blocks = append(p.blocks, b)
}

// headingLevel maps "Heading1".."Heading6" (and the Spanish "Ttulo1" family
// Word emits for localized templates) to a level, or 0.
func headingLevel(style string) int {
	s := strings.ToLower(style)
	for _, prefix := range []string{"heading", "ttulo", "titulo"} {
		if strings.HasPrefix(s, prefix) {
			var n int
			if _, err := fmt.Sscanf(s[len(prefix):], "%d", &n); err == nil && n >= 1 && n <= 6 {
				return n
			}
		}
	}
	if s == "title" {
		return 1
	}
	return 0
}

func attrVal(t xml.StartElement, localName string) string {
	for _, a := range t.Attr {
		if a.Name.Local == localName {
			return a.Value
		}
	}
	return ""
}
