package ooxml

import "encoding/xml"

type xmlRelationships struct {
	XMLName      xml.Name          `xml:"Relationships"`
	Relationship []xmlRelationship `xml:"Relationship"`
}

type xmlRelationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type xmlWorkbookPr struct {
	Date1904 string `xml:"date1904,attr"`
}

type xmlWorkbook struct {
	XMLName    xml.Name        `xml:"workbook"`
	WorkbookPr *xmlWorkbookPr `xml:"workbookPr"`
	Sheets     struct {
		Sheet []xmlSheetRef `xml:"sheet"`
	} `xml:"sheets"`
}

type xmlSheetRef struct {
	Name    string `xml:"name,attr"`
	SheetID int    `xml:"sheetId,attr"`
	// r:id lives in the relationships namespace; matching by local name.
	RelID string `xml:"id,attr"`
	State string `xml:"state,attr"`
}

type xmlSST struct {
	XMLName xml.Name `xml:"sst"`
	SI      []xmlSI  `xml:"si"`
}

type xmlSI struct {
	T *string `xml:"t"`
	R []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

func (si xmlSI) text() string {
	if si.T != nil {
		return *si.T
	}
	var s string
	for _, r := range si.R {
		s += r.T
	}
	return s
}

type xmlStyleSheet struct {
	XMLName xml.Name `xml:"styleSheet"`
	NumFmts struct {
		NumFmt []struct {
			ID   int    `xml:"numFmtId,attr"`
			Code string `xml:"formatCode,attr"`
		} `xml:"numFmt"`
	} `xml:"numFmts"`
	CellXfs struct {
		Xf []struct {
			NumFmtID int `xml:"numFmtId,attr"`
		} `xml:"xf"`
	} `xml:"cellXfs"`
}

type xmlWorksheet struct {
	XMLName   xml.Name `xml:"worksheet"`
	SheetData struct {
		Row []xmlRow `xml:"row"`
	} `xml:"sheetData"`
}

type xmlRow struct {
	R int    `xml:"r,attr"`
	C []xmlC `xml:"c"`
}

type xmlC struct {
	R  string  `xml:"r,attr"`
	S  *int    `xml:"s,attr"`
	T  string  `xml:"t,attr"`
	F  *string `xml:"f"`
	V  *string `xml:"v"`
	IS *xmlSI  `xml:"is"`
}
