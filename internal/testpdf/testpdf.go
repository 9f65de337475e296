// Package testpdf builds small, well-formed PDF documents for tests.
package testpdf

import (
	"bytes"
	"fmt"
)

// Letter page size in points
const (
	PageWidth  = 612
	PageHeight = 792
)

// Build returns a PDF with one Letter-sized page per entry in texts, each page
// showing its text in Helvetica. The cross reference table has correct offsets
// so strict readers accept it.
func Build(texts ...string) []byte {
	if len(texts) == 0 {
		texts = []string{"Test Document"}
	}

	// 1 catalog, 2 pages, 3 font, then a page and a content stream per page
	objectCount := 3 + 2*len(texts)
	offsets := make([]int, objectCount+1)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	writeObject := func(id int, body string) {
		offsets[id] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, body)
	}

	kids := ""
	for i := range texts {
		kids += fmt.Sprintf("%d 0 R ", pageObject(i))
	}

	writeObject(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObject(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(texts)))
	writeObject(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i, text := range texts {
		writeObject(pageObject(i), fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>",
			PageWidth, PageHeight, pageObject(i)+1))

		stream := fmt.Sprintf("BT\n/F1 24 Tf\n72 700 Td\n(%s) Tj\nET", escape(text))
		writeObject(pageObject(i)+1, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", objectCount+1)
	buf.WriteString("0000000000 65535 f \n")
	for id := 1; id <= objectCount; id++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[id])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", objectCount+1, xref)

	return buf.Bytes()
}

// Pages returns a document with n pages labelled "Page 1" .. "Page n"
func Pages(n int) []byte {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("Page %d", i+1)
	}
	return Build(texts...)
}

func pageObject(index int) int {
	return 4 + 2*index
}

func escape(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '(', ')', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
