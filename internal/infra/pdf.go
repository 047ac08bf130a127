package infra

// pdf.go: Cash-closing report using go-pdf/fpdf.
// A5 portrait page with:
//   - Operator and date header
//   - System totals per payment method
//   - Cash counted vs. cash expected and the signed variance
//   - Notes

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"micaja/internal/caja"
	"micaja/internal/model"

	"github.com/go-pdf/fpdf"
)

// RenderCierrePDF renders the closing report and returns the PDF bytes.
func RenderCierrePDF(c *model.CierreCaja) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20
	colL := contentW * 0.6
	colR := contentW * 0.4

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Cierre de Caja", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	empleado := c.EmpleadoID.String()
	if c.Empleado != nil {
		empleado = c.Empleado.NombreCompleto()
	}
	pdf.CellFormat(contentW, 5, tr("Operador: "+empleado), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Fecha: "+caja.FormatFecha(c.Fecha), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Cerrado: "+c.CerradoEn.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(3)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(3)

	// ── Desglose por método ──────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(colL, 6, tr("Método de pago"), "B", 0, "L", false, 0, "")
	pdf.CellFormat(colR, 6, "Total sistema", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	labels := make([]string, 0, len(c.DesgloseMetodos))
	for k := range c.DesgloseMetodos {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	for _, k := range labels {
		pdf.CellFormat(colL, 5, tr(k), "", 0, "L", false, 0, "")
		pdf.CellFormat(colR, 5, caja.FormatMonto(c.DesgloseMetodos[k]), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(colL, 6, "TOTAL", "T", 0, "L", false, 0, "")
	pdf.CellFormat(colR, 6, caja.FormatMonto(c.TotalSistema), "T", 1, "R", false, 0, "")
	pdf.Ln(4)

	// ── Arqueo ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(colL, 5, "Efectivo esperado", "", 0, "L", false, 0, "")
	pdf.CellFormat(colR, 5, caja.FormatMonto(c.EfectivoSistema), "", 1, "R", false, 0, "")
	pdf.CellFormat(colL, 5, "Efectivo contado", "", 0, "L", false, 0, "")
	pdf.CellFormat(colR, 5, caja.FormatMonto(c.EfectivoContado), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(colL, 7, "Diferencia", "T", 0, "L", false, 0, "")
	pdf.CellFormat(colR, 7, caja.FormatDiferencia(c.Diferencia), "T", 1, "R", false, 0, "")

	// ── Notas ────────────────────────────────────────────────────────────────
	if c.Notas != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 4, tr("Notas: "+c.Notas), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render cierre: %w", err)
	}
	return buf.Bytes(), nil
}

// CierrePDFFilename is the download/attachment name of a closing report.
func CierrePDFFilename(c *model.CierreCaja) string {
	return fmt.Sprintf("cierre_%s_%s.pdf", caja.FormatFecha(c.Fecha), c.ID.String()[:8])
}

// SaveCierrePDF writes a rendered report into storagePath (created if
// needed) and returns the file path.
func SaveCierrePDF(c *model.CierreCaja, data []byte, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	path := filepath.Join(storagePath, CierrePDFFilename(c))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return path, nil
}
