package template

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"ticketly-client/internal/models"
	"ticketly-client/internal/utils"
)

type TicketPDFGenerator struct {
	Brand string
}

func NewTicketPDFGenerator() *TicketPDFGenerator {
	return &TicketPDFGenerator{Brand: "TICKETLY"}
}

// Generate lays out a single-page eTicket. qrCode is a PNG and may be
// empty, in which case the QR box says so.
func (g *TicketPDFGenerator) Generate(ticket models.Ticket, qrCode []byte) ([]byte, error) {
	if ticket.Status() == models.TicketCancelled {
		return nil, errors.New("cancelled tickets cannot be downloaded")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(fmt.Sprintf("Entrada %s", ticket.Code), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Header
	pdf.SetFont("Helvetica", "B", 22)
	pdf.Cell(0, 15, tr(g.Brand+" - ENTRADA DIGITAL"))
	pdf.Ln(18)
	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(8)

	// Summary box with the QR on its right
	yStart := pdf.GetY()
	pdf.SetFillColor(245, 245, 245)
	pdf.Rect(15, yStart, 120, 60, "F")

	pdf.SetXY(20, yStart+7)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, tr(eventName(ticket)))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 12)
	for _, row := range ticketRows(ticket) {
		pdf.SetX(20)
		pdf.Cell(0, 8, tr(row.label+": "+row.value))
		pdf.Ln(6)
	}

	if len(qrCode) > 0 {
		pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "png"}, bytes.NewReader(qrCode))
		pdf.ImageOptions("qr", 142, yStart+5, 50, 0, false, gofpdf.ImageOptions{ImageType: "png"}, 0, "")
	} else {
		pdf.SetXY(142, yStart+25)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Cell(50, 8, tr("QR no disponible"))
	}

	pdf.SetY(yStart + 68)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 6, tr("Presenta este código QR en la entrada del evento."))

	// Footer
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(15, 285, 195, 285)
	pdf.SetY(288)
	pdf.CellFormat(0, 8, tr("Gracias por usar "+strings.Title(strings.ToLower(g.Brand))+"."), "", 0, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to lay out PDF: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

type row struct {
	label string
	value string
}

func ticketRows(t models.Ticket) []row {
	rows := []row{
		{"Código", t.Code},
		{"Entrada", t.ID.String()},
		{"Precio", utils.FormatCOP(t.Price)},
	}
	if t.EventDate != "" {
		rows = append(rows, row{"Fecha del evento", utils.FormatDateForDisplay(t.EventDate)})
	}
	if t.PurchasedAt != "" {
		rows = append(rows, row{"Comprada", utils.FormatDateForDisplay(t.PurchasedAt)})
	}
	return rows
}

func eventName(t models.Ticket) string {
	if t.EventName != "" {
		return t.EventName
	}
	return "Evento " + t.EventID.String()
}
