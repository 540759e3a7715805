package template

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PassData is everything printed on a ticket pass.
type PassData struct {
	TicketCode    string
	Status        string
	EventName     string
	Location      string
	Date          string
	StartTime     string
	HolderName    string
	SeatsReserved int64
	ReservationID int64
	QRCodePNG     []byte
}

// GeneratePass renders an A4 pass with the QR code centered on top.
func GeneratePass(data PassData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Ticket "+data.TicketCode, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 22)
	pdf.CellFormat(0, 12, "EVENT TICKET", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if len(data.QRCodePNG) > 0 {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		name := "qr_" + data.TicketCode
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data.QRCodePNG))
		size := 90.0
		pdf.ImageOptions(name, (210.0-size)/2, pdf.GetY(), size, size, false, opts, 0, "")
		pdf.Ln(size + 4)
	}

	pdf.SetFont("Courier", "B", 16)
	pdf.CellFormat(0, 10, data.TicketCode, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.5)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(8)

	rows := []struct{ label, value string }{
		{"Event", data.EventName},
		{"Location", data.Location},
		{"Date", data.Date},
		{"Starts", data.StartTime},
		{"Holder", data.HolderName},
		{"Seats", fmt.Sprintf("%d", data.SeatsReserved)},
		{"Reservation", fmt.Sprintf("#%d", data.ReservationID)},
		{"Status", data.Status},
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, row := range rows {
		if strings.TrimSpace(row.value) == "" {
			continue
		}
		pdf.SetX(30)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(40, 9, row.label, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 12)
		pdf.CellFormat(0, 9, tr(row.value), "", 1, "L", false, 0, "")
	}

	pdf.SetY(-30)
	pdf.SetFont("Arial", "I", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, "Present this pass at the entrance. One scan per ticket.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}
