package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pbaille/trip/internal/domain"
	"github.com/pbaille/trip/internal/footprints"
	"github.com/pbaille/trip/internal/itinerary"
	"github.com/phpdave11/gofpdf"
)

const qrSize = 35

// PDF writes the itinerary as a printable document: one section per day in
// display order, with progress, opening-hours status at now, and a QR code
// for the directions link when a day has a visited path.
func PDF(w io.Writer, spots []domain.Spot, now time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Trip itinerary", true)
	pdf.SetAutoPageBreak(true, 15)

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 12, "Trip itinerary", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(0, 6, "Exported "+now.Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, day := range domain.Days() {
		list := itinerary.DayList(spots, day, nil)

		pdf.SetFont("Arial", "B", 15)
		header := string(day)
		if day != domain.Other {
			header = fmt.Sprintf("%s  (%d%% visited)", day, itinerary.Progress(spots, day))
		}
		pdf.CellFormat(0, 10, header, "B", 1, "L", false, 0, "")
		pdf.Ln(2)

		if len(list) == 0 {
			pdf.SetFont("Arial", "I", 11)
			pdf.CellFormat(0, 7, "Nothing planned", "", 1, "L", false, 0, "")
			pdf.Ln(4)
			continue
		}

		for i, s := range list {
			writeSpot(pdf, tr, i+1, s, now)
		}

		if link := itinerary.DirectionsURL(itinerary.VisitedPath(spots, day)); link != "" {
			if err := writeQR(pdf, string(day), link); err != nil {
				return err
			}
		}
		pdf.Ln(4)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func writeSpot(pdf *gofpdf.Fpdf, tr func(string) string, n int, s domain.Spot, now time.Time) {
	mark := "[ ]"
	if s.IsVisited {
		mark = "[x]"
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("%s %d. %s", mark, n, s.Name)), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	var details []string
	if s.OpeningHours != "" {
		details = append(details, fmt.Sprintf("Hours: %s (%s)", s.OpeningHours, itinerary.HoursStatus(s.OpeningHours, now).Label()))
	}
	if s.Address != "" {
		details = append(details, "Address: "+s.Address)
	}
	if len(s.Tags) > 0 {
		details = append(details, "Tags: "+strings.Join(s.Tags, ", "))
	}
	if s.Notes != "" {
		details = append(details, "Notes: "+s.Notes)
	}
	for _, d := range details {
		pdf.SetX(pdf.GetX() + 6)
		pdf.MultiCell(0, 5, tr(d), "", "L", false)
	}
	pdf.Ln(2)
}

func writeQR(pdf *gofpdf.Fpdf, name, link string) error {
	png, err := footprints.QRPNG(link, 256)
	if err != nil {
		return err
	}

	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+qrSize+8 > pageH-bottom {
		pdf.AddPage()
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr-"+name, imageOpts, bytes.NewReader(png))

	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 5, "Directions for visited spots:", "", 1, "L", false, 0, "")
	pdf.ImageOptions("qr-"+name, pdf.GetX(), pdf.GetY(), qrSize, qrSize, true, imageOpts, 0, link)
	return nil
}
