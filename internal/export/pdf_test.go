package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/pbaille/trip/internal/domain"
	"github.com/pbaille/trip/internal/itinerary"
)

func TestPDF_WritesDocument(t *testing.T) {
	spots := domain.FromRows(itinerary.SeedRows())
	for i := range spots {
		if spots[i].Day == domain.Day1 {
			spots[i].IsVisited = true
		}
	}

	var buf bytes.Buffer
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.Local)
	if err := PDF(&buf, spots, now); err != nil {
		t.Fatalf("PDF returned error: %v", err)
	}
	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output does not start with a PDF header")
	}
	if !bytes.Contains(out, []byte("/Subtype /Image")) {
		t.Fatalf("visited Day 1 path produced no QR image")
	}
}

func TestPDF_EmptyItinerary(t *testing.T) {
	var buf bytes.Buffer
	if err := PDF(&buf, nil, time.Now()); err != nil {
		t.Fatalf("PDF returned error: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("PDF wrote nothing")
	}
	if bytes.Contains(buf.Bytes(), []byte("/Subtype /Image")) {
		t.Fatalf("empty itinerary produced an image")
	}
}
