package render

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/go-pdf/fpdf"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Certificate canvas, 1.414:1 so it maps onto A4 landscape.
const (
	CanvasWidth  = 1414
	CanvasHeight = 1000
)

type CertificateData struct {
	VerificationID string
	DisplayName    string
	CourseTitle    string
	CompletedAt    time.Time
	Issuer         string
}

type CertificateRenderer struct {
	title  font.Face
	name   font.Face
	body   font.Face
	small  font.Face
	accent color.Color
}

// NewCertificateRenderer loads fontPath for headings, or the bundled Go fonts when empty.
func NewCertificateRenderer(fontPath string) (*CertificateRenderer, error) {
	boldTTF, regularTTF := gobold.TTF, goregular.TTF
	if p := strings.TrimSpace(fontPath); p != "" {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		boldTTF = raw
	}
	bold, err := truetype.Parse(boldTTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	regular, err := truetype.Parse(regularTTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return &CertificateRenderer{
		title:  newFace(bold, 64),
		name:   newFace(bold, 56),
		body:   newFace(regular, 30),
		small:  newFace(regular, 22),
		accent: color.RGBA{R: 0x1f, G: 0x3a, B: 0x68, A: 0xff},
	}, nil
}

func newFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
}

func (r *CertificateRenderer) PNG(d CertificateData) ([]byte, error) {
	if strings.TrimSpace(d.VerificationID) == "" {
		return nil, fmt.Errorf("verification id required")
	}
	w, h := float64(CanvasWidth), float64(CanvasHeight)
	dc := gg.NewContext(CanvasWidth, CanvasHeight)

	dc.SetColor(color.RGBA{R: 0xfb, G: 0xf8, B: 0xf1, A: 0xff})
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	dc.SetColor(r.accent)
	dc.SetLineWidth(12)
	dc.DrawRectangle(30, 30, w-60, h-60)
	dc.Stroke()
	dc.SetLineWidth(2)
	dc.DrawRectangle(56, 56, w-112, h-112)
	dc.Stroke()

	cx := w / 2
	dc.SetFontFace(r.title)
	dc.DrawStringAnchored("Certificate of Completion", cx, 190, 0.5, 0.5)

	dc.SetColor(color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff})
	dc.SetFontFace(r.body)
	dc.DrawStringAnchored("This certifies that", cx, 320, 0.5, 0.5)

	dc.SetColor(r.accent)
	dc.SetFontFace(r.name)
	dc.DrawStringAnchored(fallback(d.DisplayName, "Learner"), cx, 410, 0.5, 0.5)
	dc.SetLineWidth(2)
	dc.DrawLine(cx-380, 455, cx+380, 455)
	dc.Stroke()

	dc.SetColor(color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff})
	dc.SetFontFace(r.body)
	dc.DrawStringAnchored("has successfully completed the course", cx, 520, 0.5, 0.5)
	dc.SetFontFace(r.name)
	dc.DrawStringWrapped(fallback(d.CourseTitle, "Untitled course"), cx, 600, 0.5, 0, w-320, 1.2, gg.AlignCenter)

	dc.SetFontFace(r.small)
	if !d.CompletedAt.IsZero() {
		dc.DrawStringAnchored("Completed on "+d.CompletedAt.UTC().Format("January 2, 2006"), cx, 820, 0.5, 0.5)
	}
	dc.DrawStringAnchored(fallback(d.Issuer, "IOF Learning"), 160, h-110, 0, 0.5)
	dc.DrawStringAnchored("Verification ID: "+d.VerificationID, w-160, h-110, 1, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// PDF wraps the rendered PNG into a single A4 landscape page.
func (r *CertificateRenderer) PDF(d CertificateData) ([]byte, error) {
	png, err := r.PNG(d)
	if err != nil {
		return nil, err
	}
	return PNGToPDF(d.VerificationID, png)
}

func PNGToPDF(name string, png []byte) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(name, true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	pageW, pageH := pdf.GetPageSize()
	pdf.ImageOptions(name, 0, 0, pageW, pageH, false, opts, 0, "")
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func fallback(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
