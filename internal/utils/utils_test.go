package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDateForInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"15/12/2025 20:00", "2025-12-15T20:00"},
		{"1/2/2025", "2025-02-01T00:00"},
		{"1/2/2025 9:00", "2025-02-01T00:00"},
		{"2025-12-15", "2025-12-15T00:00"},
		{"2025-12-15T20:00:00", "2025-12-15T20:00"},
		{"2025-12-15T20:00", "2025-12-15T20:00"},
		{"", ""},
		{"mañana", ""},
		{"15/12", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDateForInput(tt.in), tt.in)
	}
}

func TestFormatDateForBackend(t *testing.T) {
	assert.Equal(t, "5/3/2025 18:30", FormatDateForBackend("2025-03-05T18:30"))
	assert.Equal(t, "15/12/2025 00:00", FormatDateForBackend("2025-12-15T"))
	assert.Equal(t, "15/12/2025", FormatDateForBackend("15/12/2025"))
	assert.Equal(t, "", FormatDateForBackend(""))
}

func TestDateRoundTrip(t *testing.T) {
	in := "2025-03-05T18:30"
	assert.Equal(t, in, FormatDateForInput(FormatDateForBackend(in)))
}

func TestParseEventDate(t *testing.T) {
	want := time.Date(2025, 12, 15, 20, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2025-12-15T20:00:00",
		"2025-12-15T20:00",
		"2025-12-15 20:00:00",
		"15/12/2025 20:00",
		"2025-12-15T20:00:00Z",
	} {
		got, err := ParseEventDate(s, nil)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
	}

	_, err := ParseEventDate("someday", nil)
	assert.Error(t, err)
}

func TestFormatDateForDisplay(t *testing.T) {
	assert.Equal(t, "15 de diciembre de 2025, 20:00", FormatDateForDisplay("2025-12-15T20:00:00"))
	assert.Equal(t, "pronto", FormatDateForDisplay("pronto"))
}

func TestImageURL(t *testing.T) {
	base := "http://localhost:8000/api/v1/"
	assert.Equal(t, "http://localhost:8000/api/v1/eventos/eventos/image/abc.jpg", ImageURL(base, "/uploads/images/abc.jpg"))
	assert.Equal(t, "http://localhost:8000/api/v1/eventos/eventos/image/x.png", ImageURL(base, "/uploads/other/x.png"))
	assert.Equal(t, "http://localhost:8000/api/v1/eventos/eventos/image/y.gif", ImageURL(base, "y.gif"))
	assert.Equal(t, "https://cdn.example.com/a.webp", ImageURL(base, "https://cdn.example.com/a.webp"))
	assert.Equal(t, "", ImageURL(base, ""))
}

func TestIsValidImageURL(t *testing.T) {
	assert.True(t, IsValidImageURL("/uploads/images/A.JPG"))
	assert.True(t, IsValidImageURL("https://cdn.example.com/a.webp?v=2"))
	assert.False(t, IsValidImageURL("/uploads/doc.pdf"))
	assert.False(t, IsValidImageURL(""))
}

func TestFormatCOP(t *testing.T) {
	assert.Equal(t, "$25.000", FormatCOP(25000))
	assert.Equal(t, "$0", FormatCOP(0))
	assert.Equal(t, "$999", FormatCOP(999))
	assert.Equal(t, "$1.234.567", FormatCOP(1234566.6))
	assert.Equal(t, "-$45.000", FormatCOP(-45000))
}

func TestMessagePrint(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	SuccessMessage("Compra realizada", "Ver tus entradas: ticketctl tickets").Print(&buf)
	ErrorMessage("No se pudo completar la compra", "").Print(&buf)

	assert.Equal(t, "✓ Compra realizada\n  Ver tus entradas: ticketctl tickets\n✗ No se pudo completar la compra\n", buf.String())
}
