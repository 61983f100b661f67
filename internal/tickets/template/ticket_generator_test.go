package template

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketly-client/internal/models"
	qr "ticketly-client/internal/tickets/qr_generator"
)

func sampleTicket() models.Ticket {
	return models.Ticket{
		ID:          "101",
		Code:        "TKT-1-000101",
		EventID:     "1",
		EventName:   "Concierto de Rock",
		Price:       25000,
		State:       "vendida",
		EventDate:   "2025-12-15T20:00:00",
		PurchasedAt: "2025-11-01T10:30:00",
	}
}

func TestGenerateWithQR(t *testing.T) {
	ticket := sampleTicket()
	code, err := qr.NewQRGenerator("").Generate(ticket)
	require.NoError(t, err)

	pdf, err := NewTicketPDFGenerator().Generate(ticket, code)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Contains(t, string(pdf), "%%EOF")
}

func TestGenerateWithoutQR(t *testing.T) {
	pdf, err := NewTicketPDFGenerator().Generate(sampleTicket(), nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestGenerateRejectsBrokenQR(t *testing.T) {
	_, err := NewTicketPDFGenerator().Generate(sampleTicket(), []byte("not a png"))
	assert.Error(t, err)
}

func TestGenerateRefusesCancelled(t *testing.T) {
	ticket := sampleTicket()
	ticket.State = "cancelada"
	_, err := NewTicketPDFGenerator().Generate(ticket, nil)
	assert.Error(t, err)
}

func TestTicketRows(t *testing.T) {
	rows := ticketRows(sampleTicket())
	require.Len(t, rows, 5)
	assert.Equal(t, row{"Precio", "$25.000"}, rows[2])
	assert.Equal(t, row{"Fecha del evento", "15 de diciembre de 2025, 20:00"}, rows[3])

	assert.Len(t, ticketRows(models.Ticket{Code: "X"}), 3)
	assert.Equal(t, "Evento 7", eventName(models.Ticket{EventID: "7"}))
}
