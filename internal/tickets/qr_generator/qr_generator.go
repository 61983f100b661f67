package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"

	"ticketly-client/internal/models"
)

const DefaultSize = 256

var (
	ErrTicketCancelled = errors.New("cancelled tickets have no QR code")
	ErrMissingCode     = errors.New("ticket has no confirmation code")
)

// payload is what the entry scanner reads.
type payload struct {
	Code    string    `json:"codigo"`
	Ticket  models.ID `json:"entrada_id"`
	EventID models.ID `json:"evento_id"`
}

type QRGenerator struct {
	secret []byte
	size   int
}

// NewQRGenerator returns a generator that encodes the plain payload. With
// a secret the payload is AES encrypted first.
func NewQRGenerator(secret string) *QRGenerator {
	g := &QRGenerator{size: DefaultSize}
	if secret != "" {
		hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
		g.secret = hashed[:]
	}
	return g
}

// Payload is the string encoded in the QR code of t.
func (q *QRGenerator) Payload(t models.Ticket) (string, error) {
	if t.Status() == models.TicketCancelled {
		return "", ErrTicketCancelled
	}
	if t.Code == "" {
		return "", ErrMissingCode
	}

	data, err := json.Marshal(payload{Code: t.Code, Ticket: t.ID, EventID: t.EventID})
	if err != nil {
		return "", err
	}
	if q.secret == nil {
		return string(data), nil
	}
	return encryptAES(data, q.secret)
}

// Generate renders the ticket's QR code as a PNG.
func (q *QRGenerator) Generate(t models.Ticket) ([]byte, error) {
	content, err := q.Payload(t)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(content, qrcode.Medium, q.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR for ticket %s: %w", t.ID, err)
	}
	return png, nil
}

// Terminal renders the QR code with half-block characters for printing.
func (q *QRGenerator) Terminal(t models.Ticket) (string, error) {
	content, err := q.Payload(t)
	if err != nil {
		return "", err
	}
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR for ticket %s: %w", t.ID, err)
	}
	return code.ToSmallString(false), nil
}

// Decrypt reverses the encryption of an encrypted payload.
func (q *QRGenerator) Decrypt(encoded string) (string, error) {
	if q.secret == nil {
		return encoded, nil
	}
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(raw) < aes.BlockSize {
		return "", errors.New("ciphertext too short")
	}
	block, err := aes.NewCipher(q.secret)
	if err != nil {
		return "", err
	}
	plain := make([]byte, len(raw)-aes.BlockSize)
	cipher.NewCFBDecrypter(block, raw[:aes.BlockSize]).XORKeyStream(plain, raw[aes.BlockSize:])
	return string(plain), nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}
