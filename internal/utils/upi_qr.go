package utils

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

const UPIQRSize = 256

// UPILink builds the upi://pay deep link scanned by payment apps.
func UPILink(payee, payeeName string, amount float64) string {
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%s&cu=INR",
		payee, url.QueryEscape(payeeName), strconv.FormatFloat(amount, 'f', -1, 64))
}

func UPIQRCode(link string, size int) ([]byte, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, errors.Wrap(err, "encode upi qr")
	}
	return png, nil
}

// UPIQRDataURI returns the QR as a data URI ready for an <img src>.
func UPIQRDataURI(link string) (string, error) {
	png, err := UPIQRCode(link, UPIQRSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
