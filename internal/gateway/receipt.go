package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "pfa/internal/errors"
	"pfa/internal/models"
)

// MaxReceiptSize is the largest receipt file accepted for upload.
const MaxReceiptSize = 20 << 20

// ExtractReceipt uploads a receipt image or PDF and returns the line items
// the API detected. Empty and non-image files are rejected before any
// request is made.
func (c *Client) ExtractReceipt(ctx context.Context, filename string, r io.Reader) (models.ReceiptExtraction, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxReceiptSize+1))
	if err != nil {
		return models.ReceiptExtraction{}, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Errorf("reading receipt: %w", err))
	}
	if len(data) == 0 {
		return models.ReceiptExtraction{}, apperrors.ErrEmptyUpload
	}
	if len(data) > MaxReceiptSize {
		return models.ReceiptExtraction{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "Receipt file is too large")
	}

	mtype := mimetype.Detect(data)
	if !isReceiptType(mtype) {
		return models.ReceiptExtraction{}, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("Unsupported receipt type %s, upload an image or PDF", mtype.String()))
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filepath.Base(filename))))
	header.Set("Content-Type", mtype.String())
	part, err := w.CreatePart(header)
	if err != nil {
		return models.ReceiptExtraction{}, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	if _, err := part.Write(data); err != nil {
		return models.ReceiptExtraction{}, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	if err := w.Close(); err != nil {
		return models.ReceiptExtraction{}, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/extract/receipt", nil, &body, w.FormDataContentType())
	if err != nil {
		return models.ReceiptExtraction{}, err
	}
	var out models.ReceiptExtraction
	if err := c.do(req, &out); err != nil {
		return models.ReceiptExtraction{}, err
	}
	return out, nil
}

func isReceiptType(m *mimetype.MIME) bool {
	return strings.HasPrefix(m.String(), "image/") || m.Is("application/pdf")
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
