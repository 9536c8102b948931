// Package extract turns an encrypted document artifact into one text blob by
// fanning in two extractions: the digital text layer and optical recognition.
// Documents mixing encoded text and scanned content need both paths to avoid
// silent content loss.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

var pdfMagic = []byte("%PDF")

// Decrypter reads an encrypted artifact back into plaintext bytes.
type Decrypter interface {
	Decrypt(path string, key []byte) ([]byte, error)
}

// Recognizer extracts text from image content in document bytes.
type Recognizer interface {
	Recognize(ctx context.Context, data []byte) (string, error)
}

// Extractor combines direct and optical extraction over a decrypted document.
type Extractor struct {
	store  Decrypter
	ocr    Recognizer
	logger *zap.Logger
}

// New creates an extractor. ocr may be nil, in which case only the direct
// path contributes.
func New(store Decrypter, ocr Recognizer, logger *zap.Logger) *Extractor {
	return &Extractor{store: store, ocr: ocr, logger: logger}
}

// Extract decrypts the artifact at encryptedPath and returns the direct text
// followed by the recognized text.
//
// Empty output is the uniform "nothing to process" signal: decryption
// failures and empty plaintext both yield "" with the cause logged, and an
// OCR failure only drops the optical contribution (partial success, not
// total failure).
func (e *Extractor) Extract(ctx context.Context, encryptedPath string, key []byte) string {
	data, err := e.store.Decrypt(encryptedPath, key)
	if err != nil {
		e.logger.Error("Failed to decrypt document", zap.String("path", encryptedPath), zap.Error(err))
		return ""
	}
	if len(data) == 0 {
		return ""
	}

	direct, err := directText(data)
	if err != nil {
		e.logger.Warn("Direct text extraction failed", zap.Error(err))
		direct = ""
	}

	var recognized string
	if e.ocr != nil {
		// The recognizer gets its own view of the same bytes; the direct
		// pass above never advances shared state.
		recognized, err = e.ocr.Recognize(ctx, data)
		if err != nil {
			e.logger.Warn("OCR extraction failed", zap.Error(err))
			recognized = ""
		}
	}

	e.logger.Info("Document text extracted",
		zap.Int("direct_len", len(direct)),
		zap.Int("ocr_len", len(recognized)),
	)
	return direct + recognized
}

// directText extracts the digital text layer. PDF bytes go through the PDF
// reader; anything else is treated as plain text.
func directText(data []byte) (text string, err error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return string(data), nil
	}

	// ledongthuc/pdf panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return string(out), nil
}
