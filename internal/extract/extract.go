package extract

import (
	"errors"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	MIMEPDF  = "application/pdf"
	MIMEDoc  = "application/msword"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEText = "text/plain"
)

// ErrUnsupportedFormat is returned for content types no parser is registered for.
var ErrUnsupportedFormat = errors.New("unsupported file format")

type parser func(data []byte) (string, error)

// Extractor turns uploaded resume files into raw text.
type Extractor struct {
	logger  *zap.Logger
	parsers map[string]parser
}

func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{
		logger: logger,
		parsers: map[string]parser{
			MIMEPDF:  parsePDF,
			MIMEDoc:  parseDocx,
			MIMEDocx: parseDocx,
			MIMEText: parseText,
		},
	}
}

// Supported reports whether the content type can be extracted.
func (e *Extractor) Supported(contentType string) bool {
	_, ok := e.parsers[normalize(contentType)]
	return ok
}

// Extract returns the text of the document. The boolean is false when the file
// could not be parsed; that failure is logged and never returned as an error.
// The only error is ErrUnsupportedFormat.
func (e *Extractor) Extract(data []byte, contentType string) (string, bool, error) {
	mimeType := normalize(contentType)
	parse, ok := e.parsers[mimeType]
	if !ok {
		return "", false, fmt.Errorf("%w: %q", ErrUnsupportedFormat, contentType)
	}

	text, err := safeParse(parse, data)
	if err != nil {
		e.logger.Warn("failed to extract text from file",
			zap.String("content_type", mimeType),
			zap.Int("size", len(data)),
			zap.Error(err),
		)
		return "", false, nil
	}

	e.logger.Debug("text extracted",
		zap.String("content_type", mimeType),
		zap.Int("text_length", utf8.RuneCountInString(text)),
	)

	return text, true, nil
}

// safeParse converts panics from the document libraries into errors. Both
// libraries panic on some malformed inputs.
func safeParse(parse parser, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()

	return parse(data)
}

func normalize(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	return strings.ToLower(contentType)
}

func parseText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("text is not valid utf-8")
	}
	return string(data), nil
}
