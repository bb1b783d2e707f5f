package parser

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"resume-match-go/internal/logger"
)

// TextExtractor 把上传文档转成纯文本
// 任何失败都表现为空字符串，调用方把空文本当作"无法提取"处理
type TextExtractor struct {
	eino *EinoPDFTextExtractor
	log  zerolog.Logger
}

// NewTextExtractor eino 为 nil 时 PDF 只用纯文本读取器
func NewTextExtractor(eino *EinoPDFTextExtractor) *TextExtractor {
	return &TextExtractor{
		eino: eino,
		log:  logger.Logger.With().Str("component", "text_extractor").Logger(),
	}
}

// Extract 提取文本，从不返回错误
func (t *TextExtractor) Extract(ctx context.Context, data []byte, docType DocumentType) (text string) {
	if len(data) == 0 {
		return ""
	}
	// 第三方解析库遇到损坏文件可能 panic
	defer func() {
		if r := recover(); r != nil {
			t.log.Warn().Interface("panic", r).Str("type", string(docType)).Msg("文档解析异常，视为无法提取")
			text = ""
		}
	}()

	var err error
	switch docType {
	case DocumentPDF:
		text, err = t.extractPDF(ctx, data)
	case DocumentDOCX:
		text, err = extractDOCXText(data)
	case DocumentText:
		if !utf8.Valid(data) {
			err = fmt.Errorf("text file is not valid UTF-8")
		} else {
			text = string(data)
		}
	default:
		err = fmt.Errorf("unsupported document type %q", docType)
	}
	if err != nil {
		t.log.Warn().Err(err).Str("type", string(docType)).Int("size", len(data)).Msg("文档文本提取失败")
		return ""
	}
	return strings.TrimSpace(text)
}

func (t *TextExtractor) extractPDF(ctx context.Context, data []byte) (string, error) {
	if t.eino != nil {
		text, err := t.eino.ExtractTextFromBytes(ctx, data, "upload.pdf")
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		if err != nil {
			t.log.Debug().Err(err).Msg("eino 解析失败，改用纯文本读取")
		}
	}
	return extractPDFPlainText(data)
}
