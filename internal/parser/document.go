package parser

import (
	"mime"
	"path/filepath"
	"strings"
)

// DocumentType 上传文档类型
type DocumentType string

const (
	DocumentPDF     DocumentType = "pdf"
	DocumentDOCX    DocumentType = "docx"
	DocumentText    DocumentType = "txt"
	DocumentUnknown DocumentType = ""
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
)

// DetectDocumentType 先按扩展名判断，识别不了再看 Content-Type
func DetectDocumentType(filename, contentType string) DocumentType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return DocumentPDF
	case ".docx":
		return DocumentDOCX
	case ".txt", ".md":
		return DocumentText
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return DocumentUnknown
	}
	switch mediaType {
	case mimePDF:
		return DocumentPDF
	case mimeDOCX:
		return DocumentDOCX
	case mimeText:
		return DocumentText
	}
	return DocumentUnknown
}

// Extension 文件扩展名（不含点）
func (d DocumentType) Extension() string {
	return string(d)
}

// ContentType 对应的 MIME 类型
func (d DocumentType) ContentType() string {
	switch d {
	case DocumentPDF:
		return mimePDF
	case DocumentDOCX:
		return mimeDOCX
	case DocumentText:
		return mimeText
	}
	return "application/octet-stream"
}
