// internal/utils/validator/workbook.go
package validator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/feichai0017/hasty/pkg/logger"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WorkbookValidator 上传工作簿验证器
type WorkbookValidator struct {
	logger logger.Logger
	config *ValidatorConfig
}

// ValidatorConfig 验证器配置
type ValidatorConfig struct {
	MaxFileSize  int64               // 最大文件大小（字节）
	AllowedTypes map[string][]string // 允许的文件类型 {扩展名: []MIME类型}
}

// ValidationResult 验证结果
type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	FileInfo FileInfo          `json:"fileInfo"`
}

// ValidationError 验证错误
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// FileInfo 文件信息
type FileInfo struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType"`
	Extension string `json:"extension"`
	Hash      string `json:"hash"`
}

// Error joins the messages of an invalid result.
func (r *ValidationResult) Error() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// DefaultConfig 默认配置：20MB 以内的 .xlsx
func DefaultConfig() *ValidatorConfig {
	return &ValidatorConfig{
		MaxFileSize: 20 * 1024 * 1024,
		AllowedTypes: map[string][]string{
			// 压缩包内容靠前时只能识别为 zip
			".xlsx": {xlsxMime, "application/zip"},
		},
	}
}

// NewWorkbookValidator 创建新的工作簿验证器
func NewWorkbookValidator(logger logger.Logger, config *ValidatorConfig) *WorkbookValidator {
	if config == nil {
		config = DefaultConfig()
	}
	return &WorkbookValidator{
		logger: logger,
		config: config,
	}
}

// ValidateFile 验证单个上传文件
func (v *WorkbookValidator) ValidateFile(file *multipart.FileHeader) (*ValidationResult, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return v.Validate(file.Filename, file.Size, f)
}

// Validate checks a named workbook read from r and leaves r rewound.
func (v *WorkbookValidator) Validate(filename string, size int64, r io.ReadSeeker) (*ValidationResult, error) {
	result := &ValidationResult{
		IsValid: true,
		Errors:  make([]ValidationError, 0),
		FileInfo: FileInfo{
			Filename:  filename,
			Size:      size,
			Extension: strings.ToLower(filepath.Ext(filename)),
		},
	}

	// 计算文件哈希
	hash, err := calculateHash(r)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}
	result.FileInfo.Hash = hash

	if errs := v.performBasicValidation(result.FileInfo); len(errs) > 0 {
		result.IsValid = false
		result.Errors = append(result.Errors, errs...)
	}

	// MIME类型验证
	mimeType, err := detectMimeType(r)
	if err != nil {
		return nil, fmt.Errorf("failed to detect mime type: %w", err)
	}
	result.FileInfo.MimeType = mimeType

	if errs := v.validateMimeType(result.FileInfo); len(errs) > 0 {
		result.IsValid = false
		result.Errors = append(result.Errors, errs...)
	}

	if !result.IsValid {
		v.logger.Warn("Workbook rejected",
			logger.String("filename", filename),
			logger.String("mimeType", mimeType),
			logger.String("reason", result.Error()),
		)
	}

	return result, nil
}

// ValidateFiles 批量验证文件
func (v *WorkbookValidator) ValidateFiles(files []*multipart.FileHeader) ([]*ValidationResult, error) {
	results := make([]*ValidationResult, len(files))
	var wg sync.WaitGroup
	errCh := make(chan error, len(files))

	for i, file := range files {
		wg.Add(1)
		go func(index int, file *multipart.FileHeader) {
			defer wg.Done()

			result, err := v.ValidateFile(file)
			if err != nil {
				errCh <- err
				return
			}
			results[index] = result
		}(i, file)
	}

	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}

	return results, nil
}

// 基本验证
func (v *WorkbookValidator) performBasicValidation(fileInfo FileInfo) []ValidationError {
	var errors []ValidationError

	if fileInfo.Size <= 0 {
		errors = append(errors, ValidationError{
			Code:    "EMPTY_FILE",
			Message: "File is empty",
			Field:   "size",
		})
	}

	// 检查文件大小
	if fileInfo.Size > v.config.MaxFileSize {
		errors = append(errors, ValidationError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum limit of %d bytes", v.config.MaxFileSize),
			Field:   "size",
		})
	}

	// 检查文件扩展名
	if _, ok := v.config.AllowedTypes[fileInfo.Extension]; !ok {
		errors = append(errors, ValidationError{
			Code:    "INVALID_FILE_TYPE",
			Message: fmt.Sprintf("File type %s is not allowed", fileInfo.Extension),
			Field:   "extension",
		})
	}

	return errors
}

// MIME类型验证
func (v *WorkbookValidator) validateMimeType(fileInfo FileInfo) []ValidationError {
	allowedMimes, ok := v.config.AllowedTypes[fileInfo.Extension]
	if !ok {
		return nil
	}

	for _, mime := range allowedMimes {
		if mimetype.EqualsAny(fileInfo.MimeType, mime) {
			return nil
		}
	}

	return []ValidationError{{
		Code:    "INVALID_MIME_TYPE",
		Message: fmt.Sprintf("Invalid MIME type %s for extension %s", fileInfo.MimeType, fileInfo.Extension),
		Field:   "mimeType",
	}}
}

// 检测MIME类型
func detectMimeType(r io.ReadSeeker) (string, error) {
	mime, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}

	// 重置文件指针
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	return mime.String(), nil
}

// 计算文件哈希
func calculateHash(r io.ReadSeeker) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, r); err != nil {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
