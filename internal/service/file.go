package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/botforge-ai/botforge/internal/domain"
)

// ObjectMetadata describes a stored object
type ObjectMetadata struct {
	ContentLength int64
	ContentType   string
	ETag          string
}

// StorageClientInterface abstracts the object store backing file sources
type StorageClientInterface interface {
	GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error)
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	HeadObject(ctx context.Context, key string) (*ObjectMetadata, error)
}

// FileService manages the upload flow for file-type sources. The database
// only ever stores the object key; bytes live in object storage.
type FileService struct {
	kbRepo      KnowledgeBaseRepositoryInterface
	chatbotRepo ChatbotRepositoryInterface
	storage     StorageClientInterface
}

func NewFileService(kbRepo KnowledgeBaseRepositoryInterface, chatbotRepo ChatbotRepositoryInterface, storage StorageClientInterface) *FileService {
	return &FileService{
		kbRepo:      kbRepo,
		chatbotRepo: chatbotRepo,
		storage:     storage,
	}
}

type InitFileUploadInput struct {
	TenantID    string
	SourceID    string
	FileName    string
	ContentType string
}

type InitFileUploadResult struct {
	UploadURL string
	Key       string
}

// InitUpload issues a presigned upload URL for a file source and marks it
// processing until the upload is confirmed.
func (s *FileService) InitUpload(ctx context.Context, input InitFileUploadInput) (*InitFileUploadResult, error) {
	if input.FileName == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "file name is required")
	}

	source, err := s.ownedFileSource(ctx, input.TenantID, input.SourceID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("kb/%s/%s/%s", source.ChatbotID, source.ID, sanitizeFileName(input.FileName))

	uploadURL, err := s.storage.GenerateUploadURL(ctx, key, input.ContentType)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to generate upload URL", err)
	}

	source.FilePath = key
	source.Status = domain.SourceStatusProcessing
	if err := s.kbRepo.UpdateSource(ctx, source); err != nil {
		return nil, err
	}

	return &InitFileUploadResult{UploadURL: uploadURL, Key: key}, nil
}

// CompleteUpload verifies the object exists and activates the source
func (s *FileService) CompleteUpload(ctx context.Context, tenantID, sourceID string) (*domain.KnowledgeSource, error) {
	source, err := s.ownedFileSource(ctx, tenantID, sourceID)
	if err != nil {
		return nil, err
	}
	if source.FilePath == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "no upload was initialized for this source")
	}

	if _, err := s.storage.HeadObject(ctx, source.FilePath); err != nil {
		source.Status = domain.SourceStatusError
		_ = s.kbRepo.UpdateSource(ctx, source)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "uploaded file not found in storage", err)
	}

	source.Status = domain.SourceStatusActive
	if err := s.kbRepo.UpdateSource(ctx, source); err != nil {
		return nil, err
	}
	return source, nil
}

// GetDownloadURL issues a presigned download URL for a file source
func (s *FileService) GetDownloadURL(ctx context.Context, tenantID, sourceID string) (string, error) {
	source, err := s.ownedFileSource(ctx, tenantID, sourceID)
	if err != nil {
		return "", err
	}
	if source.FilePath == "" {
		return "", domain.NewDomainError(domain.ErrCodeValidation, "source has no uploaded file")
	}

	url, err := s.storage.GenerateDownloadURL(ctx, source.FilePath)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to generate download URL", err)
	}
	return url, nil
}

func (s *FileService) ownedFileSource(ctx context.Context, tenantID, sourceID string) (*domain.KnowledgeSource, error) {
	source, err := s.kbRepo.GetSourceByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source.Type != domain.SourceTypeFile {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "source is not a file source")
	}

	chatbot, err := s.chatbotRepo.GetByID(ctx, source.ChatbotID)
	if err != nil {
		return nil, err
	}
	if tenantID != "" && chatbot.TenantID != tenantID {
		return nil, domain.ErrChatbotNotOwned
	}
	return source, nil
}

func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	return name
}
