package domain

import (
	"fmt"
	"time"
)

// SourceType represents the kind of knowledge a source carries
type SourceType string

const (
	SourceTypeWebsite SourceType = "website"
	SourceTypeFile    SourceType = "file"
	SourceTypeText    SourceType = "text"
	SourceTypeFAQ     SourceType = "faq"
)

// SourceStatus represents the ingestion status of a knowledge source
type SourceStatus string

const (
	SourceStatusActive     SourceStatus = "active"
	SourceStatusProcessing SourceStatus = "processing"
	SourceStatusError      SourceStatus = "error"
	SourceStatusInactive   SourceStatus = "inactive"
)

// CrawlStatus represents the per-URL ingestion lifecycle state
type CrawlStatus string

const (
	CrawlStatusPending CrawlStatus = "pending"
	CrawlStatusCrawled CrawlStatus = "crawled"
	CrawlStatusError   CrawlStatus = "error"
)

// KnowledgeSource is one ingestible unit of chatbot knowledge.
// Which of Content, FilePath, URLs and FAQs is meaningful is determined
// by Type; fields belonging to other types are ignored downstream.
type KnowledgeSource struct {
	ID        string
	ChatbotID string
	Name      string
	Type      SourceType
	Status    SourceStatus
	Content   string // type = text
	FilePath  string // type = file, object key reference only
	URLs      []KnowledgeBaseURL
	FAQs      []KnowledgeBaseFAQ
	CreatedAt time.Time
	UpdatedAt time.Time
}

// KnowledgeBaseURL is a child of a website-type source
type KnowledgeBaseURL struct {
	ID              string
	KnowledgeBaseID string
	URL             string
	Status          CrawlStatus
	LastCrawled     *time.Time
	ErrorMessage    *string
	Position        int // insertion order within the parent source
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// KnowledgeBaseFAQ is a child of a faq-type source
type KnowledgeBaseFAQ struct {
	ID              string
	KnowledgeBaseID string
	Question        string
	Answer          string
	Position        int // insertion order within the parent source
	CreatedAt       time.Time
}

// NewKnowledgeSource creates a new KnowledgeSource instance
func NewKnowledgeSource(
	id, chatbotID, name string,
	sourceType SourceType,
	status SourceStatus,
	createdAt, updatedAt time.Time,
) *KnowledgeSource {
	return &KnowledgeSource{
		ID:        id,
		ChatbotID: chatbotID,
		Name:      name,
		Type:      sourceType,
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// ValidateKnowledgeSource validates a KnowledgeSource instance
func ValidateKnowledgeSource(s *KnowledgeSource) error {
	if s == nil {
		return fmt.Errorf("knowledge source cannot be nil")
	}

	if s.ID == "" {
		return fmt.Errorf("knowledge source ID is required")
	}

	if s.ChatbotID == "" {
		return fmt.Errorf("knowledge source ChatbotID is required")
	}

	if s.Name == "" {
		return fmt.Errorf("knowledge source Name is required")
	}

	if !IsValidSourceType(s.Type) {
		return fmt.Errorf("knowledge source Type is invalid: %s", s.Type)
	}

	if !IsValidSourceStatus(s.Status) {
		return fmt.Errorf("knowledge source Status is invalid: %s", s.Status)
	}

	for i := range s.URLs {
		if s.URLs[i].URL == "" {
			return fmt.Errorf("knowledge source URL %d is empty", i)
		}
	}

	for i := range s.FAQs {
		if s.FAQs[i].Question == "" {
			return fmt.Errorf("knowledge source FAQ %d has an empty question", i)
		}
		if s.FAQs[i].Answer == "" {
			return fmt.Errorf("knowledge source FAQ %d has an empty answer", i)
		}
	}

	return nil
}

// IsValidSourceType checks if a SourceType is valid
func IsValidSourceType(t SourceType) bool {
	switch t {
	case SourceTypeWebsite, SourceTypeFile, SourceTypeText, SourceTypeFAQ:
		return true
	}
	return false
}

// IsValidSourceStatus checks if a SourceStatus is valid
func IsValidSourceStatus(s SourceStatus) bool {
	switch s {
	case SourceStatusActive, SourceStatusProcessing, SourceStatusError, SourceStatusInactive:
		return true
	}
	return false
}

// IsValidCrawlStatus checks if a CrawlStatus is valid
func IsValidCrawlStatus(s CrawlStatus) bool {
	switch s {
	case CrawlStatusPending, CrawlStatusCrawled, CrawlStatusError:
		return true
	}
	return false
}
