package domain

import "errors"

var (
	// ErrNoDocument signals that the user has no live document session.
	ErrNoDocument = errors.New("no document uploaded yet")
	// ErrInvalidQuestion signals an empty or missing question.
	ErrInvalidQuestion = errors.New("invalid or empty question")
	// ErrDecryptFailed signals a failed decryption of a stored artifact.
	ErrDecryptFailed = errors.New("decryption failed")
	// ErrExtractionEmpty signals that no text could be extracted from the document.
	ErrExtractionEmpty = errors.New("failed to load document text")
	// ErrChunkingFailed signals that the splitter produced nothing from non-empty text.
	ErrChunkingFailed = errors.New("failed to split document text")
	// ErrIndexBuild signals a failed vector index construction.
	ErrIndexBuild = errors.New("failed to create retriever")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrLLMProvider signals a language model provider failure.
	ErrLLMProvider = errors.New("language model provider error")
	// ErrFileTypeNotAllowed signals an upload with a disallowed extension.
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
)
