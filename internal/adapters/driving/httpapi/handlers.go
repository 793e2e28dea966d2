package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const readyTimeout = 2 * time.Second

type handlers struct {
	ports        *Ports
	maxUpload    int64
	queryTimeout time.Duration
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "services": "operational"})
}

type checkResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ready runs every dependency check and answers 503 if any fails.
func (h *handlers) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	names := make([]string, 0, len(h.ports.Checks))
	for name := range h.ports.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]checkResult, len(names))
	for _, name := range names {
		if err := h.ports.Checks[name](ctx); err != nil {
			results[name] = checkResult{Status: "down", Error: err.Error()}
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = checkResult{Status: "up"}
	}

	overall := "ready"
	if status != http.StatusOK {
		overall = "not_ready"
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}

func (h *handlers) query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	q := domain.QueryRequest{Query: req.Query}
	if req.TopK != nil {
		if *req.TopK < 1 {
			badRequest(c, "top_k must be at least 1")
			return
		}
		q.TopK = *req.TopK
	}
	if req.RerankTopK != nil {
		if *req.RerankTopK < 1 {
			badRequest(c, "rerank_top_k must be at least 1")
			return
		}
		q.RerankTopK = *req.RerankTopK
	}

	ctx := c.Request.Context()
	if h.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.queryTimeout)
		defer cancel()
	}

	result, err := h.ports.Query.Answer(ctx, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newQueryResponse(result))
}

// upload accepts a multipart form with either a "file" part or a "text"
// field, plus an optional "title".
func (h *handlers) upload(c *gin.Context) {
	raw, err := h.readUpload(c)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.ports.Documents.Upload(c.Request.Context(), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) readUpload(c *gin.Context) (*domain.RawDocument, error) {
	title := c.PostForm("title")

	if text := c.PostForm("text"); text != "" {
		return &domain.RawDocument{
			MIMEType: "text/plain",
			Title:    title,
			Content:  []byte(text),
		}, nil
	}

	header, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, fmt.Errorf("%w: either file or text must be provided", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("%w: read form: %v", domain.ErrInvalidInput, err)
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d",
			domain.ErrFileTooLarge, header.Filename, header.Size, h.maxUpload)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	return &domain.RawDocument{
		Name:     header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Title:    title,
		Content:  content,
	}, nil
}

func (h *handlers) listDocuments(c *gin.Context) {
	docs, err := h.ports.Documents.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, newDocumentResponse(&docs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"documents": out, "total": len(out)})
}

func (h *handlers) getDocument(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	doc, err := h.ports.Documents.Get(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	chunks, err := h.ports.Documents.Chunks(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := documentDetailResponse{
		documentResponse: newDocumentResponse(doc),
		Chunks:           make([]chunkResponse, 0, len(chunks)),
	}
	for _, ch := range chunks {
		resp.Chunks = append(resp.Chunks, chunkResponse{
			ID:       ch.ID,
			Position: ch.Position,
			Section:  ch.Section,
			Content:  ch.Content,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) deleteDocument(c *gin.Context) {
	id := c.Param("id")
	if err := h.ports.Documents.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted", "document_id": id})
}
