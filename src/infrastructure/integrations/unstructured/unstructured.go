package unstructured

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"examgrader/src/log"
)

type UnstructuredService struct {
	baseURL    string
	httpClient *http.Client
}

type UnstructuredElement struct {
	Type      string   `json:"type"`
	Text      string   `json:"text"`
	ElementID string   `json:"element_id"`
	Metadata  Metadata `json:"metadata"`
}

type Metadata struct {
	Filename   string `json:"filename,omitempty"`
	Filetype   string `json:"filetype,omitempty"`
	PageNumber int    `json:"page_number,omitempty"`
}

func NewUnstructuredService(baseURL string, c *http.Client) *UnstructuredService {
	if c == nil {
		c = http.DefaultClient
	}
	return &UnstructuredService{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: c,
	}
}

// ConvertPDFToText partitions a document into elements without chunking, so
// every element keeps its page number.
func (s *UnstructuredService) ConvertPDFToText(ctx context.Context, filename string, content []byte) ([]UnstructuredElement, error) {
	var requestBody bytes.Buffer
	multipartWriter := multipart.NewWriter(&requestBody)

	fileWriter, err := multipartWriter.CreateFormFile("files", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err = io.Copy(fileWriter, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to write file content: %w", err)
	}

	for key, value := range map[string]string{
		"strategy":      "fast",
		"output_format": "application/json",
	} {
		if err := multipartWriter.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", key, err)
		}
	}
	if err := multipartWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/general/v0/general", &requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", multipartWriter.FormDataContentType())

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Info("failed to convert pdf", "file", filename, "status", resp.Status, "response", string(body))
		return nil, fmt.Errorf("conversion service error: %s", resp.Status)
	}

	var elements []UnstructuredElement
	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return elements, nil
}

// ExtractPages returns the text of each page in page order. Elements of one
// page are joined with newlines; pages without text are kept as empty strings.
func (s *UnstructuredService) ExtractPages(ctx context.Context, filename string, content []byte) ([]string, error) {
	elements, err := s.ConvertPDFToText(ctx, filename, content)
	if err != nil {
		return nil, err
	}
	return GroupByPage(elements), nil
}

func GroupByPage(elements []UnstructuredElement) []string {
	var pages [][]string
	for _, el := range elements {
		page := el.Metadata.PageNumber
		if page < 1 {
			page = 1
		}
		for len(pages) < page {
			pages = append(pages, nil)
		}
		pages[page-1] = append(pages[page-1], el.Text)
	}

	out := make([]string, len(pages))
	for i, texts := range pages {
		out[i] = strings.Join(texts, "\n")
	}
	return out
}
