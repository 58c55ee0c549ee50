package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/recallo/recallo-cli/internal/domain"
)

const uploadPath = "/upload"

// Upload streams content as a multipart form. Backend rejections come back
// as *domain.UploadError with a machine-readable reason.
func (c *Client) Upload(ctx context.Context, owner domain.OwnerID, name string, content io.Reader) (domain.UploadResult, error) {
	if owner.IsZero() {
		return domain.UploadResult{}, domain.ErrUnauthenticated
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	body, writer := io.Pipe()
	form := multipart.NewWriter(writer)
	go func() {
		writer.CloseWithError(writeUploadForm(form, owner, name, content))
	}()

	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, c.endpoint(uploadPath, nil), body)
	if err != nil {
		_ = body.CloseWithError(err)
		return domain.UploadResult{}, fmt.Errorf("upload: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")
	if err := c.authorize(ctx, httpReq); err != nil {
		_ = body.CloseWithError(err)
		return domain.UploadResult{}, fmt.Errorf("upload: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		_ = body.CloseWithError(err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.UploadResult{}, fmt.Errorf("upload: %w", ctxErr)
		}
		return domain.UploadResult{}, &domain.RemoteError{Op: "upload", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	var payload uploadResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload)

	c.logger.Debug("backend upload", "file", name, "status", resp.StatusCode)

	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		return domain.UploadResult{RemoteID: string(payload.FileUUID), Message: payload.Message}, nil
	case resp.StatusCode == http.StatusConflict:
		return domain.UploadResult{}, &domain.UploadError{Reason: domain.UploadReasonDuplicate, Message: payload.message()}
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return domain.UploadResult{}, &domain.UploadError{Reason: domain.UploadReasonTooLarge, Message: payload.message()}
	case resp.StatusCode == http.StatusBadRequest:
		return domain.UploadResult{}, &domain.UploadError{Reason: domain.UploadReasonUnsupportedType, Message: payload.message()}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.UploadResult{}, fmt.Errorf("upload: status %d: %w", resp.StatusCode, domain.ErrUnauthenticated)
	default:
		if decodeErr != nil {
			return domain.UploadResult{}, &domain.UploadError{Reason: domain.UploadReasonUnknown, Message: fmt.Sprintf("status %d", resp.StatusCode)}
		}
		return domain.UploadResult{}, &domain.UploadError{Reason: domain.UploadReasonUnknown, Message: payload.message()}
	}
}

func writeUploadForm(form *multipart.Writer, owner domain.OwnerID, name string, content io.Reader) error {
	if err := form.WriteField("user_id", string(owner)); err != nil {
		return err
	}
	part, err := form.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("copy %s: %w", name, err)
	}
	return form.Close()
}

func (p uploadResponse) message() string {
	if p.Error != "" {
		return p.Error
	}
	return p.Message
}
