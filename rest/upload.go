package rest

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
)

// uploadResponse is the common reply of the upload endpoints.
type uploadResponse struct {
	URL string `json:"url"`
}

func (c *Client) upload(ctx context.Context, path, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	var resp uploadResponse
	opts := reqOpts{body: &buf, contentType: w.FormDataContentType()}
	if err := c.do(ctx, http.MethodPost, path, opts, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", fmt.Errorf("upload %s: empty url in response", path)
	}
	return resp.URL, nil
}

// UploadVoice uploads one packaged voice recording and returns the
// media reference URL to send as a voice message.
func (c *Client) UploadVoice(ctx context.Context, filename string, data []byte) (string, error) {
	return c.upload(ctx, "/upload/voice", filename, data)
}

// UploadAvatar uploads a profile picture.
func (c *Client) UploadAvatar(ctx context.Context, filename string, data []byte) (string, error) {
	return c.upload(ctx, "/upload/avatar", filename, data)
}

// UploadStory uploads a story photo or clip.
func (c *Client) UploadStory(ctx context.Context, filename string, data []byte) (string, error) {
	return c.upload(ctx, "/upload/story", filename, data)
}
