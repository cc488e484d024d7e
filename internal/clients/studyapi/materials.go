package studyapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/yungbote/neurobridge-companion/internal/domain/materials"
	"github.com/yungbote/neurobridge-companion/internal/platform/apierr"
)

func (c *Client) ListMaterials(ctx context.Context) ([]materials.Material, error) {
	var out []materials.Material
	r := request{op: "list_materials", method: http.MethodGet, path: "/materials"}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, classify(r.op, apierr.KindGeneration, err)
	}
	if out == nil {
		out = []materials.Material{}
	}
	return out, nil
}

func (c *Client) GetMaterial(ctx context.Context, id string) (materials.Material, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return materials.Material{}, apierr.Wrap(apierr.KindInvalid, fmt.Errorf("get_material: %w: empty id", apierr.ErrInvalidArgument))
	}
	var out materials.Material
	r := request{op: "get_material", method: http.MethodGet, path: "/materials/" + url.PathEscape(id)}
	if err := c.do(ctx, r, &out); err != nil {
		return materials.Material{}, classify(r.op, apierr.KindGeneration, err)
	}
	return out, nil
}

// UploadMaterial sends a multipart form with the title and file fields.
func (c *Client) UploadMaterial(ctx context.Context, in UploadRequest) (UploadResult, error) {
	if in.Content == nil {
		return UploadResult{}, apierr.Wrap(apierr.KindInvalid, errors.New("upload_material: missing content"))
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("title", in.Title); err != nil {
		return UploadResult{}, err
	}
	part, err := mw.CreateFormFile("file", in.FileName)
	if err != nil {
		return UploadResult{}, err
	}
	if _, err := io.Copy(part, in.Content); err != nil {
		return UploadResult{}, fmt.Errorf("upload_material: read content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, err
	}

	r := request{
		op:          "upload_material",
		method:      http.MethodPost,
		path:        "/materials/upload",
		contentType: mw.FormDataContentType(),
		body:        buf.Bytes(),
	}
	var out UploadResult
	if err := c.do(ctx, r, &out); err != nil {
		return UploadResult{}, classify(r.op, apierr.KindGeneration, err)
	}
	return out, nil
}
