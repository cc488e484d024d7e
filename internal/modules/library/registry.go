package library

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/neurobridge-companion/internal/clients/studyapi"
	"github.com/yungbote/neurobridge-companion/internal/domain/materials"
	"github.com/yungbote/neurobridge-companion/internal/domain/user"
	"github.com/yungbote/neurobridge-companion/internal/platform/apierr"
	"github.com/yungbote/neurobridge-companion/internal/platform/logger"
)

type API interface {
	Me(ctx context.Context) (user.Principal, error)
	ListMaterials(ctx context.Context) ([]materials.Material, error)
	GetMaterial(ctx context.Context, id string) (materials.Material, error)
	UploadMaterial(ctx context.Context, in studyapi.UploadRequest) (studyapi.UploadResult, error)
}

type Deps struct {
	Log *logger.Logger
	API API
}

// Registry reads the user's materials from the backend. It holds no state of its own.
type Registry struct {
	log *logger.Logger
	api API
}

func New(deps Deps) *Registry {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	return &Registry{log: deps.Log.With("component", "library"), api: deps.API}
}

func (r *Registry) List(ctx context.Context) ([]materials.Material, error) {
	items, err := r.api.ListMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return items, nil
}

func (r *Registry) Get(ctx context.Context, id string) (materials.Material, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return materials.Material{}, apierr.New(apierr.KindInvalid, 0, "missing_material_id", apierr.ErrInvalidArgument)
	}
	m, err := r.api.GetMaterial(ctx, id)
	if err != nil {
		return materials.Material{}, fmt.Errorf("get material %s: %w", id, err)
	}
	return m, nil
}

type UploadInput struct {
	Title    string
	FileName string
	Content  io.Reader
}

// Upload checks the title and extension before sending and returns the stored material.
func (r *Registry) Upload(ctx context.Context, in UploadInput) (materials.Material, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return materials.Material{}, apierr.New(apierr.KindInvalid, 0, "missing_title", apierr.ErrInvalidArgument)
	}
	ext := materials.ExtensionOf(in.FileName)
	if !lo.Contains(materials.AllowedExtensions, ext) {
		return materials.Material{}, apierr.New(apierr.KindInvalid, 0, "unsupported_file_type",
			fmt.Errorf("%w: file type %q not supported", apierr.ErrInvalidArgument, ext))
	}
	if in.Content == nil {
		return materials.Material{}, apierr.New(apierr.KindInvalid, 0, "missing_file", apierr.ErrInvalidArgument)
	}

	res, err := r.api.UploadMaterial(ctx, studyapi.UploadRequest{Title: title, FileName: in.FileName, Content: in.Content})
	if err != nil {
		return materials.Material{}, fmt.Errorf("upload material: %w", err)
	}
	r.log.Info("material uploaded", "material_id", res.MaterialID, "file_type", ext)
	return r.Get(ctx, res.MaterialID)
}

// Search ranks materials by fuzzy title match, best first. A blank query returns items unchanged.
func Search(items []materials.Material, query string) []materials.Material {
	query = strings.TrimSpace(query)
	if query == "" {
		return items
	}
	titles := lo.Map(items, func(m materials.Material, _ int) string { return m.Title })
	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	sort.Stable(ranks)
	return lo.Map(ranks, func(rk fuzzy.Rank, _ int) materials.Material { return items[rk.OriginalIndex] })
}

func (r *Registry) Search(ctx context.Context, query string) ([]materials.Material, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return Search(items, query), nil
}

type Dashboard struct {
	Principal user.Principal       `json:"principal"`
	Materials []materials.Material `json:"materials"`
}

// Dashboard fetches the principal and the material list concurrently.
func (r *Registry) Dashboard(ctx context.Context) (Dashboard, error) {
	var out Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := r.api.Me(gctx)
		if err != nil {
			return fmt.Errorf("load principal: %w", err)
		}
		out.Principal = p
		return nil
	})
	g.Go(func() error {
		items, err := r.List(gctx)
		if err != nil {
			return err
		}
		out.Materials = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return out, nil
}
