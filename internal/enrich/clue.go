package enrich

import (
	"context"
	"net/url"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/entityforge/enrich-cli/internal/model"
	"github.com/entityforge/enrich-cli/internal/vocab"
	"github.com/entityforge/enrich-cli/pkg/duckduckgo"
)

// ImageFetcher downloads a preview image. Implementations are best effort;
// a failure never fails clue construction.
type ImageFetcher interface {
	Fetch(ctx context.Context, imageURL string) ([]byte, error)
}

// ClueBuilder assembles clues from search results, registering dynamically
// discovered vocabulary keys as a side channel.
type ClueBuilder struct {
	vocab  *vocab.Synchronizer
	images ImageFetcher
}

// NewClueBuilder creates a ClueBuilder. images may be nil to skip preview
// downloads.
func NewClueBuilder(syncer *vocab.Synchronizer, images ImageFetcher) *ClueBuilder {
	return &ClueBuilder{vocab: syncer, images: images}
}

// Build turns one search result into a clue for the given entity. It returns
// (nil, nil) unless the result is company-typed with a non-empty heading.
// The clue reuses the entity's existing origin code: enrichment refines the
// known identity rather than minting a new one keyed to the remote heading.
func (b *ClueBuilder) Build(ctx context.Context, res *duckduckgo.SearchResult, entity *model.Entity) (*model.Clue, error) {
	if !res.IsCompany() {
		return nil, nil
	}

	clue := &model.Clue{
		ID:               uuid.New(),
		OriginEntityCode: entity.OriginCode,
		ProviderID:       ProviderID,
		Data: model.EntityMetadata{
			Type:        entity.Type,
			Name:        entity.Name,
			Description: res.Abstract,
			OriginCode:  entity.OriginCode,
			Properties:  map[string]string{},
		},
	}

	if urls := res.ResultURLs(); len(urls) > 0 {
		if u, err := url.Parse(urls[0]); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
			clue.Data.URI = urls[0]
		}
	}

	for _, prop := range Normalize(res) {
		if prop.Dynamic() {
			if err := b.vocab.EnsureKey(ctx, prop.Key, prop.DisplayName, prop.GroupName); err != nil {
				return nil, eris.Wrapf(err, "enrich: ensure vocabulary key %s", prop.Key)
			}
		}
		clue.Data.Properties[prop.Key] = prop.Value
	}

	b.attachPreview(ctx, res, clue)

	return clue, nil
}

func (b *ClueBuilder) attachPreview(ctx context.Context, res *duckduckgo.SearchResult, clue *model.Clue) {
	if b.images == nil || res.ImageIsLogo == nil || *res.ImageIsLogo != 1 || res.Image == "" {
		return
	}

	img, err := b.images.Fetch(ctx, res.Image)
	if err != nil {
		zap.L().Warn("preview image download failed",
			zap.String("url", res.Image),
			zap.Error(err))
		return
	}
	clue.PreviewImage = img
}
