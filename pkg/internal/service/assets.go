package service

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"

	"github.com/yeisme/mediavault/pkg/configs"
	ctxPkg "github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

const defaultListLimit = 50

// AssetService 资产查询：基于通用处理台账.
type AssetService struct {
	db    *gorm.DB
	table string
}

// NewAssetService 从请求上下文取 DB 客户端构造查询服务.
func NewAssetService(c context.Context) *AssetService {
	var db *gorm.DB
	if dbc := ctxPkg.GetDBClient(c); dbc != nil {
		db = dbc.GetDB()
	}

	return &AssetService{db: db, table: configs.GetConfig().Media.ProcessingTable}
}

// NewAssetServiceWith 显式注入的构造函数，测试用.
func NewAssetServiceWith(db *gorm.DB, table string) *AssetService {
	return &AssetService{db: db, table: table}
}

// List 按上传者列出资产，可按类目与状态过滤.
func (s *AssetService) List(ctx context.Context, uploaderID string, req *types.ListAssetsRequest) (*types.ListAssetsResponse, error) {
	if s.db == nil {
		return nil, fmt.Errorf("metadata store not initialized")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	q := s.db.WithContext(ctx).Table(s.table).Where("uploader_id = ?", uploaderID)

	if req.Category != "" {
		q = q.Where("category = ?", req.Category)
	}

	if req.Status != "" {
		q = q.Where("status = ?", req.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count assets: %w", err)
	}

	var rows []model.MediaProcessing
	if err := q.Order("created_at DESC").Limit(limit).Offset(req.Offset).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	items := make([]types.AssetItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, toAssetItem(row))
	}

	return &types.ListAssetsResponse{Items: items, Total: total}, nil
}

// Get 按资产 ID 查询单条.
func (s *AssetService) Get(ctx context.Context, assetID string) (*types.AssetItem, error) {
	if s.db == nil {
		return nil, fmt.Errorf("metadata store not initialized")
	}

	var row model.MediaProcessing
	if err := s.db.WithContext(ctx).Table(s.table).Where("asset_id = ?", assetID).First(&row).Error; err != nil {
		return nil, fmt.Errorf("get asset %s: %w", assetID, err)
	}

	item := toAssetItem(row)

	return &item, nil
}

func toAssetItem(row model.MediaProcessing) types.AssetItem {
	var thumbKeys []string
	if row.ThumbnailsJSON != "" {
		_ = sonic.UnmarshalString(row.ThumbnailsJSON, &thumbKeys)
	}

	thumbURLs := make([]string, 0, len(thumbKeys))
	for _, k := range thumbKeys {
		thumbURLs = append(thumbURLs, PublicReadURL(k))
	}

	item := types.AssetItem{
		AssetID:       row.AssetID,
		UploaderID:    row.UploaderID,
		Category:      row.Category,
		FileName:      row.FileName,
		Status:        string(row.Status),
		ThumbnailURLs: thumbURLs,
		Size:          row.Size,
		ProcessedAt:   row.ProcessedAt,
		CreatedAt:     row.CreatedAt,
	}

	if row.ProcessedKey != "" {
		item.ProcessedURL = PublicReadURL(row.ProcessedKey)
	}

	return item
}
