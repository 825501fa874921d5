package handle

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/mediavault/pkg/cache"
	ctxPkg "github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/rule"
)

// assetCacheTTL 资产详情缓存时长，短一点容忍状态变更.
const assetCacheTTL = 30 * time.Second

// ListAssets 按上传者列出资产，支持类目与状态过滤.
//
//	@Summary		资产列表
//	@Description	按上传者命名空间列出处理台账里的资产，支持 category/status 过滤与分页
//	@Tags			资产
//	@Produce		json
//	@Param			category	query		string						false	"类目过滤"
//	@Param			status		query		string						false	"状态过滤"
//	@Param			limit		query		int							false	"分页大小"
//	@Param			offset		query		int							false	"分页偏移"
//	@Success		200			{object}	types.ListAssetsResponse	"资产列表"
//	@Failure		400			{object}	map[string]string			"请求参数错误"
//	@Failure		500			{object}	map[string]string			"服务器内部错误"
//	@Router			/api/v1/media/assets [get]
func ListAssets(c *gin.Context) {
	var req types.ListAssetsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	uploader := service.ResolveUploader(ctx, c.Query("user"))

	resp, err := service.NewAssetService(ctx).List(ctx, uploader, &req)
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetAsset 按资产 ID 返回资产详情，KV 可用时走读穿缓存.
//
//	@Summary		资产详情
//	@Description	按资产ID查询处理台账记录
//	@Tags			资产
//	@Produce		json
//	@Param			id	path		string				true	"资产ID"
//	@Success		200	{object}	types.AssetItem		"资产详情"
//	@Failure		404	{object}	map[string]string	"资产不存在"
//	@Router			/api/v1/media/assets/{id} [get]
func GetAsset(c *gin.Context) {
	ctx := c.Request.Context()
	assetID := c.Param("id")

	fetch := func() (types.AssetItem, error) {
		item, err := service.NewAssetService(ctx).Get(ctx, assetID)
		if err != nil {
			return types.AssetItem{}, err
		}

		return *item, nil
	}

	if kvClient := ctxPkg.GetKVClient(ctx); kvClient != nil {
		cacheInst := appcache.NewCache(kvClient)

		item, err := appcache.GetOrSet(ctx, cacheInst, "mv:asset:"+assetID, fetch, assetCacheTTL)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, item)

		return
	}

	item, err := fetch()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, item)
}

// AssetStatus 返回资产处理状态：优先 KV 状态缓存，未命中回源台账.
//
//	@Summary		资产处理状态
//	@Description	查询资产当前状态（PROCESSING/PROCESSED/FAILED/DELETED）
//	@Tags			资产
//	@Produce		json
//	@Param			id	path		string				true	"资产ID"
//	@Success		200	{object}	map[string]string	"状态"
//	@Failure		404	{object}	map[string]string	"资产不存在"
//	@Router			/api/v1/media/assets/{id}/status [get]
func AssetStatus(c *gin.Context) {
	ctx := c.Request.Context()
	assetID := c.Param("id")

	if kvClient := ctxPkg.GetKVClient(ctx); kvClient != nil {
		if raw, err := kvClient.Get(ctx, service.StatusCacheKey(assetID)); err == nil && len(raw) > 0 {
			c.JSON(http.StatusOK, gin.H{"asset_id": assetID, "status": string(raw), "source": "cache"})
			return
		}
	}

	item, err := service.NewAssetService(ctx).Get(ctx, assetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset_id": assetID, "status": item.Status, "source": "db"})
}
