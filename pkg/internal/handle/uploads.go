package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/rule"
)

// IssueUploadURL 处理预签名上传请求：返回单次 PUT 的写 URL 与未来的读 URL.
//
//	@Summary		签发预签名上传URL
//	@Description	为媒体上传签发限时的预签名PUT URL，对象键按上传者命名空间隔离
//	@Tags			上传
//	@Accept			json
//	@Produce		json
//	@Param			upload	body		types.IssueUploadRequest	true	"上传请求"
//	@Success		200		{object}	types.UploadTarget			"预签名上传目标"
//	@Failure		400		{object}	map[string]string			"请求参数错误"
//	@Failure		500		{object}	map[string]string			"服务器内部错误"
//	@Router			/api/v1/media/uploads [post]
func IssueUploadURL(c *gin.Context) {
	var req types.IssueUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid upload request")
		badRequest(c, err)

		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		badRequest(c, err)
		return
	}

	// query user 作为显式参数兜底，认证身份（上下文）优先级更高
	if req.Uploader == "" {
		req.Uploader = c.Query("user")
	}

	issuer := service.NewUploadIssuer(c.Request.Context())

	target, err := issuer.Issue(c.Request.Context(), &req)
	if err != nil {
		log.Logger().Error().Err(err).Str("file", req.FileName).Msg("issue upload url failed")
		internalError(c, err)

		return
	}

	c.JSON(http.StatusOK, target)
}
