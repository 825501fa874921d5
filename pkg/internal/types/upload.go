// Package types 定义媒体管线各接口的请求与响应结构.
package types

// IssueUploadRequest 预签名上传请求.
type IssueUploadRequest struct {
	FileName    string `binding:"required" json:"file_name"    rule:"required,max=512"`
	ContentType string `json:"content_type,omitempty"` // 可选：内容类型，缺省按扩展名推导
	// Uploader 可选：显式上传者标识；认证身份优先于该字段
	Uploader string `json:"uploader,omitempty" rule:"omitempty,max=255"`
}

// UploadTarget 预签名上传结果：单次 PUT 的写 URL 与未来的读 URL.
type UploadTarget struct {
	ObjectKey string `json:"object_key"` // 对象键 (上传后的路径)
	WriteURL  string `json:"write_url"`  // 单次使用的限时上传 URL
	ReadURL   string `json:"read_url"`   // 写入完成后的稳定读 URL
	// ContentType 签名绑定的内容类型，PUT 必须携带同样的值
	ContentType string `json:"content_type"`
	ExpiresIn   int    `json:"expires_in"` // 过期时间 (秒)
}
