// Package main 启动应用程序
package main

import "github.com/yeisme/mediavault/pkg/cmd"

//	@title			MediaVault API
//	@version		1.0
//	@description	MediaVault 是一个基于对象存储的媒体摄取与处理管线，提供预签名上传、事件驱动的图像/视频处理、元数据同步与存储回收能力。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
