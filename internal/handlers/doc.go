// Package handlers 将各域服务编排为 HTTP 端点。五个部署单元共用
// 同一个 Handler 聚合，cmd 下的各入口只挂载自己负责的路由组。
// 处理器只做参数解析、鉴权与错误映射，业务规则在 services 层。
package handlers
