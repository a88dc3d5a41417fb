// Package services 汇集各业务域的领域逻辑：账号与会话、衣橱与穿搭、
// 社交互动、商城与结算。服务层只依赖存储与外部适配器，
// 不感知 HTTP 细节；处理器负责参数解析与错误到状态码的映射。
package services
